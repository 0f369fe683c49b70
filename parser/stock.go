package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-page-scraper/models"
)

var outOfStockPhrases = []string{
	"out of stock",
	"not in stock",
	"no longer in stock",
	"no stock",
	"sold out",
	"currently unavailable",
	"unavailable",
	"not available",
	"no longer available",
	"discontinued",
}

var inStockPhrases = []string{
	"in stock",
	"available",
	"add to cart",
	"add to bag",
	"buy now",
	"ready to ship",
	"ships today",
	"left",
}

var lowStockPhrases = []string{
	"low stock",
	"selling fast",
}

var (
	stockCountRe = regexp.MustCompile(`(?i)(\d+)\s*(?:left|available|in stock|items?)`)
	camelCaseRe  = regexp.MustCompile(`([a-z])([A-Z])`)
	stockSepRe   = regexp.MustCompile(`[-_/]+`)
)

// normalizeStockText lowercases text and splits camel case and -, _, / so
// "Out-of-stock" and "https://schema.org/OutOfStock" read as "out of stock".
func normalizeStockText(text string) string {
	text = camelCaseRe.ReplaceAllString(text, "$1 $2")
	text = stockSepRe.ReplaceAllString(text, " ")
	return strings.ToLower(CleanText(text))
}

// ParseStockStatus classifies availability text. Out-of-stock phrases are
// checked first. matched reports whether any phrase decided the result; when
// it is false the caller's default applies.
func ParseStockStatus(text string) (inStock, matched bool) {
	lower := normalizeStockText(text)
	if containsAny(lower, outOfStockPhrases) {
		return false, true
	}
	if containsAny(lower, inStockPhrases) {
		return true, true
	}
	return false, false
}

// ParseStockLevel returns an exact count, the LOW label, zero for
// out-of-stock text, or nil when nothing can be said.
func ParseStockLevel(text string) *models.StockLevel {
	if m := stockCountRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return models.CountLevel(n)
		}
	}
	lower := normalizeStockText(text)
	if containsAny(lower, lowStockPhrases) {
		return models.LabelLevel(models.StockLevelLow)
	}
	if containsAny(lower, outOfStockPhrases) {
		return models.CountLevel(0)
	}
	return nil
}

// ParseStock combines status and level. assumeInStock is used when no phrase
// matches; the returned status is then flagged as Assumed.
func ParseStock(text string, assumeInStock bool) models.StockStatus {
	text = CleanText(text)
	inStock, matched := ParseStockStatus(text)
	if !matched {
		inStock = assumeInStock
	}
	return models.StockStatus{
		InStock: inStock,
		Level:   ParseStockLevel(text),
		Text:    text,
		Assumed: !matched,
	}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
