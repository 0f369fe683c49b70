package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-page-scraper/models"
)

// DefaultCurrency is used when a symbol has no known ISO code.
const DefaultCurrency = "USD"

var currencyCodes = map[string]string{
	"₹": "INR",
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
}

var (
	symbolPriceRe = regexp.MustCompile(`([₹$€£¥])\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	numberRe      = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)
)

// CurrencyCode maps a currency symbol to its ISO code. Unknown symbols map to
// DefaultCurrency.
func CurrencyCode(symbol string) string {
	if code, ok := currencyCodes[strings.TrimSpace(symbol)]; ok {
		return code
	}
	return DefaultCurrency
}

// CurrencySymbol resolves a hint that is either a symbol or an ISO code to a
// symbol. An empty or unknown hint resolves to "$".
func CurrencySymbol(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "$"
	}
	if _, ok := currencyCodes[hint]; ok {
		return hint
	}
	for symbol, code := range currencyCodes {
		if strings.EqualFold(code, hint) {
			return symbol
		}
	}
	return "$"
}

// ParsePrice turns free-form price text into a Price. hint is an optional
// currency symbol or ISO code used when the text carries no symbol. It never
// fails: unparsable text yields a zero amount with the text passed through as
// Formatted.
func ParsePrice(text, hint string) models.Price {
	text = strings.TrimSpace(text)
	matches := symbolPriceRe.FindAllStringSubmatch(text, -1)

	if countSymbols(text) > 1 && len(matches) >= 2 {
		return discountPair(matches[0], matches[1])
	}
	if len(matches) > 0 {
		symbol, token := matches[0][1], matches[0][2]
		return models.Price{
			Amount:    parseAmount(token),
			Currency:  CurrencyCode(symbol),
			Formatted: symbol + token,
		}
	}

	symbol := CurrencySymbol(hint)
	if token := numberRe.FindString(text); token != "" {
		return models.Price{
			Amount:    parseAmount(token),
			Currency:  CurrencyCode(symbol),
			Formatted: symbol + token,
		}
	}

	return models.Price{
		Currency:  CurrencyCode(symbol),
		Formatted: text,
	}
}

// discountPair treats the larger value as the original price and the smaller
// as the current one, whatever their order in the text.
func discountPair(first, second []string) models.Price {
	cur, orig := first, second
	if parseAmount(first[2]) > parseAmount(second[2]) {
		cur, orig = second, first
	}

	amount := parseAmount(cur[2])
	original := parseAmount(orig[2])
	p := models.Price{
		Amount:    amount,
		Currency:  CurrencyCode(cur[1]),
		Formatted: cur[1] + cur[2],
	}
	if original <= amount {
		return p
	}

	pct := int(math.Round((original - amount) / original * 100))
	p.Discounted = true
	p.OriginalAmount = &original
	p.OriginalFormatted = orig[1] + orig[2]
	p.DiscountPercentage = &pct
	return p
}

func countSymbols(text string) int {
	n := 0
	for _, r := range text {
		if _, ok := currencyCodes[string(r)]; ok {
			n++
		}
	}
	return n
}

func parseAmount(token string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// WithOriginal folds a separately scraped original price into p. It is a
// no-op when p already carries a discount or original is not larger.
func WithOriginal(p, original models.Price) models.Price {
	if p.Discounted || original.Amount <= p.Amount {
		return p
	}
	amount := original.Amount
	pct := int(math.Round((amount - p.Amount) / amount * 100))
	p.Discounted = true
	p.OriginalAmount = &amount
	p.OriginalFormatted = original.Formatted
	p.DiscountPercentage = &pct
	return p
}
