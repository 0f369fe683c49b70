// Package parser holds the text normalizers and record validation.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aluiziolira/go-page-scraper/models"
)

// ValidateItem checks an item against ItemSchema and returns every violation.
// A nil result means the item is valid.
func ValidateItem(item *models.Item) []models.Violation {
	if item == nil {
		return []models.Violation{{Field: "item", Expected: "object", Actual: "nil"}}
	}
	var out []models.Violation
	out = requireString(out, "title", item.Title)
	out = requireURI(out, "url", item.URL)
	if item.Timestamp.IsZero() {
		out = append(out, models.Violation{Field: "timestamp", Expected: "date-time", Actual: "zero time"})
	}
	if item.ImageURL != "" {
		out = requireURI(out, "image_url", item.ImageURL)
	}
	for i, tag := range item.Tags {
		if strings.TrimSpace(tag) == "" {
			out = append(out, models.Violation{Field: fmt.Sprintf("tags[%d]", i), Expected: "non-empty string", Actual: `""`})
		}
	}
	return out
}

// ValidateProduct checks a product against ProductSchema.
func ValidateProduct(p *models.Product) []models.Violation {
	if p == nil {
		return []models.Violation{{Field: "product", Expected: "object", Actual: "nil"}}
	}
	var out []models.Violation
	out = requireString(out, "title", p.Title)
	out = requireURI(out, "url", p.URL)

	if p.Price.Amount < 0 {
		out = append(out, models.Violation{Field: "price.amount", Expected: ">= 0", Actual: fmt.Sprint(p.Price.Amount)})
	}
	if len(p.Price.Currency) != 3 {
		out = append(out, models.Violation{Field: "price.currency", Expected: "ISO 4217 code", Actual: fmt.Sprintf("%q", p.Price.Currency)})
	}
	if p.Price.Discounted {
		switch {
		case p.Price.OriginalAmount == nil:
			out = append(out, models.Violation{Field: "price.original_amount", Expected: "present when discounted", Actual: "missing"})
		case *p.Price.OriginalAmount <= p.Price.Amount:
			out = append(out, models.Violation{
				Field:    "price.original_amount",
				Expected: fmt.Sprintf("> %v", p.Price.Amount),
				Actual:   fmt.Sprint(*p.Price.OriginalAmount),
			})
		}
	}

	if p.Rating.Average < 0 || p.Rating.Average > 5 {
		out = append(out, models.Violation{Field: "rating.average", Expected: "0..5", Actual: fmt.Sprint(p.Rating.Average)})
	}
	if p.Rating.Count < 0 {
		out = append(out, models.Violation{Field: "rating.count", Expected: ">= 0", Actual: fmt.Sprint(p.Rating.Count)})
	}
	for star := range p.Rating.Distribution {
		if star < 1 || star > 5 {
			out = append(out, models.Violation{Field: "rating.distribution", Expected: "keys 1..5", Actual: fmt.Sprint(star)})
		}
	}

	for i, img := range p.Images {
		out = requireURI(out, fmt.Sprintf("images[%d].url", i), img.URL)
	}
	for i, v := range p.Variants {
		out = requireString(out, fmt.Sprintf("variants[%d].name", i), v.Name)
	}
	for i, r := range p.Reviews {
		if r.Rating < 0 || r.Rating > 5 {
			out = append(out, models.Violation{Field: fmt.Sprintf("reviews[%d].rating", i), Expected: "0..5", Actual: fmt.Sprint(r.Rating)})
		}
	}
	for i, rp := range p.RelatedProducts {
		out = requireURI(out, fmt.Sprintf("related_products[%d].url", i), rp.URL)
	}
	if p.Metadata.ScrapedAt.IsZero() {
		out = append(out, models.Violation{Field: "metadata.scraped_at", Expected: "date-time", Actual: "zero time"})
	}
	return out
}

func requireString(out []models.Violation, field, value string) []models.Violation {
	if strings.TrimSpace(value) == "" {
		return append(out, models.Violation{Field: field, Expected: "non-empty string", Actual: `""`})
	}
	return out
}

func requireURI(out []models.Violation, field, value string) []models.Violation {
	u, err := url.Parse(value)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return append(out, models.Violation{Field: field, Expected: "absolute uri", Actual: fmt.Sprintf("%q", value)})
	}
	return out
}
