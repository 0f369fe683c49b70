package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// Product is the record produced by the product scraper. It is assembled once
// per run and not modified afterwards.
type Product struct {
	Title           string           `json:"title"`
	URL             string           `json:"url"`
	Description     string           `json:"description,omitempty"`
	Price           Price            `json:"price"`
	Images          []Image          `json:"images"`
	Variants        []Variant        `json:"variants"`
	Reviews         []Review         `json:"reviews"`
	Rating          Rating           `json:"rating"`
	Stock           StockStatus      `json:"stock"`
	Metadata        ProductMetadata  `json:"metadata"`
	RelatedProducts []RelatedProduct `json:"related_products,omitempty"`
}

// Price is a normalized price. When Discounted is set, OriginalAmount holds
// the larger pre-discount value.
type Price struct {
	Amount             float64  `json:"amount"`
	Currency           string   `json:"currency"`
	Formatted          string   `json:"formatted"`
	Discounted         bool     `json:"discounted"`
	OriginalAmount     *float64 `json:"original_amount,omitempty"`
	OriginalFormatted  string   `json:"original_formatted,omitempty"`
	DiscountPercentage *int     `json:"discount_percentage,omitempty"`
}

// Rating holds the average on a 0-5 scale plus the review count.
type Rating struct {
	Average      float64     `json:"average"`
	Count        int         `json:"count"`
	Distribution map[int]int `json:"distribution,omitempty"`
}

// StockStatus is the normalized availability of a product.
type StockStatus struct {
	InStock bool        `json:"in_stock"`
	Level   *StockLevel `json:"stock_level,omitempty"`
	Text    string      `json:"text,omitempty"`
	// Assumed is set when no availability phrase matched and the default
	// policy decided InStock.
	Assumed bool `json:"assumed,omitempty"`
}

// StockLevelLow is the coarse label used for "low stock" style phrases.
const StockLevelLow = "LOW"

// StockLevel is either an exact count or a coarse label.
type StockLevel struct {
	Count *int
	Label string
}

// CountLevel returns a StockLevel holding an exact quantity.
func CountLevel(n int) *StockLevel {
	return &StockLevel{Count: &n}
}

// LabelLevel returns a StockLevel holding a coarse label.
func LabelLevel(label string) *StockLevel {
	return &StockLevel{Label: label}
}

func (l StockLevel) String() string {
	if l.Label != "" {
		return l.Label
	}
	if l.Count != nil {
		return strconv.Itoa(*l.Count)
	}
	return ""
}

// MarshalJSON encodes the level as a number or a string.
func (l StockLevel) MarshalJSON() ([]byte, error) {
	switch {
	case l.Label != "":
		return json.Marshal(l.Label)
	case l.Count != nil:
		return json.Marshal(*l.Count)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts either a number or a string.
func (l *StockLevel) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		l.Count, l.Label = &n, ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	l.Count, l.Label = nil, s
	return nil
}

// Image is a product image reference.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Variant is a selectable product option such as a color swatch.
type Variant struct {
	Name      string `json:"name"`
	Value     string `json:"value,omitempty"`
	Price     *Price `json:"price,omitempty"`
	Available bool   `json:"available"`
	Selected  bool   `json:"selected,omitempty"`
}

// Review is a single customer review.
type Review struct {
	Author string  `json:"author,omitempty"`
	Rating float64 `json:"rating"`
	Title  string  `json:"title,omitempty"`
	Body   string  `json:"body"`
	Date   string  `json:"date,omitempty"`
}

// ProductMetadata carries identifiers and provenance.
type ProductMetadata struct {
	SKU       string    `json:"sku,omitempty"`
	Brand     string    `json:"brand,omitempty"`
	Category  string    `json:"category,omitempty"`
	Source    string    `json:"source"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// RelatedProduct is a teaser for another product linked from the page.
type RelatedProduct struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Price    *Price `json:"price,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}
