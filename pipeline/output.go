package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/go-page-scraper/models"
)

// Layout resolves the fixed output tree under a root directory.
type Layout struct {
	Root string
}

func (l Layout) Data(elem ...string) string {
	return filepath.Join(append([]string{l.Root, "data"}, elem...)...)
}

func (l Layout) Exports(elem ...string) string {
	return filepath.Join(append([]string{l.Root, "exports"}, elem...)...)
}

func (l Layout) Schemas(elem ...string) string {
	return filepath.Join(append([]string{l.Root, "schemas"}, elem...)...)
}

// Report is the path of the run report.
func (l Layout) Report() string {
	return l.Data("report.json")
}

var itemHeader = []string{"title", "url", "description", "image_url", "author", "published_date", "tags", "timestamp"}

func itemRow(item *models.Item) []string {
	return []string{
		item.Title,
		item.URL,
		item.Description,
		item.ImageURL,
		item.Metadata.Author,
		item.Metadata.PublishedDate,
		strings.Join(item.Tags, "|"),
		item.Timestamp.Format(time.RFC3339),
	}
}

// NewItemWriter writes data/items.json, data/items/item_N.json and
// exports/items.csv.
func NewItemWriter(l Layout) (*MultiWriter[*models.Item], error) {
	array, err := NewJSONArrayWriter[*models.Item](l.Data("items.json"))
	if err != nil {
		return nil, err
	}
	split, err := NewSplitWriter[*models.Item](l.Data("items"), "item_%d.json")
	if err != nil {
		return nil, err
	}
	csvWriter, err := NewCSVWriter(l.Exports("items.csv"), itemHeader, itemRow)
	if err != nil {
		return nil, err
	}
	return NewMultiWriter[*models.Item](array, split, csvWriter), nil
}

var productHeader = []string{
	"title", "url", "price", "currency", "original_price", "discount_percentage",
	"rating", "review_count", "in_stock", "stock_level", "sku", "brand", "category",
	"images", "variants", "reviews", "scraped_at",
}

func productRow(p *models.Product) []string {
	original, discount := "", ""
	if p.Price.OriginalAmount != nil {
		original = formatFloat(*p.Price.OriginalAmount)
	}
	if p.Price.DiscountPercentage != nil {
		discount = strconv.Itoa(*p.Price.DiscountPercentage)
	}
	level := ""
	if p.Stock.Level != nil {
		level = p.Stock.Level.String()
	}
	return []string{
		p.Title,
		p.URL,
		formatFloat(p.Price.Amount),
		p.Price.Currency,
		original,
		discount,
		formatFloat(p.Rating.Average),
		strconv.Itoa(p.Rating.Count),
		strconv.FormatBool(p.Stock.InStock),
		level,
		p.Metadata.SKU,
		p.Metadata.Brand,
		p.Metadata.Category,
		strconv.Itoa(len(p.Images)),
		strconv.Itoa(len(p.Variants)),
		strconv.Itoa(len(p.Reviews)),
		p.Metadata.ScrapedAt.Format(time.RFC3339),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ProductFileWriter writes the product document and its image, variant and
// review lists to their own files. A run scrapes one product; a later Write
// replaces the files.
type ProductFileWriter struct {
	layout  Layout
	written bool
	mu      sync.Mutex
}

// NewProductFileWriter writes under l.
func NewProductFileWriter(l Layout) *ProductFileWriter {
	return &ProductFileWriter{layout: l}
}

func (pw *ProductFileWriter) Write(products []*models.Product) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	for _, p := range products {
		files := []struct {
			path string
			v    any
		}{
			{pw.layout.Data("product.json"), p},
			{pw.layout.Data("images", "images.json"), nonNil(p.Images)},
			{pw.layout.Data("variants", "variants.json"), nonNil(p.Variants)},
			{pw.layout.Data("reviews", "reviews.json"), nonNil(p.Reviews)},
		}
		for _, f := range files {
			if err := WriteJSONFile(f.path, f.v); err != nil {
				return fmt.Errorf("product files: %w", err)
			}
		}
		pw.written = true
	}
	return nil
}

func (pw *ProductFileWriter) Close() error {
	return nil
}

// Validate requires product.json once a product has been written.
func (pw *ProductFileWriter) Validate() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if !pw.written {
		return nil
	}
	return validateNonEmpty(pw.layout.Data("product.json"))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// NewProductWriter writes the product files and exports/product.csv.
func NewProductWriter(l Layout) (*MultiWriter[*models.Product], error) {
	csvWriter, err := NewCSVWriter(l.Exports("product.csv"), productHeader, productRow)
	if err != nil {
		return nil, err
	}
	return NewMultiWriter[*models.Product](NewProductFileWriter(l), csvWriter), nil
}

// WriteSchema writes a JSON Schema document under schemas/.
func WriteSchema(l Layout, name string, schema map[string]any) error {
	return WriteJSONFile(l.Schemas(name), schema)
}

// WriteReport writes the run statistics to data/report.json.
func WriteReport(l Layout, stats *models.RunStats) error {
	return WriteJSONFile(l.Report(), stats)
}
