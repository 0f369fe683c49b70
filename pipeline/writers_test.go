package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/go-page-scraper/models"
	"github.com/aluiziolira/go-page-scraper/parser"
)

func sampleItem() *models.Item {
	return &models.Item{
		Title:       "Test Item",
		URL:         "http://example.test/item/1",
		Description: "A test item, with a comma",
		Timestamp:   time.Date(2025, 11, 4, 13, 9, 13, 0, time.UTC),
		Tags:        []string{"news", "tech"},
		Metadata:    models.ItemMetadata{Source: "example.test", Author: "Jane"},
	}
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exports", "items.csv")

	writer, err := NewCSVWriter(path, itemHeader, itemRow)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := writer.Write([]*models.Item{sampleItem()}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	if records[0][0] != "title" || records[0][1] != "url" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][2] != "A test item, with a comma" || records[1][6] != "news|tech" {
		t.Fatalf("unexpected row: %v", records[1])
	}
}

func TestItemWriterLayout(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	writer, err := NewItemWriter(l)
	if err != nil {
		t.Fatalf("create item writer: %v", err)
	}

	second := sampleItem()
	second.URL = "http://example.test/item/2"
	if err := writer.Write([]*models.Item{sampleItem(), second}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	data, err := os.ReadFile(l.Data("items.json"))
	if err != nil {
		t.Fatalf("read items.json: %v", err)
	}
	var items []models.Item
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("decode items.json: %v", err)
	}
	if len(items) != 2 || items[1].URL != second.URL {
		t.Fatalf("items.json = %+v", items)
	}

	for _, name := range []string{"item_1.json", "item_2.json"} {
		if _, err := os.Stat(l.Data("items", name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(l.Exports("items.csv")); err != nil {
		t.Fatalf("missing items.csv: %v", err)
	}
}

func TestEmptyItemWriterWritesEmptyArray(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	writer, err := NewItemWriter(l)
	if err != nil {
		t.Fatalf("create item writer: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(l.Data("items.json"))
	if err != nil {
		t.Fatalf("read items.json: %v", err)
	}
	if string(data) != "[]\n" {
		t.Fatalf("items.json = %q, want empty array", data)
	}
}

func TestProductWriterLayout(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	writer, err := NewProductWriter(l)
	if err != nil {
		t.Fatalf("create product writer: %v", err)
	}

	product := &models.Product{
		Title:  "Widget",
		URL:    "https://shop.example.com/widget",
		Price:  parser.ParsePrice("$50 $25", ""),
		Images: []models.Image{{URL: "https://shop.example.com/a.jpg", Alt: "front"}},
		Stock:  parser.ParseStock("Only 3 left", true),
		Metadata: models.ProductMetadata{
			SKU:       "W-1",
			Source:    "shop.example.com",
			ScrapedAt: time.Date(2025, 11, 4, 13, 0, 0, 0, time.UTC),
		},
	}
	if err := writer.Write([]*models.Product{product}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	var decoded models.Product
	data, err := os.ReadFile(l.Data("product.json"))
	if err != nil {
		t.Fatalf("read product.json: %v", err)
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode product.json: %v", err)
	}
	if decoded.Price.Amount != 25 || decoded.Stock.Level == nil || decoded.Stock.Level.String() != "3" {
		t.Fatalf("decoded product = %+v", decoded)
	}

	// Empty lists are written as [] rather than null.
	reviews, err := os.ReadFile(l.Data("reviews", "reviews.json"))
	if err != nil {
		t.Fatalf("read reviews.json: %v", err)
	}
	if string(reviews) != "[]\n" {
		t.Fatalf("reviews.json = %q", reviews)
	}

	f, err := os.Open(l.Exports("product.csv"))
	if err != nil {
		t.Fatalf("open product.csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read product.csv: %v", err)
	}
	if len(records) != 2 || records[1][2] != "25" || records[1][4] != "50" || records[1][5] != "50" {
		t.Fatalf("product.csv = %v", records)
	}
}

func TestWriteSchemaAndReport(t *testing.T) {
	l := Layout{Root: t.TempDir()}
	if err := WriteSchema(l, "schema.json", parser.ItemSchema); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	stats := &models.RunStats{RunID: "run-1", Kind: "content", ItemsScraped: 3}
	if err := WriteReport(l, stats); err != nil {
		t.Fatalf("write report: %v", err)
	}

	var report map[string]any
	data, err := os.ReadFile(l.Report())
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report["run_id"] != "run-1" || report["items_scraped"] != float64(3) {
		t.Fatalf("report = %v", report)
	}
	if _, err := os.Stat(l.Schemas("schema.json")); err != nil {
		t.Fatalf("missing schema: %v", err)
	}
}
