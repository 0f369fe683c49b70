package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aluiziolira/go-page-scraper/config"
	"github.com/aluiziolira/go-page-scraper/extract"
	"github.com/aluiziolira/go-page-scraper/models"
	"github.com/aluiziolira/go-page-scraper/parser"
	"github.com/aluiziolira/go-page-scraper/pipeline"
)

// ProductScraper extracts a single e-commerce product page.
type ProductScraper struct {
	base
}

// NewProductScraper builds a product scraper for cfg.
func NewProductScraper(cfg *config.Config) *ProductScraper {
	return &ProductScraper{base: newBase(config.KindProduct, cfg)}
}

// Run fetches the page, assembles the product and writes it. The returned
// Result is never nil; err is the run-level failure, if any.
func (s *ProductScraper) Run(ctx context.Context) (*models.Result, error) {
	return s.finish(s.run(ctx))
}

func (s *ProductScraper) run(ctx context.Context) error {
	f, err := s.newFetcher(s.cfg.Options.Fetcher, s.cfg.Options.FetcherOptions())
	if err != nil {
		return fmt.Errorf("start fetcher: %w", err)
	}
	defer closeFetcher(f)

	page, doc, err := s.fetch(ctx, f)
	if err != nil {
		return err
	}

	product := s.assemble(doc, page.URL)
	slog.Info("extracted product",
		slog.String("title", product.Title),
		slog.Float64("price", product.Price.Amount),
		slog.String("currency", product.Price.Currency),
		slog.Int("images", len(product.Images)),
		slog.Int("variants", len(product.Variants)),
		slog.Int("reviews", len(product.Reviews)),
	)

	if err := s.pause(ctx); err != nil {
		return err
	}
	return s.write(product)
}

// assemble builds the product record. Missing fields fall back to zero
// values and are counted as warnings.
func (s *ProductScraper) assemble(doc extract.Document, pageURL string) *models.Product {
	sel := s.cfg.Selectors
	if pageURL == "" {
		pageURL = s.cfg.URL
	}

	title := parser.CleanText(doc.Text(sel.ProductTitle))
	if title == "" {
		title = parser.CleanText(doc.Text(sel.Title))
	}
	if title == "" {
		s.warn("title", "product title selector matched nothing", slog.String("selector", sel.ProductTitle))
	}

	reviews := s.reviews(doc)
	product := &models.Product{
		Title:           title,
		URL:             pageURL,
		Description:     parser.Truncate(parser.CleanText(doc.Text(sel.Description)), parser.DescriptionLimit),
		Price:           s.price(doc),
		Images:          s.images(doc, pageURL),
		Variants:        s.variants(doc),
		Reviews:         reviews,
		Rating:          s.rating(doc, reviews),
		Stock:           s.stock(doc),
		RelatedProducts: s.related(doc, pageURL),
		Metadata: models.ProductMetadata{
			SKU:       s.labelled(doc, sel.SKU, "sku"),
			Brand:     s.labelled(doc, sel.Brand, "brand"),
			Category:  parser.CleanText(doc.Text(sel.Category)),
			Source:    sourceHost(pageURL),
			ScrapedAt: time.Now(),
		},
	}
	return product
}

// textOrContent reads an element's text, falling back to its content
// attribute for microdata <meta> tags.
func textOrContent(doc extract.Document, selector string) string {
	if text := doc.Text(selector); text != "" {
		return text
	}
	return doc.Attr(selector, "content")
}

func (s *ProductScraper) labelled(doc extract.Document, selector, label string) string {
	return parser.StripLabel(textOrContent(doc, selector), label)
}

func (s *ProductScraper) price(doc extract.Document) models.Price {
	sel := s.cfg.Selectors
	currency := s.cfg.Options.Currency

	text := parser.CleanText(textOrContent(doc, sel.Price))
	if text == "" {
		s.warn("price", "price selector matched nothing", slog.String("selector", sel.Price))
	}
	price := parser.ParsePrice(text, currency)

	if original := parser.CleanText(doc.Text(sel.OriginalPrice)); original != "" && original != text {
		price = parser.WithOriginal(price, parser.ParsePrice(original, currency))
	}
	return price
}

// images collects up to MaxImages distinct absolute image URLs. Lazy-loaded
// images carry their URL in data-src.
func (s *ProductScraper) images(doc extract.Document, pageURL string) []models.Image {
	limit := s.cfg.Options.MaxImages
	seen := newURLSet(s.cfg.Options.DedupeMaxSize)

	out := []models.Image{}
	for _, el := range doc.All(s.cfg.Selectors.Images) {
		if len(out) >= limit {
			break
		}
		src := firstNonEmpty(el.Attr("src"), el.Attr("data-src"), el.Attr("data-lazy-src"))
		if strings.HasPrefix(src, "data:") {
			src = firstNonEmpty(el.Attr("data-src"), el.Attr("data-lazy-src"))
		}
		abs := parser.ResolveURL(pageURL, src)
		if abs == "" || !seen.add(abs) {
			continue
		}
		out = append(out, models.Image{URL: abs, Alt: parser.CleanText(el.Attr("alt"))})
	}
	s.stats.AddEntities(entityImages, len(out))
	return out
}

func (s *ProductScraper) variants(doc extract.Document) []models.Variant {
	vs := s.cfg.Selectors.Variant
	currency := s.cfg.Options.Currency

	out := []models.Variant{}
	for _, el := range doc.All(s.cfg.Selectors.Variants) {
		scope := el.Scope()
		name := firstNonEmpty(
			parser.CleanText(scope.Text(vs.Name)),
			el.Attr("data-name"),
			el.Attr("aria-label"),
			el.Attr("title"),
			parser.CleanText(el.Text()),
		)
		if name == "" {
			continue
		}
		v := models.Variant{
			Name:      name,
			Value:     firstNonEmpty(parser.CleanText(scope.Text(vs.Value)), el.Attr("data-value")),
			Available: variantAvailable(el),
			Selected:  variantSelected(el),
		}
		if text := parser.CleanText(scope.Text(vs.Price)); text != "" {
			p := parser.ParsePrice(text, currency)
			v.Price = &p
		}
		out = append(out, v)
	}
	s.stats.AddEntities(entityVariants, len(out))
	return out
}

func variantAvailable(el extract.Element) bool {
	class := strings.ToLower(el.Attr("class"))
	for _, marker := range []string{"disabled", "unavailable", "sold-out", "out-of-stock"} {
		if strings.Contains(class, marker) {
			return false
		}
	}
	if el.Attr("aria-disabled") == "true" || el.Attr("data-available") == "false" {
		return false
	}
	if inStock, matched := parser.ParseStockStatus(el.Attr("title") + " " + el.Text()); matched && !inStock {
		return false
	}
	return true
}

func variantSelected(el extract.Element) bool {
	for _, attr := range []string{"aria-checked", "aria-selected", "aria-pressed", "data-selected"} {
		if el.Attr(attr) == "true" {
			return true
		}
	}
	for _, c := range strings.Fields(strings.ToLower(el.Attr("class"))) {
		if c == "selected" || c == "active" || c == "is-selected" || c == "is-active" {
			return true
		}
	}
	return false
}

// reviews reads up to MaxReviews reviews. Entries without a title or body
// are skipped.
func (s *ProductScraper) reviews(doc extract.Document) []models.Review {
	rs := s.cfg.Selectors.Review
	limit := s.cfg.Options.MaxReviews

	out := []models.Review{}
	for _, el := range doc.All(s.cfg.Selectors.Reviews) {
		if len(out) >= limit {
			break
		}
		scope := el.Scope()
		body := parser.CleanText(scope.Text(rs.Body))
		title := parser.CleanText(scope.Text(rs.Title))
		if body == "" && title == "" {
			s.warn("reviews", "review without title or body skipped")
			continue
		}
		ratingText := firstNonEmpty(
			scope.Text(rs.Rating),
			scope.Attr(rs.Rating, "aria-label"),
			scope.Attr(rs.Rating, "title"),
			scope.Attr(rs.Rating, "data-rating"),
		)
		date := firstNonEmpty(scope.Attr(rs.Date, "datetime"), scope.Text(rs.Date))
		if normalized, ok := parser.NormalizeDate(date); ok {
			date = normalized
		}
		out = append(out, models.Review{
			Author: parser.StripAuthorPrefix(scope.Text(rs.Author)),
			Rating: parser.ParseRating(ratingText),
			Title:  title,
			Body:   body,
			Date:   parser.CleanText(date),
		})
	}
	s.stats.AddEntities(entityReviews, len(out))
	return out
}

// rating reads the aggregate rating. Without an aggregate on the page the
// scraped reviews are averaged instead.
func (s *ProductScraper) rating(doc extract.Document, reviews []models.Review) models.Rating {
	sel := s.cfg.Selectors

	text := firstNonEmpty(
		doc.Text(sel.Rating),
		doc.Attr(sel.Rating, "content"),
		doc.Attr(sel.Rating, "aria-label"),
		doc.Attr(sel.Rating, "title"),
	)

	var rows []string
	for _, el := range doc.All(sel.RatingDistribution) {
		rows = append(rows, parser.CleanText(el.Text()))
	}

	r := models.Rating{
		Average:      parser.ParseRating(text),
		Distribution: parser.ParseRatingDistribution(rows),
	}

	if countText := textOrContent(doc, sel.ReviewCount); countText != "" {
		r.Count = parser.ParseReviewCount(countText)
	} else {
		r.Count = len(reviews)
	}

	if text == "" {
		if len(reviews) == 0 {
			s.warn("rating", "rating selector matched nothing", slog.String("selector", sel.Rating))
			return r
		}
		sum := 0.0
		for _, rv := range reviews {
			sum += rv.Rating
		}
		r.Average = math.Round(sum/float64(len(reviews))*100) / 100
	}
	return r
}

func (s *ProductScraper) stock(doc extract.Document) models.StockStatus {
	text := textOrContent(doc, s.cfg.Selectors.Stock)
	status := parser.ParseStock(text, s.cfg.Options.AssumeInStock)
	if status.Assumed {
		s.warn("stock", "no availability phrase matched, using default",
			slog.String("text", status.Text),
			slog.Bool("in_stock", status.InStock),
		)
	}
	return status
}

func (s *ProductScraper) related(doc extract.Document, pageURL string) []models.RelatedProduct {
	rs := s.cfg.Selectors.Related
	limit := s.cfg.Options.MaxRelatedProducts
	currency := s.cfg.Options.Currency
	seen := newURLSet(s.cfg.Options.DedupeMaxSize)
	seen.add(pageURL)

	var out []models.RelatedProduct
	for _, el := range doc.All(s.cfg.Selectors.RelatedProducts) {
		if len(out) >= limit {
			break
		}
		scope := el.Scope()
		abs := parser.ResolveURL(pageURL, firstNonEmpty(scope.Attr(rs.Link, "href"), el.Attr("href")))
		if abs == "" || !seen.add(abs) {
			continue
		}
		rp := models.RelatedProduct{
			Title: firstNonEmpty(
				parser.CleanText(scope.Text(rs.Title)),
				scope.Attr(rs.Link, "title"),
				parser.CleanText(el.Text()),
			),
			URL: abs,
		}
		if text := parser.CleanText(scope.Text(rs.Price)); text != "" {
			p := parser.ParsePrice(text, currency)
			rp.Price = &p
		}
		img := firstNonEmpty(scope.Attr(rs.Image, "src"), scope.Attr(rs.Image, "data-src"))
		rp.ImageURL = parser.ResolveURL(pageURL, img)
		out = append(out, rp)
	}
	s.stats.AddEntities(entityRelated, len(out))
	return out
}

func (s *ProductScraper) write(product *models.Product) error {
	writer, err := pipeline.NewProductWriter(s.layout)
	if err != nil {
		return fmt.Errorf("create writers: %w", err)
	}
	opts := pipeline.Options[*models.Product]{
		Key:           func(p *models.Product) string { return p.URL },
		Validate:      parser.ValidateProduct,
		BatchSize:     s.cfg.Options.BatchSize,
		DedupeMaxSize: s.cfg.Options.DedupeMaxSize,
	}
	if err := writeRecords(&s.base, writer, opts, []*models.Product{product}); err != nil {
		return err
	}
	if err := pipeline.WriteSchema(s.layout, "product_schema.json", parser.ProductSchema); err != nil {
		return err
	}
	slog.Info("product written", slog.String("output", s.layout.Data("product.json")))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
