package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-page-scraper/config"
	"github.com/aluiziolira/go-page-scraper/extract"
	"github.com/aluiziolira/go-page-scraper/models"
	"github.com/aluiziolira/go-page-scraper/parser"
	"github.com/aluiziolira/go-page-scraper/pipeline"
)

const (
	noTitle   = "No Title Found"
	noContent = "No Content Found"
	noLink    = "Link without text"
)

// ContentScraper extracts an article-like main item plus the first few
// outbound links of a page.
type ContentScraper struct {
	base
}

// NewContentScraper builds a content scraper for cfg.
func NewContentScraper(cfg *config.Config) *ContentScraper {
	return &ContentScraper{base: newBase(config.KindContent, cfg)}
}

// Run fetches the page, extracts items and writes them. The returned Result
// is never nil; err is the run-level failure, if any.
func (s *ContentScraper) Run(ctx context.Context) (*models.Result, error) {
	return s.finish(s.run(ctx))
}

func (s *ContentScraper) run(ctx context.Context) error {
	f, err := s.newFetcher(s.cfg.Options.Fetcher, s.cfg.Options.FetcherOptions())
	if err != nil {
		return fmt.Errorf("start fetcher: %w", err)
	}
	defer closeFetcher(f)

	page, doc, err := s.fetch(ctx, f)
	if err != nil {
		return err
	}

	items := s.extractItems(doc, page.URL)
	slog.Info("extracted items", slog.Int("items", len(items)))

	if err := s.pause(ctx); err != nil {
		return err
	}
	return s.write(items)
}

// extractItems builds the main item followed by one item per link.
func (s *ContentScraper) extractItems(doc extract.Document, pageURL string) []*models.Item {
	sel := s.cfg.Selectors
	now := time.Now()
	if pageURL == "" {
		pageURL = s.cfg.URL
	}
	source := sourceHost(pageURL)

	title := parser.CleanText(doc.Text(sel.Title))
	if title == "" {
		s.warn("title", "title selector matched nothing", slog.String("selector", sel.Title))
		title = noTitle
	}

	content := parser.CleanText(doc.Text(sel.Content))
	if content == "" {
		s.warn("content", "content selector matched nothing", slog.String("selector", sel.Content))
		content = noContent
	}

	main := &models.Item{
		Title:       title,
		URL:         pageURL,
		Description: parser.Truncate(content, parser.DescriptionLimit),
		ImageURL:    s.mainImage(doc, pageURL),
		Timestamp:   now,
		Tags:        s.categories(doc),
		Metadata: models.ItemMetadata{
			Source:        source,
			Author:        parser.StripAuthorPrefix(doc.Text(sel.Author)),
			PublishedDate: s.publishedDate(doc),
		},
	}

	items := []*models.Item{main}
	for _, link := range s.links(doc, pageURL) {
		text := link.text
		if text == "" {
			text = noLink
		}
		items = append(items, &models.Item{
			Title:       parser.Truncate(text, parser.DescriptionLimit),
			URL:         link.url,
			Description: "Link found on " + pageURL,
			Timestamp:   now,
			Tags:        []string{"link"},
			Metadata:    models.ItemMetadata{Source: source},
		})
	}
	return items
}

type link struct {
	url  string
	text string
}

// links returns up to MaxLinks distinct absolute links, skipping anchors.
func (s *ContentScraper) links(doc extract.Document, pageURL string) []link {
	limit := s.cfg.Options.MaxLinks
	seen := newURLSet(s.cfg.Options.DedupeMaxSize)
	seen.add(pageURL)

	var out []link
	for _, el := range doc.All(s.cfg.Selectors.Links) {
		if len(out) >= limit {
			break
		}
		abs := parser.ResolveURL(pageURL, el.Attr("href"))
		if abs == "" || !seen.add(abs) {
			continue
		}
		out = append(out, link{url: abs, text: parser.CleanText(el.Text())})
	}
	s.stats.AddEntities(entityLinks, len(out))
	return out
}

func (s *ContentScraper) mainImage(doc extract.Document, pageURL string) string {
	sel := s.cfg.Selectors.Image
	src := doc.Attr(sel, "content")
	if src == "" {
		src = doc.Attr(sel, "src")
	}
	return parser.ResolveURL(pageURL, src)
}

func (s *ContentScraper) publishedDate(doc extract.Document) string {
	sel := s.cfg.Selectors.PublishedDate
	raw := doc.Attr(sel, "datetime")
	if raw == "" {
		raw = doc.Text(sel)
	}
	if raw == "" {
		return ""
	}
	if normalized, ok := parser.NormalizeDate(raw); ok {
		return normalized
	}
	return parser.CleanText(raw)
}

func (s *ContentScraper) categories(doc extract.Document) []string {
	tags := []string{}
	seen := make(map[string]struct{})
	for _, el := range doc.All(s.cfg.Selectors.Categories) {
		tag := parser.CleanText(el.Text())
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func (s *ContentScraper) write(items []*models.Item) error {
	writer, err := pipeline.NewItemWriter(s.layout)
	if err != nil {
		return fmt.Errorf("create writers: %w", err)
	}
	opts := pipeline.Options[*models.Item]{
		Key:           func(i *models.Item) string { return i.URL },
		Validate:      parser.ValidateItem,
		BatchSize:     s.cfg.Options.BatchSize,
		DedupeMaxSize: s.cfg.Options.DedupeMaxSize,
	}
	if err := writeRecords(&s.base, writer, opts, items); err != nil {
		return err
	}
	if err := pipeline.WriteSchema(s.layout, "schema.json", parser.ItemSchema); err != nil {
		return err
	}
	slog.Info("items written", slog.String("output", s.layout.Data("items.json")))
	return nil
}
