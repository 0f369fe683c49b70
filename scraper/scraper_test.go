package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/go-page-scraper/config"
	"github.com/aluiziolira/go-page-scraper/fetcher"
	"github.com/aluiziolira/go-page-scraper/models"
)

type fakeFetcher struct {
	html   string
	err    error
	closed atomic.Int32
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetcher.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fetcher.Page{URL: url, HTML: f.html, StatusCode: http.StatusOK, Bytes: int64(len(f.html)), FetchedAt: time.Now()}, nil
}

func (f *fakeFetcher) Close() error {
	f.closed.Add(1)
	return nil
}

func (f *fakeFetcher) Type() string { return "fake" }

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func withFetcher(b *base, f fetcher.Fetcher) {
	b.newFetcher = func(string, fetcher.Options) (fetcher.Fetcher, error) { return f, nil }
}

func contentConfig(t *testing.T) *config.Config {
	cfg := config.DefaultContentConfig()
	cfg.URL = "https://blog.example.com/posts/go-125"
	cfg.Selectors.Categories = ".tags a"
	cfg.Options.Delay = 0
	cfg.Options.RandomDelay = 0
	cfg.OutputDir = t.TempDir()
	return cfg
}

func productConfig(t *testing.T) *config.Config {
	cfg := config.DefaultProductConfig()
	cfg.URL = "https://shop.example.com/p/headphones"
	cfg.Options.Delay = 0
	cfg.Options.MaxImages = 10
	cfg.OutputDir = t.TempDir()
	return cfg
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestContentScraperRun(t *testing.T) {
	cfg := contentConfig(t)
	s := NewContentScraper(cfg)
	ff := &fakeFetcher{html: fixture(t, "article.html")}
	withFetcher(&s.base, ff)

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.EqualValues(t, 1, ff.closed.Load(), "fetcher must be closed")

	var items []models.Item
	readJSON(t, filepath.Join(cfg.OutputDir, "data", "items.json"), &items)
	require.Len(t, items, 1+cfg.Options.MaxLinks)

	first := items[0]
	assert.Equal(t, "Go 1.25 Released", first.Title)
	assert.Equal(t, cfg.URL, first.URL)
	assert.Equal(t, "Jane Doe", first.Metadata.Author)
	assert.Equal(t, "2025-08-12T00:00:00Z", first.Metadata.PublishedDate)
	assert.Equal(t, "blog.example.com", first.Metadata.Source)
	assert.Equal(t, []string{"Go", "Release"}, first.Tags)
	assert.Equal(t, "https://blog.example.com/static/cover.jpg", first.ImageURL)
	assert.True(t, len([]rune(first.Description)) <= 203)
	assert.Contains(t, first.Description, "...")

	var urls []string
	for _, it := range items[1:] {
		urls = append(urls, it.URL)
	}
	assert.Equal(t, []string{
		"https://blog.example.com/t/go",
		"https://blog.example.com/t/release",
		"https://blog.example.com/blog/previous",
		"https://go.dev/doc/",
		"https://blog.example.com/blog/next",
	}, urls)
	assert.Equal(t, noLink, items[5].Title)

	assert.Equal(t, 6, result.ItemsScraped)
	assert.Equal(t, 5, result.Stats.LinksFound)
	assert.Equal(t, 1, result.Stats.PagesVisited)
	assert.Zero(t, result.Stats.Errors)
	assert.False(t, result.Stats.EndTime.IsZero())
	assert.NotEmpty(t, result.Stats.RunID)

	for _, path := range []string{
		"data/items/item_1.json",
		"data/items/item_6.json",
		"exports/items.csv",
		"schemas/schema.json",
		"data/report.json",
	} {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, path))
	}

	var report models.RunStats
	readJSON(t, filepath.Join(cfg.OutputDir, "data", "report.json"), &report)
	assert.Equal(t, result.Stats.RunID, report.RunID)
	assert.Equal(t, "content", report.Kind)
}

func TestContentScraperMissingSelectorsUseDefaults(t *testing.T) {
	cfg := contentConfig(t)
	s := NewContentScraper(cfg)
	withFetcher(&s.base, &fakeFetcher{html: `<html><body><p>nothing here</p></body></html>`})

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	var items []models.Item
	readJSON(t, filepath.Join(cfg.OutputDir, "data", "items.json"), &items)
	require.Len(t, items, 1)
	assert.Equal(t, noTitle, items[0].Title)
	assert.Equal(t, noContent, items[0].Description)
	assert.Equal(t, []string{}, items[0].Tags)
	assert.GreaterOrEqual(t, result.Stats.Warnings, 2)
}

func TestFetchFailureProducesFailedResult(t *testing.T) {
	cfg := contentConfig(t)
	s := NewContentScraper(cfg)
	ff := &fakeFetcher{err: fetcher.ErrNotFound{Err: errors.New("Not Found")}}
	withFetcher(&s.base, ff)

	result, err := s.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, "not_found", fetcher.Classify(err))
	assert.Contains(t, result.Error, "fetch "+cfg.URL)
	assert.Equal(t, 1, result.Stats.Errors)
	assert.Zero(t, result.Stats.PagesVisited)
	assert.EqualValues(t, 1, ff.closed.Load(), "fetcher must be closed on failure")
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "data", "report.json"))
}

func TestFetcherStartFailure(t *testing.T) {
	cfg := productConfig(t)
	s := NewProductScraper(cfg)
	s.newFetcher = func(string, fetcher.Options) (fetcher.Fetcher, error) {
		return nil, fetcher.ErrBrowserLaunch{Err: errors.New("chrome not found")}
	}

	result, err := s.Run(context.Background())
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Stats.Errors)

	count := testutilCounter(t, s.Stats(), "scraper_errors_total", "browser_launch")
	assert.Equal(t, 1.0, count)
}

func TestProductScraperRun(t *testing.T) {
	cfg := productConfig(t)
	s := NewProductScraper(cfg)
	ff := &fakeFetcher{html: fixture(t, "product.html")}
	withFetcher(&s.base, ff)

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.EqualValues(t, 1, ff.closed.Load())

	var p models.Product
	readJSON(t, filepath.Join(cfg.OutputDir, "data", "product.json"), &p)

	assert.Equal(t, "Acme Wireless Headphones", p.Title)
	assert.Equal(t, 79.99, p.Price.Amount)
	assert.Equal(t, "USD", p.Price.Currency)
	assert.True(t, p.Price.Discounted)
	require.NotNil(t, p.Price.OriginalAmount)
	assert.Equal(t, 99.99, *p.Price.OriginalAmount)
	require.NotNil(t, p.Price.DiscountPercentage)
	assert.Equal(t, 20, *p.Price.DiscountPercentage)

	assert.Equal(t, []models.Image{
		{URL: "https://shop.example.com/img/front.jpg", Alt: "Front"},
		{URL: "https://shop.example.com/img/side.jpg", Alt: "Side"},
		{URL: "https://cdn.example.com/back.jpg", Alt: "Back"},
	}, p.Images)

	require.Len(t, p.Variants, 3)
	assert.Equal(t, "Black", p.Variants[0].Name)
	assert.Equal(t, "black", p.Variants[0].Value)
	assert.True(t, p.Variants[0].Selected)
	assert.True(t, p.Variants[0].Available)
	require.NotNil(t, p.Variants[1].Price)
	assert.Equal(t, 84.99, p.Variants[1].Price.Amount)
	assert.False(t, p.Variants[2].Available)

	require.Len(t, p.Reviews, 2)
	assert.Equal(t, "Sam", p.Reviews[0].Author)
	assert.Equal(t, 5.0, p.Reviews[0].Rating)
	assert.Equal(t, "2025-01-05T00:00:00Z", p.Reviews[0].Date)
	assert.Equal(t, 3.0, p.Reviews[1].Rating)

	assert.Equal(t, 4.5, p.Rating.Average)
	assert.Equal(t, 1204, p.Rating.Count)
	assert.Equal(t, map[int]int{5: 70, 4: 20, 1: 10}, p.Rating.Distribution)

	assert.True(t, p.Stock.InStock)
	assert.False(t, p.Stock.Assumed)
	require.NotNil(t, p.Stock.Level)
	assert.Equal(t, "3", p.Stock.Level.String())

	assert.Equal(t, "AC-1000", p.Metadata.SKU)
	assert.Equal(t, "Acme", p.Metadata.Brand)
	assert.Equal(t, "Headphones", p.Metadata.Category)
	assert.Equal(t, "shop.example.com", p.Metadata.Source)

	require.Len(t, p.RelatedProducts, 2)
	assert.Equal(t, "Acme Earbuds", p.RelatedProducts[0].Title)
	assert.Equal(t, "https://shop.example.com/p/earbuds", p.RelatedProducts[0].URL)
	require.NotNil(t, p.RelatedProducts[0].Price)
	assert.Equal(t, 49.0, p.RelatedProducts[0].Price.Amount)
	assert.Nil(t, p.RelatedProducts[1].Price)

	assert.Equal(t, 1, result.ItemsScraped)
	assert.Equal(t, 3, result.Stats.ImagesFound)
	assert.Equal(t, 3, result.Stats.VariantsFound)
	assert.Equal(t, 2, result.Stats.ReviewsFound)
	assert.Equal(t, 2, result.Stats.RelatedFound)

	for _, path := range []string{
		"data/images/images.json",
		"data/variants/variants.json",
		"data/reviews/reviews.json",
		"exports/product.csv",
		"schemas/product_schema.json",
		"data/report.json",
	} {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, path))
	}
}

func TestProductCapsAndAssumedStock(t *testing.T) {
	cfg := productConfig(t)
	cfg.Options.MaxImages = 1
	cfg.Options.MaxReviews = 1
	cfg.Options.MaxRelatedProducts = 1
	cfg.Selectors.Stock = ".no-such-stock"
	cfg.Selectors.Rating = ".no-such-rating"
	cfg.Options.AssumeInStock = false
	s := NewProductScraper(cfg)
	withFetcher(&s.base, &fakeFetcher{html: fixture(t, "product.html")})

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	var p models.Product
	readJSON(t, filepath.Join(cfg.OutputDir, "data", "product.json"), &p)
	assert.Len(t, p.Images, 1)
	assert.Len(t, p.Reviews, 1)
	assert.Len(t, p.RelatedProducts, 1)
	assert.False(t, p.Stock.InStock)
	assert.True(t, p.Stock.Assumed)
	// Without an aggregate the single scraped review is used.
	assert.Equal(t, 5.0, p.Rating.Average)
	assert.Positive(t, result.Stats.Warnings)
}

func TestContentScraperOverHTTP(t *testing.T) {
	cfg := contentConfig(t)
	cfg.Options.Fetcher = fetcher.TypeHTTP

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.URL,
		httpmock.NewStringResponder(http.StatusOK, fixture(t, "article.html")).
			HeaderSet(http.Header{"Content-Type": {"text/html; charset=utf-8"}}))

	s := NewContentScraper(cfg)
	s.newFetcher = func(kind string, opts fetcher.Options) (fetcher.Fetcher, error) {
		assert.Equal(t, fetcher.TypeHTTP, kind)
		f := fetcher.NewHTTPFetcher(opts)
		f.WithTransport(transport)
		return f, nil
	}

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, transport.GetTotalCallCount())
	assert.Positive(t, result.Stats.BytesDownloaded)
}

func TestContentScraperHTTPStatusFailure(t *testing.T) {
	cfg := contentConfig(t)
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.URL, httpmock.NewStringResponder(http.StatusTooManyRequests, ""))

	s := NewContentScraper(cfg)
	s.newFetcher = func(_ string, opts fetcher.Options) (fetcher.Fetcher, error) {
		f := fetcher.NewHTTPFetcher(opts)
		f.WithTransport(transport)
		return f, nil
	}

	result, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "rate_limited", fetcher.Classify(err))
	assert.False(t, result.Success)
}

func TestPauseHonoursContext(t *testing.T) {
	cfg := contentConfig(t)
	cfg.Options.Delay = 60_000
	s := NewContentScraper(cfg)
	withFetcher(&s.base, &fakeFetcher{html: fixture(t, "article.html")})

	ctx, cancel := context.WithCancel(context.Background())
	s.sleep = func(ctx context.Context, d time.Duration) error {
		assert.Equal(t, time.Minute, d)
		cancel()
		return sleepContext(ctx, d)
	}

	result, err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, result.Success)
}

func TestPoliteDelayBounds(t *testing.T) {
	for range 50 {
		d := politeDelay(500*time.Millisecond, 1500*time.Millisecond)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.Less(t, d, 2*time.Second)
	}
	assert.Equal(t, time.Second, politeDelay(time.Second, 0))
}
