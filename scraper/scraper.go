// Package scraper runs a single fetch-extract-write pass against one URL.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-page-scraper/config"
	"github.com/aluiziolira/go-page-scraper/extract"
	"github.com/aluiziolira/go-page-scraper/fetcher"
	"github.com/aluiziolira/go-page-scraper/models"
	"github.com/aluiziolira/go-page-scraper/pipeline"
)

// Runner is a scraper that can be driven by the CLI.
type Runner interface {
	Run(ctx context.Context) (*models.Result, error)
	Stats() *Stats
}

// FetcherFactory builds the fetcher for a run.
type FetcherFactory func(kind string, opts fetcher.Options) (fetcher.Fetcher, error)

// New returns the scraper for cfg's kind.
func New(kind string, cfg *config.Config) (Runner, error) {
	switch kind {
	case config.KindContent:
		return NewContentScraper(cfg), nil
	case config.KindProduct:
		return NewProductScraper(cfg), nil
	default:
		return nil, fmt.Errorf("unknown scraper kind %q", kind)
	}
}

// base holds what both scrapers share.
type base struct {
	kind       string
	cfg        *config.Config
	layout     pipeline.Layout
	stats      *Stats
	newFetcher FetcherFactory
	sleep      func(context.Context, time.Duration) error
}

func newBase(kind string, cfg *config.Config) base {
	return base{
		kind:       kind,
		cfg:        cfg,
		layout:     pipeline.Layout{Root: cfg.OutputDir},
		stats:      NewStats(kind, cfg.URL),
		newFetcher: fetcher.New,
		sleep:      sleepContext,
	}
}

// Stats returns the run counters.
func (b *base) Stats() *Stats {
	return b.stats
}

// fetch loads the target page with f and parses it.
func (b *base) fetch(ctx context.Context, f fetcher.Fetcher) (*fetcher.Page, extract.Document, error) {
	slog.Info("fetching page",
		slog.String("url", b.cfg.URL),
		slog.String("fetcher", f.Type()),
	)

	start := time.Now()
	page, err := f.Fetch(ctx, b.cfg.URL)
	if err != nil {
		b.stats.PageFetched(time.Since(start), 0, err)
		return nil, nil, fmt.Errorf("fetch %s: %w", b.cfg.URL, err)
	}
	b.stats.PageFetched(time.Since(start), page.Bytes, nil)

	doc, err := extract.Parse(page.HTML)
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("page loaded",
		slog.Int("status", page.StatusCode),
		slog.Int64("bytes", page.Bytes),
		slog.Duration("elapsed", time.Since(start)),
	)
	return page, doc, nil
}

// pause sleeps for the configured delay plus random jitter.
func (b *base) pause(ctx context.Context) error {
	d := politeDelay(b.cfg.Options.DelayDuration(), b.cfg.Options.RandomDelayDuration())
	if d <= 0 {
		return nil
	}
	slog.Debug("pausing after extraction", slog.Duration("delay", d))
	return b.sleep(ctx, d)
}

// warn logs an absorbed field-level problem and counts it.
func (b *base) warn(field, msg string, attrs ...any) {
	b.stats.Warning(field)
	slog.Warn(msg, append([]any{slog.String("field", field)}, attrs...)...)
}

// finish records the outcome, writes the report and builds the Result.
// runErr is the run-level failure, if any.
func (b *base) finish(runErr error) (*models.Result, error) {
	if runErr != nil {
		category := fetcher.Classify(runErr)
		b.stats.Error(category)
		slog.Error("scrape failed",
			slog.String("url", b.cfg.URL),
			slog.String("category", category),
			slog.Any("error", runErr),
		)
	}

	stats := b.stats.Finalize()
	if err := pipeline.WriteReport(b.layout, stats); err != nil {
		slog.Error("write report", slog.Any("error", err))
		if runErr == nil {
			runErr = err
		}
	}

	result := &models.Result{
		Success:      runErr == nil,
		ItemsScraped: stats.ItemsScraped,
		Stats:        stats,
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}
	return result, runErr
}

// writeRecords pushes records through a pipeline into writer, closes and
// validates the writer, and copies the pipeline counters into the stats.
func writeRecords[T any](b *base, writer pipeline.OutputWriter[T], opts pipeline.Options[T], records []T) error {
	p, err := pipeline.New(writer, opts)
	if err != nil {
		writer.Close()
		return err
	}
	if err := p.Process(records...); err != nil {
		writer.Close()
		return fmt.Errorf("process records: %w", err)
	}
	if err := p.Close(); err != nil {
		writer.Close()
		return fmt.Errorf("flush records: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writers: %w", err)
	}
	if err := writer.Validate(); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}

	m := p.Metrics()
	b.stats.AddItems(m.Processed)
	for field, n := range m.Violations {
		for range n {
			b.stats.Warning(field)
		}
	}
	if m.Duplicates > 0 {
		slog.Debug("duplicates dropped", slog.Int("count", m.Duplicates))
	}
	return nil
}

func closeFetcher(f fetcher.Fetcher) {
	if err := f.Close(); err != nil {
		slog.Warn("close fetcher", slog.String("fetcher", f.Type()), slog.Any("error", err))
	}
}

func politeDelay(fixed, jitter time.Duration) time.Duration {
	d := fixed
	if jitter > 0 {
		d += rand.N(jitter)
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func sourceHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// urlSet de-duplicates extracted URLs within a run.
type urlSet struct {
	cache *lru.Cache[string, struct{}]
}

func newURLSet(size int) *urlSet {
	if size <= 0 {
		size = 1024
	}
	cache, _ := lru.New[string, struct{}](size)
	return &urlSet{cache: cache}
}

// add reports whether u was new.
func (s *urlSet) add(u string) bool {
	found, _ := s.cache.ContainsOrAdd(u, struct{}{})
	return !found
}
