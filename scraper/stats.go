package scraper

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aluiziolira/go-page-scraper/models"
)

// Entity labels used for sub-record counters.
const (
	entityLinks    = "links"
	entityImages   = "images"
	entityVariants = "variants"
	entityReviews  = "reviews"
	entityRelated  = "related_products"
)

// Stats accumulates the counters of one run and mirrors them into Prometheus
// collectors. It is finalized exactly once.
type Stats struct {
	mu        sync.Mutex
	run       models.RunStats
	metrics   *Metrics
	finalized bool
}

// NewStats starts the clock for a run.
func NewStats(kind, targetURL string) *Stats {
	return &Stats{
		run: models.RunStats{
			RunID:     uuid.NewString(),
			Kind:      kind,
			TargetURL: targetURL,
			StartTime: time.Now(),
		},
		metrics: NewMetrics(kind),
	}
}

// Metrics exposes the run's collectors.
func (s *Stats) Metrics() *Metrics {
	return s.metrics
}

// PageFetched records a fetch attempt.
func (s *Stats) PageFetched(d time.Duration, bytes int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.ObserveFetch(d, err == nil)
	if err != nil {
		return
	}
	s.run.PagesVisited++
	s.run.BytesDownloaded += bytes
	s.metrics.AddBytes(bytes)
}

// AddItems records written records.
func (s *Stats) AddItems(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.ItemsScraped += n
	s.metrics.AddItems(n)
}

// AddEntities records extracted sub-records of the given kind.
func (s *Stats) AddEntities(entity string, n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch entity {
	case entityLinks:
		s.run.LinksFound += n
	case entityImages:
		s.run.ImagesFound += n
	case entityVariants:
		s.run.VariantsFound += n
	case entityReviews:
		s.run.ReviewsFound += n
	case entityRelated:
		s.run.RelatedFound += n
	}
	s.metrics.AddEntities(entity, n)
}

// Warning records a field-level problem that was absorbed.
func (s *Stats) Warning(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.Warnings++
	s.metrics.IncWarning(field)
}

// Error records a run-level error under its category.
func (s *Stats) Error(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.Errors++
	s.metrics.IncError(category)
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() models.RunStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

// Finalize stamps the end time and elapsed seconds. Later calls return the
// same values.
func (s *Stats) Finalize() *models.RunStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finalized {
		s.finalized = true
		s.run.EndTime = time.Now()
		elapsed := s.run.EndTime.Sub(s.run.StartTime)
		s.run.ElapsedSeconds = elapsed.Seconds()
		s.metrics.SetRunDuration(elapsed)
	}
	out := s.run
	return &out
}

// WriteMetricsFile writes the collectors in the node-exporter textfile format.
func (s *Stats) WriteMetricsFile(path string) error {
	if err := prometheus.WriteToTextfile(path, s.metrics.Registry); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}
