package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for one run.
type Metrics struct {
	Registry         *prometheus.Registry
	FetchesTotal     *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	BytesDownloaded  prometheus.Counter
	ItemsScraped     prometheus.Counter
	EntitiesFound    *prometheus.CounterVec
	WarningsTotal    *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec
	RunDurationGauge prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
// kind is attached to every series as a constant label.
func NewMetrics(kind string) *Metrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"scraper": kind}

	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "scraper_fetches_total",
			Help:        "Page fetches by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "scraper_fetch_duration_seconds",
			Help:        "Time spent loading the target page.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		},
	)
	bytesDownloaded := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "scraper_bytes_downloaded_total",
			Help:        "Bytes of HTML received.",
			ConstLabels: constLabels,
		},
	)
	itemsScraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "scraper_items_scraped_total",
			Help:        "Records written to the output.",
			ConstLabels: constLabels,
		},
	)
	entities := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "scraper_entities_found_total",
			Help:        "Links, images, variants, reviews and related products extracted.",
			ConstLabels: constLabels,
		},
		[]string{"entity"},
	)
	warnings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "scraper_warnings_total",
			Help:        "Field-level problems absorbed during extraction and validation.",
			ConstLabels: constLabels,
		},
		[]string{"field"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "scraper_errors_total",
			Help:        "Run-level errors by type.",
			ConstLabels: constLabels,
		},
		[]string{"error_type"},
	)
	runDuration := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "scraper_run_duration_seconds",
			Help:        "Wall time of the finished run.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(fetches, fetchDuration, bytesDownloaded, itemsScraped, entities, warnings, errorsTotal, runDuration)

	return &Metrics{
		Registry:         registry,
		FetchesTotal:     fetches,
		FetchDuration:    fetchDuration,
		BytesDownloaded:  bytesDownloaded,
		ItemsScraped:     itemsScraped,
		EntitiesFound:    entities,
		WarningsTotal:    warnings,
		ErrorsTotal:      errorsTotal,
		RunDurationGauge: runDuration,
	}
}

// ObserveFetch records a fetch outcome and its latency.
func (m *Metrics) ObserveFetch(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// AddBytes increments the downloaded bytes counter.
func (m *Metrics) AddBytes(n int64) {
	if m == nil {
		return
	}
	m.BytesDownloaded.Add(float64(n))
}

// AddItems increments the items scraped counter.
func (m *Metrics) AddItems(n int) {
	if m == nil {
		return
	}
	m.ItemsScraped.Add(float64(n))
}

// AddEntities increments the counter for an entity kind.
func (m *Metrics) AddEntities(entity string, n int) {
	if m == nil {
		return
	}
	m.EntitiesFound.WithLabelValues(entity).Add(float64(n))
}

// IncWarning increments the warnings counter for a field.
func (m *Metrics) IncWarning(field string) {
	if m == nil {
		return
	}
	m.WarningsTotal.WithLabelValues(field).Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetRunDuration records the final elapsed time.
func (m *Metrics) SetRunDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDurationGauge.Set(d.Seconds())
}
