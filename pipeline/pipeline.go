// Package pipeline validates, de-duplicates and batches records on their way
// to the output writers.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-page-scraper/models"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// OutputWriter defines the interface for data output.
type OutputWriter[T any] interface {
	Write(records []T) error
	Close() error
	Validate() error
}

// Options wire record-specific behaviour into a Pipeline.
type Options[T any] struct {
	// Key identifies a record for de-duplication. Records with an empty key
	// are never treated as duplicates.
	Key func(T) string
	// Validate returns schema violations. Violations are logged and counted;
	// the record is still written.
	Validate      func(T) []models.Violation
	BatchSize     int
	DedupeMaxSize int
}

// Pipeline runs records through validation and de-duplication and writes
// them in batches. It is used from a single goroutine per run.
type Pipeline[T any] struct {
	writer OutputWriter[T]
	opts   Options[T]

	seen  *lru.Cache[string, struct{}]
	batch []T

	mu      sync.Mutex
	closed  bool
	metrics Metrics
}

// Metrics is a snapshot of the pipeline counters.
type Metrics struct {
	Processed  int
	Duplicates int
	Warnings   int
	Violations map[string]int
}

// New builds a pipeline writing to writer.
func New[T any](writer OutputWriter[T], opts Options[T]) (*Pipeline[T], error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.DedupeMaxSize <= 0 {
		opts.DedupeMaxSize = 1024
	}
	seen, err := lru.New[string, struct{}](opts.DedupeMaxSize)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}
	return &Pipeline[T]{
		writer:  writer,
		opts:    opts,
		seen:    seen,
		batch:   make([]T, 0, opts.BatchSize),
		metrics: Metrics{Violations: make(map[string]int)},
	}, nil
}

// Process validates and queues records, flushing full batches.
func (p *Pipeline[T]) Process(records ...T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPipelineClosed
	}

	for _, record := range records {
		if !p.prepare(record) {
			continue
		}
		p.batch = append(p.batch, record)
		if len(p.batch) >= p.opts.BatchSize {
			if err := p.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close flushes the remaining batch. The writer is left open for the caller.
func (p *Pipeline[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.flush()
}

// Metrics returns a snapshot of the internal counters.
func (p *Pipeline[T]) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.metrics
	out.Violations = make(map[string]int, len(p.metrics.Violations))
	for k, v := range p.metrics.Violations {
		out.Violations[k] = v
	}
	return out
}

func (p *Pipeline[T]) prepare(record T) bool {
	key := ""
	if p.opts.Key != nil {
		key = p.opts.Key(record)
	}
	if key != "" {
		if found, _ := p.seen.ContainsOrAdd(key, struct{}{}); found {
			p.metrics.Duplicates++
			slog.Debug("duplicate record skipped", slog.String("key", key))
			return false
		}
	}

	if p.opts.Validate != nil {
		for _, v := range p.opts.Validate(record) {
			p.metrics.Warnings++
			p.metrics.Violations[v.Field]++
			slog.Warn("record failed validation",
				slog.String("key", key),
				slog.String("field", v.Field),
				slog.String("expected", v.Expected),
				slog.String("actual", v.Actual),
			)
		}
	}

	p.metrics.Processed++
	return true
}

func (p *Pipeline[T]) flush() error {
	if len(p.batch) == 0 {
		return nil
	}
	if err := p.writer.Write(p.batch); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	p.batch = p.batch[:0]
	return nil
}
