package pipeline

import (
	"errors"
	"fmt"
	"sync"
)

// MultiWriter fans every batch out to several writers.
type MultiWriter[T any] struct {
	writers []OutputWriter[T]
	mu      sync.Mutex
}

// NewMultiWriter combines writers. They are written and closed in order.
func NewMultiWriter[T any](writers ...OutputWriter[T]) *MultiWriter[T] {
	return &MultiWriter[T]{writers: writers}
}

// Write stops at the first failing writer.
func (mw *MultiWriter[T]) Write(records []T) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	for i, w := range mw.writers {
		if err := w.Write(records); err != nil {
			return fmt.Errorf("writer %d: %w", i, err)
		}
	}
	return nil
}

// Close closes every writer and joins their errors.
func (mw *MultiWriter[T]) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	var errs []error
	for i, w := range mw.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Validate validates every writer and joins their errors.
func (mw *MultiWriter[T]) Validate() error {
	var errs []error
	for i, w := range mw.writers {
		if err := w.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("validate writer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
