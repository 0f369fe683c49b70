package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CSVWriter writes records to CSV using a caller-supplied row mapping.
type CSVWriter[T any] struct {
	file   *os.File
	writer *csv.Writer
	row    func(T) []string
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter[T any](filename string, header []string, row func(T) []string) (*CSVWriter[T], error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter[T]{
		file:   f,
		writer: writer,
		row:    row,
	}, nil
}

// Write appends records to the CSV output.
func (cw *CSVWriter[T]) Write(records []T) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, record := range records {
		if err := cw.writer.Write(cw.row(record)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter[T]) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content.
func (cw *CSVWriter[T]) Validate() error {
	info, err := os.Stat(cw.file.Name())
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONArrayWriter collects records and writes them as one indented JSON
// array when closed.
type JSONArrayWriter[T any] struct {
	filename string
	records  []T
	mu       sync.Mutex
}

// NewJSONArrayWriter prepares the target directory.
func NewJSONArrayWriter[T any](filename string) (*JSONArrayWriter[T], error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &JSONArrayWriter[T]{filename: filename, records: []T{}}, nil
}

// Write buffers records.
func (jw *JSONArrayWriter[T]) Write(records []T) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	jw.records = append(jw.records, records...)
	return nil
}

// Close writes the array.
func (jw *JSONArrayWriter[T]) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return WriteJSONFile(jw.filename, jw.records)
}

// Validate ensures the JSON file has data.
func (jw *JSONArrayWriter[T]) Validate() error {
	return validateNonEmpty(jw.filename)
}

// SplitWriter writes every record to its own numbered JSON file.
type SplitWriter[T any] struct {
	dir     string
	pattern string
	count   int
	mu      sync.Mutex
}

// NewSplitWriter writes files named fmt.Sprintf(pattern, n) under dir,
// numbering from 1.
func NewSplitWriter[T any](dir, pattern string) (*SplitWriter[T], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %q: %w", dir, err)
	}
	return &SplitWriter[T]{dir: dir, pattern: pattern}, nil
}

func (sw *SplitWriter[T]) Write(records []T) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	for _, record := range records {
		sw.count++
		name := filepath.Join(sw.dir, fmt.Sprintf(sw.pattern, sw.count))
		if err := WriteJSONFile(name, record); err != nil {
			return err
		}
	}
	return nil
}

func (sw *SplitWriter[T]) Close() error {
	return nil
}

// Validate checks that the first file exists once anything was written.
func (sw *SplitWriter[T]) Validate() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.count == 0 {
		return nil
	}
	return validateNonEmpty(filepath.Join(sw.dir, fmt.Sprintf(sw.pattern, 1)))
}

// WriteJSONFile writes v as indented JSON, creating parent directories.
func WriteJSONFile(filename string, v any) error {
	if err := ensureDir(filename); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(filename), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

func validateNonEmpty(filename string) error {
	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("stat %s: %w", filepath.Base(filename), err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("%s is empty", filepath.Base(filename))
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
