package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hmo-finder/models"
)

var rawHeader = []string{"fingerprint", "address", "price", "bedrooms", "url", "collected_at"}

// CSVWriter appends raw (unnormalized) collector records to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens the CSV file at path for appending, writing the header
// row when the file is new. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(rawHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &CSVWriter{file: f, writer: w}, nil
}

// RecordRaw appends one row per raw record, exactly as the collector sent it.
func (c *CSVWriter) RecordRaw(fingerprint string, raw []models.RawListing, collectedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stamp := collectedAt.UTC().Format(time.RFC3339)
	for _, r := range raw {
		row := []string{
			fingerprint,
			r.String("address"),
			r.String("price"),
			r.String("bedrooms"),
			r.String("property_url"),
			stamp,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}
