package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"hmo-finder/models"
)

func encodeEntries(entries map[string]models.CacheEntry) ([]byte, error) {
	if entries == nil {
		entries = map[string]models.CacheEntry{}
	}
	return json.MarshalIndent(entries, "", "  ")
}

func decodeEntries(data []byte) (map[string]models.CacheEntry, error) {
	entries := make(map[string]models.CacheEntry)
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// FilePersister keeps the cache as one JSON document on local disk.
type FilePersister struct {
	path string
}

// NewFilePersister stores the cache at path. Intermediate directories are
// created on the first save.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Load returns an empty map when the file does not exist yet.
func (p *FilePersister) Load(_ context.Context) (map[string]models.CacheEntry, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]models.CacheEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache file: read %q: %w", p.path, err)
	}
	entries, err := decodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("cache file: decode %q: %w", p.path, err)
	}
	return entries, nil
}

// Save writes to a temporary file and renames it over the old one, so a crash
// mid-write never leaves a truncated cache behind.
func (p *FilePersister) Save(_ context.Context, entries map[string]models.CacheEntry) error {
	data, err := encodeEntries(entries)
	if err != nil {
		return fmt.Errorf("cache file: encode: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cache file: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache file: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache file: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache file: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache file: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("cache file: rename: %w", err)
	}
	return nil
}

// MemoryPersister holds the encoded cache in memory. Useful in tests and for
// runs that should leave nothing on disk.
type MemoryPersister struct {
	mu    sync.Mutex
	data  []byte
	saves int
	// Err, when set, is returned by every Load and Save.
	Err error
}

// NewMemoryPersister returns an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) Load(_ context.Context) (map[string]models.CacheEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	return decodeEntries(p.data)
}

func (p *MemoryPersister) Save(_ context.Context, entries map[string]models.CacheEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	data, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	p.data = data
	p.saves++
	return nil
}

// Saves reports how many successful saves have happened.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

// Raw returns the last saved document.
func (p *MemoryPersister) Raw() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.data...)
}
