package storage

import (
	"context"
	"time"

	"hmo-finder/models"
)

// Persister is the durable backing for the cache: the whole fingerprint map
// is read once at startup and written in full on every change.
type Persister interface {
	Load(ctx context.Context) (map[string]models.CacheEntry, error)
	Save(ctx context.Context, entries map[string]models.CacheEntry) error
}

// ListingArchiver keeps a long-lived record of every collected listing.
type ListingArchiver interface {
	Archive(ctx context.Context, fingerprint string, listings []models.NormalizedListing) error
	Close() error
}

// RawRecorder is the interface for persisting unprocessed collector output.
type RawRecorder interface {
	RecordRaw(fingerprint string, raw []models.RawListing, collectedAt time.Time) error
	Close() error
}
