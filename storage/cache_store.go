package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"hmo-finder/models"
	"hmo-finder/utils"
)

const (
	// flexibleMinListings is exclusive: a match needs more survivors than this.
	flexibleMinListings = 5
	flexibleMaxListings = 20
)

type entryMap = map[string]models.CacheEntry

// CacheStore maps fingerprints to the last collected batch for that search.
// Reads are lock-free against an immutable snapshot; Put and Clear build a
// new snapshot under a single writer lock and persist it before releasing.
type CacheStore struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[entryMap]

	persister      Persister
	logger         *utils.Logger
	now            func() time.Time
	flexibleMaxAge time.Duration
}

// CacheOption configures a CacheStore.
type CacheOption func(*CacheStore)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(s *CacheStore) { s.now = now }
}

// WithFlexibleMaxAge ignores entries older than d in FindFlexibleMatch.
// Zero means no limit.
func WithFlexibleMaxAge(d time.Duration) CacheOption {
	return func(s *CacheStore) { s.flexibleMaxAge = d }
}

// NewCacheStore creates an empty store. Call Load to read persisted entries.
func NewCacheStore(persister Persister, logger *utils.Logger, opts ...CacheOption) *CacheStore {
	s := &CacheStore{persister: persister, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	empty := entryMap{}
	s.snapshot.Store(&empty)
	return s
}

// Load replaces the in-memory state with the persisted one. Any failure leaves
// the store empty; it is logged and never returned.
func (s *CacheStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Warn("[cache] Could not load persisted cache, starting fresh: %v", err)
		entries = entryMap{}
	}
	for fp, e := range entries {
		if e.Fingerprint == "" {
			e.Fingerprint = fp
			entries[fp] = e
		}
	}
	s.snapshot.Store(&entries)
	s.logger.Info("[cache] Loaded %d cached searches", len(entries))
}

// Get returns the entry stored for fingerprint.
func (s *CacheStore) Get(fingerprint string) (models.CacheEntry, bool) {
	e, ok := (*s.snapshot.Load())[fingerprint]
	return e, ok
}

// Len reports how many searches are cached.
func (s *CacheStore) Len() int {
	return len(*s.snapshot.Load())
}

// Put replaces the entry for fingerprint, stamped with the current time, and
// persists the new state best-effort.
func (s *CacheStore) Put(ctx context.Context, fingerprint string, listings []models.NormalizedListing) models.CacheEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := models.CacheEntry{
		Fingerprint: fingerprint,
		CollectedAt: s.now().UTC(),
		Listings:    append([]models.NormalizedListing(nil), listings...),
	}

	current := *s.snapshot.Load()
	next := make(entryMap, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[fingerprint] = entry
	s.snapshot.Store(&next)

	s.persist(ctx, next)
	s.logger.Info("[cache] Cached %d listings for %s", len(listings), short(fingerprint))
	return entry
}

// Clear drops every entry and persists the empty state.
func (s *CacheStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty := entryMap{}
	s.snapshot.Store(&empty)
	s.persist(ctx, empty)
	s.logger.Info("[cache] Cleared")
}

// Entries returns every cached entry, freshest first.
func (s *CacheStore) Entries() []models.CacheEntry {
	current := *s.snapshot.Load()
	out := make([]models.CacheEntry, 0, len(current))
	for _, e := range current {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CollectedAt.Equal(out[j].CollectedAt) {
			return out[i].Fingerprint < out[j].Fingerprint
		}
		return out[i].CollectedAt.After(out[j].CollectedAt)
	})
	return out
}

// FindFlexibleMatch looks for a cached batch from the same city whose listings,
// re-filtered by req's bedroom and price limits, still leave more than five
// results. Entries are tried freshest first; at most twenty listings return.
func (s *CacheStore) FindFlexibleMatch(req models.SearchRequest) ([]models.NormalizedListing, bool) {
	now := s.now()
	for _, e := range s.Entries() {
		if !strings.EqualFold(e.City(), strings.TrimSpace(req.City)) {
			continue
		}
		if s.flexibleMaxAge > 0 && now.Sub(e.CollectedAt) > s.flexibleMaxAge {
			continue
		}

		var matched []models.NormalizedListing
		for _, l := range e.Listings {
			if l.Bedrooms >= req.MinBedrooms && l.Price <= req.MaxPrice {
				matched = append(matched, l)
			}
		}
		if len(matched) <= flexibleMinListings {
			continue
		}
		if len(matched) > flexibleMaxListings {
			matched = matched[:flexibleMaxListings]
		}
		s.logger.Info("[cache] Flexible match for %s: %d of %d listings from %s (%s old)",
			req.City, len(matched), len(e.Listings), short(e.Fingerprint), now.Sub(e.CollectedAt).Round(time.Second))
		return matched, true
	}
	return nil, false
}

func (s *CacheStore) persist(ctx context.Context, entries entryMap) {
	if err := s.persister.Save(ctx, entries); err != nil {
		s.logger.Error("[cache] Persist failed, keeping in-memory state: %v", err)
	}
}

func short(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}
