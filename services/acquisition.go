package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"hmo-finder/models"
	"hmo-finder/storage"
	"hmo-finder/utils"
)

// ErrInvariant signals a wiring or state bug, not a data problem. It is the
// only error Search returns.
var ErrInvariant = errors.New("acquisition: internal invariant violated")

var errThrottled = errors.New("collector throttled")

// ListingCollector fetches raw listings for one request from the outside world.
type ListingCollector interface {
	Collect(ctx context.Context, req models.SearchRequest) ([]models.RawListing, error)
}

// ListingCache is the fingerprint-keyed store the acquirer reads and writes.
type ListingCache interface {
	Get(fingerprint string) (models.CacheEntry, bool)
	Put(ctx context.Context, fingerprint string, listings []models.NormalizedListing) models.CacheEntry
	Clear(ctx context.Context)
	FindFlexibleMatch(req models.SearchRequest) ([]models.NormalizedListing, bool)
}

// ListingGenerator produces substitute listings when nothing real is available.
type ListingGenerator interface {
	Generate(req models.SearchRequest, count int) []models.EnrichedListing
}

// AcquirerConfig holds the policy knobs of the acquisition pipeline.
type AcquirerConfig struct {
	// RateLimitWindow is how long a cached search is served before the
	// collector may run again for the same fingerprint.
	RateLimitWindow time.Duration
	// CollectorAttempts above 1 retries failed collections with back-off.
	CollectorAttempts int
	RetryBaseDelay    time.Duration
	// CollectorRatePerMin caps collector launches across all searches; 0 disables it.
	CollectorRatePerMin int
	RenovationPerRoom   float64
}

// Acquirer decides, per search, whether to serve the cache, run the collector,
// reuse a related cached search or fall back to synthetic listings.
type Acquirer struct {
	collector  ListingCollector
	cache      ListingCache
	normalizer *Normalizer
	generator  ListingGenerator
	archiver   storage.ListingArchiver
	recorder   storage.RawRecorder

	window  time.Duration
	limiter *rate.Limiter
	retry   *utils.RetryConfig
	policy  Policy

	logger *utils.Logger
	now    func() time.Time
}

// AcquirerOption configures optional collaborators.
type AcquirerOption func(*Acquirer)

// WithArchiver stores every fresh collection in a long-lived archive.
func WithArchiver(a storage.ListingArchiver) AcquirerOption {
	return func(q *Acquirer) { q.archiver = a }
}

// WithRawRecorder records collector output before normalization.
func WithRawRecorder(r storage.RawRecorder) AcquirerOption {
	return func(q *Acquirer) { q.recorder = r }
}

// WithAcquirerClock replaces time.Now, for tests.
func WithAcquirerClock(now func() time.Time) AcquirerOption {
	return func(q *Acquirer) { q.now = now }
}

// NewAcquirer wires the pipeline together.
func NewAcquirer(cfg AcquirerConfig, collector ListingCollector, cache ListingCache,
	normalizer *Normalizer, generator ListingGenerator, logger *utils.Logger, opts ...AcquirerOption) *Acquirer {

	a := &Acquirer{
		collector:  collector,
		cache:      cache,
		normalizer: normalizer,
		generator:  generator,
		window:     cfg.RateLimitWindow,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.CollectorAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			Logger:      logger,
		},
		policy: ScrapedPolicy(cfg.RenovationPerRoom),
		logger: logger,
		now:    time.Now,
	}
	if a.retry.BaseDelay <= 0 {
		a.retry.BaseDelay = 2 * time.Second
	}
	if cfg.CollectorRatePerMin > 0 {
		a.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.CollectorRatePerMin)), cfg.CollectorRatePerMin)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Search answers one request. Collection and parse failures are absorbed by
// the fallback chain; only ErrInvariant is ever returned.
func (a *Acquirer) Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error) {
	if a.collector == nil || a.cache == nil || a.normalizer == nil || a.generator == nil {
		return models.SearchResult{Provenance: models.ProvenanceNone}, fmt.Errorf("%w: acquirer is missing a collaborator", ErrInvariant)
	}

	req, capped := req.Clamp()
	if capped {
		a.logger.Warn("[acquirer] Request capped to %s, %d+ rooms, max £%d, count %d",
			req.City, req.MinBedrooms, req.MaxPrice, req.Count)
	}
	fp := Fingerprint(req)
	now := a.now()

	if entry, ok := a.cache.Get(fp); ok {
		if age := now.Sub(entry.CollectedAt); age < a.window {
			a.logger.Info("[acquirer] Serving %d cached listings for %s (%s old, window %s)",
				len(entry.Listings), req.City, age.Round(time.Second), a.window)
			return a.result(fp, models.ProvenanceCached, entry.Listings, hasExpanded(entry.Listings), ""), nil
		}
	}

	listings, expanded, err := a.collect(ctx, req, fp)
	if err == nil && len(listings) > 0 {
		a.cache.Put(ctx, fp, listings)
		a.archive(ctx, fp, listings)
		return a.result(fp, models.ProvenanceCollected, listings, expanded, ""), nil
	}

	reason := "collector returned no usable listings"
	switch {
	case errors.Is(err, errThrottled):
		reason = errThrottled.Error()
	case err != nil:
		reason = "collection failed: " + err.Error()
	}
	a.logger.Warn("[acquirer] %s for %s, trying fallbacks", reason, req.City)

	if flex, ok := a.cache.FindFlexibleMatch(req); ok {
		flex = append([]models.NormalizedListing(nil), flex...)
		for i := range flex {
			flex[i].WithinBudget = flex[i].Price <= req.MaxPrice
		}
		return a.result(fp, models.ProvenanceFlexible, flex, false, reason), nil
	}

	generated := a.generator.Generate(req, req.Count)
	if len(generated) == 0 {
		a.logger.Error("[acquirer] Every stage failed for %s", req.City)
		return models.SearchResult{
			Listings:    []models.EnrichedListing{},
			Provenance:  models.ProvenanceNone,
			Fingerprint: fp,
			Reason:      reason + "; synthetic generation unavailable",
		}, nil
	}
	return models.SearchResult{
		Listings:    generated,
		Provenance:  models.ProvenanceSynthetic,
		Fingerprint: fp,
		Reason:      reason + "; showing synthetic listings",
	}, nil
}

// ClearCache drops every cached search. The archive is left untouched.
func (a *Acquirer) ClearCache(ctx context.Context) error {
	if a.cache == nil {
		return fmt.Errorf("%w: acquirer has no cache", ErrInvariant)
	}
	a.cache.Clear(ctx)
	return nil
}

// collect runs the collector (with retries when configured) and normalizes its output.
func (a *Acquirer) collect(ctx context.Context, req models.SearchRequest, fp string) ([]models.NormalizedListing, bool, error) {
	if a.limiter != nil && !a.limiter.Allow() {
		return nil, false, errThrottled
	}

	var raw []models.RawListing
	err := a.retry.Do(ctx, "collect "+req.City, func(ctx context.Context) error {
		r, err := a.collector.Collect(ctx, req)
		if err != nil {
			return err
		}
		raw = r
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if a.recorder != nil {
		if err := a.recorder.RecordRaw(fp, raw, a.now()); err != nil {
			a.logger.Warn("[acquirer] Raw dump failed: %v", err)
		}
	}

	res := a.normalizer.Normalize(raw, req)
	return res.Listings, res.HasExpandedResults, nil
}

func (a *Acquirer) archive(ctx context.Context, fp string, listings []models.NormalizedListing) {
	if a.archiver == nil {
		return
	}
	if err := a.archiver.Archive(ctx, fp, listings); err != nil {
		a.logger.Warn("[acquirer] Archive failed: %v", err)
	}
}

func (a *Acquirer) result(fp string, p models.Provenance, listings []models.NormalizedListing, expanded bool, reason string) models.SearchResult {
	return models.SearchResult{
		Listings:           EnrichAll(listings, a.policy),
		HasExpandedResults: expanded,
		Provenance:         p,
		Fingerprint:        fp,
		Reason:             reason,
	}
}

// hasExpanded recomputes the backfill flag for a stored batch.
func hasExpanded(listings []models.NormalizedListing) bool {
	within, expanded := 0, 0
	for _, l := range listings {
		if l.WithinBudget {
			within++
		} else {
			expanded++
		}
	}
	return expanded > 0 && within < lowResultThreshold
}
