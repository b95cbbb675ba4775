package cmd

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmo-finder/models"
	"hmo-finder/utils"
)

type fakeSearcher struct {
	mu    sync.Mutex
	calls []models.SearchRequest
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, req models.SearchRequest) (models.SearchResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.err != nil {
		return models.SearchResult{Provenance: models.ProvenanceNone}, f.err
	}
	return models.SearchResult{
		Listings:   make([]models.EnrichedListing, 3),
		Provenance: models.ProvenanceCollected,
	}, nil
}

func TestWarmSkipsDuplicateFingerprints(t *testing.T) {
	s := &fakeSearcher{}
	reqs := []models.SearchRequest{
		{City: "Leeds"},
		{City: "  leeds "},
		{City: "Liverpool"},
		{City: "Leeds", MaxPrice: 250000},
	}

	out := warm(context.Background(), s, reqs, utils.NewWorkerPool(2, 0), utils.NewNopLogger())

	assert.Len(t, s.calls, 3)
	require.Len(t, out, 3)
	assert.Equal(t, "Leeds", out[0].City)
	assert.Equal(t, "Liverpool", out[2].City)
	for _, o := range out {
		assert.NoError(t, o.Err)
		assert.Equal(t, 3, o.Listings)
	}
}

func TestWarmReportsErrors(t *testing.T) {
	s := &fakeSearcher{err: errors.New("boom")}
	out := warm(context.Background(), s, []models.SearchRequest{{City: "Hull"}}, utils.NewWorkerPool(1, 0), utils.NewNopLogger())

	require.Len(t, out, 1)
	assert.EqualError(t, out[0].Err, "boom")

	var buf bytes.Buffer
	printWarmOutcomes(&buf, out)
	assert.Contains(t, buf.String(), "error: boom")
}

func TestWarmStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &fakeSearcher{}
	out := warm(ctx, s, []models.SearchRequest{{City: "Hull"}, {City: "Leeds"}}, utils.NewWorkerPool(1, 0), utils.NewNopLogger())
	assert.Empty(t, out)
	assert.Empty(t, s.calls)
}

func TestPrintResultLabelsSyntheticAndExpanded(t *testing.T) {
	res := models.SearchResult{
		Provenance: models.ProvenanceSynthetic,
		Reason:     "collector throttled; showing synthetic listings",
		Listings: []models.EnrichedListing{
			{NormalizedListing: models.NormalizedListing{Address: "1 Test Road, Leeds", Price: 200000, Bedrooms: 4, WithinBudget: true}},
			{NormalizedListing: models.NormalizedListing{Address: "2 Test Road, Leeds", Price: 260000, Bedrooms: 5}},
		},
		HasExpandedResults: true,
	}

	var buf bytes.Buffer
	printResult(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "Source: synthetic")
	assert.Contains(t, out, "collector throttled")
	assert.Contains(t, out, "not real properties")
	assert.Contains(t, out, "2 Test Road, Leeds (over budget)")
	assert.Contains(t, out, "£200000")
	assert.Contains(t, out, "15% over")
}

func TestPrintResultEmpty(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, models.SearchResult{Provenance: models.ProvenanceNone, Reason: "nothing"})
	assert.Contains(t, buf.String(), "No listings found.")
	assert.NotContains(t, buf.String(), "ADDRESS")
}

type fakeArchive struct {
	city string
}

func (f *fakeArchive) FetchByCity(_ context.Context, city string) ([]models.NormalizedListing, error) {
	f.city = city
	return []models.NormalizedListing{{ID: "a", City: "Leeds"}}, nil
}

func TestReportListingsPrefersArchive(t *testing.T) {
	fa := &fakeArchive{}
	got, err := reportListings(context.Background(), fa, nil, "Leeds")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "Leeds", fa.city)
}

func TestReportListingsMergesCacheEntries(t *testing.T) {
	entries := []models.CacheEntry{
		{Listings: []models.NormalizedListing{{ID: "1", City: "Leeds", Price: 210000}, {ID: "2", City: "Leeds"}}},
		{Listings: []models.NormalizedListing{{ID: "1", City: "Leeds", Price: 200000}, {ID: "3", City: "Hull"}}},
	}

	got, err := reportListings(context.Background(), nil, entries, "leeds")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 210000, got[0].Price)

	all, err := reportListings(context.Background(), nil, entries, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTruncateAddress(t *testing.T) {
	assert.Equal(t, "short", truncateAddress("short", 10))
	assert.Equal(t, "abcdefg...", truncateAddress("abcdefghijklmnop", 10))
}
