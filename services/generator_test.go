package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmo-finder/models"
)

func newTestGenerator(seed uint64) *Generator {
	g := NewGenerator(seed, newTestLogger())
	g.now = func() time.Time { return fixedNow }
	return g
}

func TestGenerateBounds(t *testing.T) {
	g := newTestGenerator(42)
	req := models.SearchRequest{City: "Manchester", MinBedrooms: 4, MaxPrice: 333333}

	got := g.Generate(req, 30)
	require.Len(t, got, 30)

	for _, l := range got {
		assert.True(t, l.Synthetic)
		assert.True(t, IsSynthetic(l.NormalizedListing))
		assert.True(t, strings.HasPrefix(l.SourceURL, "synthetic://hmo/manchester/"), l.SourceURL)
		assert.True(t, l.WithinBudget)
		assert.Equal(t, "Manchester", l.City)
		assert.True(t, strings.HasSuffix(l.Address, ", Manchester"), l.Address)

		assert.GreaterOrEqual(t, l.Bedrooms, 4)
		assert.LessOrEqual(t, l.Bedrooms, 6)
		assert.GreaterOrEqual(t, l.Price, 200000)
		assert.LessOrEqual(t, l.Price, 333000)
		assert.Zero(t, l.Price%1000)

		require.NotNil(t, l.AreaSqm)
		assert.GreaterOrEqual(t, *l.AreaSqm, minSyntheticSqm)
		assert.LessOrEqual(t, *l.AreaSqm, maxSyntheticSqm)
		require.NotNil(t, l.Latitude)
		assert.InDelta(t, 53.4808, *l.Latitude, coordinateJitter)
		require.NotNil(t, l.Longitude)
		assert.InDelta(t, -2.2426, *l.Longitude, coordinateJitter)

		assert.Equal(t, 125.0, l.LHAWeekly)
		assert.Equal(t, *l.AreaSqm*250, int(l.RefurbCost))
		assert.InDelta(t, float64(l.Price)*0.05, l.StampDuty, 0.01)
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	req := models.SearchRequest{City: "Leeds", MinBedrooms: 3, MaxPrice: 250000}

	a := newTestGenerator(7).Generate(req, 10)
	b := newTestGenerator(7).Generate(req, 10)
	assert.Equal(t, a, b)

	c := newTestGenerator(8).Generate(req, 10)
	assert.NotEqual(t, a, c)
}

func TestGenerateUnknownCityUsesDefaultPool(t *testing.T) {
	got := newTestGenerator(1).Generate(models.SearchRequest{City: "truro"}, 5)

	require.Len(t, got, 5)
	for _, l := range got {
		assert.Equal(t, "Truro", l.City)
		assert.True(t, strings.HasSuffix(l.Address, ", Truro"))
		assert.Regexp(t, `^L\d+ \d[A-Z]{2}$`, l.Postcode)
		assert.Equal(t, defaultLHAWeekly, l.LHAWeekly)
	}
}

func TestGenerateCount(t *testing.T) {
	g := newTestGenerator(3)

	assert.Len(t, g.Generate(models.SearchRequest{}, 0), models.DefaultCount)
	assert.Len(t, g.Generate(models.SearchRequest{Count: 5}, 0), 5)
	assert.Len(t, g.Generate(models.SearchRequest{}, 500), models.MaxCount)
}

func TestGenerateTinyBudget(t *testing.T) {
	g := newTestGenerator(3)

	for _, budget := range []int{900, 1500} {
		got := g.Generate(models.SearchRequest{MaxPrice: budget}, 5)
		require.Len(t, got, 5)
		for _, l := range got {
			assert.GreaterOrEqual(t, l.Price, 6000)
			assert.LessOrEqual(t, l.Price, models.MinMaxPrice)
		}
	}
}

func TestKnownCities(t *testing.T) {
	cities := KnownCities()
	assert.Contains(t, cities, "Liverpool")
	assert.Contains(t, cities, "Manchester")
	assert.IsIncreasing(t, cities)
	for _, c := range cities {
		_, ok := lookupCity(c)
		assert.True(t, ok, c)
	}
}
