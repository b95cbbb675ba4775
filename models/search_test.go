package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name   string
		in     SearchRequest
		want   SearchRequest
		capped bool
	}{
		{
			name: "defaults",
			in:   SearchRequest{},
			want: SearchRequest{City: DefaultCity, MinBedrooms: DefaultMinBedrooms, MaxPrice: DefaultMaxPrice, Keywords: DefaultKeywords, Count: DefaultCount},
		},
		{
			name: "city canonicalised",
			in:   SearchRequest{City: "  new   CASTLE ", MinBedrooms: 4, MaxPrice: 250000, Keywords: " hmo ", Count: 5},
			want: SearchRequest{City: "New Castle", MinBedrooms: 4, MaxPrice: 250000, Keywords: "hmo", Count: 5},
		},
		{
			name:   "out of range values are capped",
			in:     SearchRequest{City: "Leeds", MinBedrooms: 40, MaxPrice: 99000000, Count: 500},
			want:   SearchRequest{City: "Leeds", MinBedrooms: MaxMinBedrooms, MaxPrice: MaxPriceCap, Keywords: DefaultKeywords, Count: MaxCount},
			capped: true,
		},
		{
			name:   "tiny budget raised to the floor",
			in:     SearchRequest{City: "Hull", MaxPrice: 500},
			want:   SearchRequest{City: "Hull", MinBedrooms: DefaultMinBedrooms, MaxPrice: MinMaxPrice, Keywords: DefaultKeywords, Count: DefaultCount},
			capped: true,
		},
		{
			name: "negative values fall back to defaults",
			in:   SearchRequest{City: "leeds", MinBedrooms: -1, MaxPrice: -5, Count: -2},
			want: SearchRequest{City: "Leeds", MinBedrooms: DefaultMinBedrooms, MaxPrice: DefaultMaxPrice, Keywords: DefaultKeywords, Count: DefaultCount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, capped := tt.in.Clamp()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.capped, capped)
		})
	}
}

func TestRawListingAccessors(t *testing.T) {
	r := RawListing{"price": float64(250000), "title": "  3 bed  ", "beds": nil, "n": 4}

	assert.Equal(t, "250000", r.String("price"))
	assert.Equal(t, "3 bed", r.String("title"))
	assert.Equal(t, "", r.String("missing"))
	assert.False(t, r.Has("beds"))
	assert.True(t, r.Has("n"))

	f, ok := r.Float("n")
	assert.True(t, ok)
	assert.Equal(t, 4.0, f)
	_, ok = r.Float("title")
	assert.False(t, ok)
}

func TestCacheEntryCity(t *testing.T) {
	assert.Equal(t, "", CacheEntry{}.City())
	assert.Equal(t, "Leeds", CacheEntry{Listings: []NormalizedListing{{City: "Leeds"}}}.City())
}
