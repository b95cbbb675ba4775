package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultCity        = "Liverpool"
	DefaultMinBedrooms = 3
	DefaultMaxPrice    = 400000
	DefaultKeywords    = "HMO"
	DefaultCount       = 12

	MaxCount       = 50
	MaxPriceCap    = 10000000
	MaxMinBedrooms = 15

	// MinMaxPrice is the smallest budget a search runs with.
	MinMaxPrice = 10000
)

// SearchRequest is one user query. Build it once and pass it by value.
type SearchRequest struct {
	City        string `json:"city"`
	MinBedrooms int    `json:"minBedrooms"`
	MaxPrice    int    `json:"maxPrice"`
	Keywords    string `json:"keywords"`
	// Count is the size of a synthetic batch; collected results are not capped.
	Count int `json:"count,omitempty"`
}

// Clamp fills defaults and caps out-of-range fields instead of rejecting them.
// It reports whether any field had to be capped.
func (r SearchRequest) Clamp() (SearchRequest, bool) {
	capped := false

	city := strings.Join(strings.Fields(r.City), " ")
	if city == "" {
		city = DefaultCity
	}
	r.City = cases.Title(language.English).String(strings.ToLower(city))

	if r.MinBedrooms <= 0 {
		r.MinBedrooms = DefaultMinBedrooms
	} else if r.MinBedrooms > MaxMinBedrooms {
		r.MinBedrooms = MaxMinBedrooms
		capped = true
	}

	if r.MaxPrice <= 0 {
		r.MaxPrice = DefaultMaxPrice
	} else if r.MaxPrice > MaxPriceCap {
		r.MaxPrice = MaxPriceCap
		capped = true
	} else if r.MaxPrice < MinMaxPrice {
		r.MaxPrice = MinMaxPrice
		capped = true
	}

	r.Keywords = strings.TrimSpace(r.Keywords)
	if r.Keywords == "" {
		r.Keywords = DefaultKeywords
	}

	if r.Count <= 0 {
		r.Count = DefaultCount
	} else if r.Count > MaxCount {
		r.Count = MaxCount
		capped = true
	}

	return r, capped
}

// Provenance tags where a response batch came from.
type Provenance string

const (
	ProvenanceCollected Provenance = "collected"
	ProvenanceCached    Provenance = "cached"
	ProvenanceFlexible  Provenance = "cached-flexible"
	ProvenanceSynthetic Provenance = "synthetic"
	ProvenanceNone      Provenance = "none"
)

// SearchResult is what Search hands back to its caller.
type SearchResult struct {
	Listings           []EnrichedListing `json:"listings"`
	HasExpandedResults bool              `json:"hasExpandedResults"`
	Provenance         Provenance        `json:"provenance"`
	Fingerprint        string            `json:"fingerprint"`
	// Reason explains a degraded response (fallback taken, or empty result).
	Reason string `json:"reason,omitempty"`
}

// PortfolioReport holds the computed analytics over a set of enriched listings.
type PortfolioReport struct {
	TotalListings     int
	SyntheticListings int
	AveragePrice      float64
	MinPrice          float64
	MaxPrice          float64
	AverageGrossYield float64
	AverageNetYield   float64
	BestROI           *EnrichedListing
	TopByROI          []*EnrichedListing
	ByProfitability   map[string]int
}
