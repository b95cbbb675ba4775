package models

import (
	"strconv"
	"strings"
	"time"
)

// RawListing is an unvalidated record exactly as the external collector
// emitted it. Keys and value types are not trusted; only the normalizer reads it.
type RawListing map[string]any

// Has reports whether key is present with a non-null value.
func (r RawListing) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// String returns the value for key rendered as text. Numbers are formatted
// without exponent so that "250000" and 250000 read the same.
func (r RawListing) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Float returns the value for key when it is already numeric.
func (r RawListing) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// NormalizedListing is a validated listing ready for caching and enrichment.
type NormalizedListing struct {
	ID           string    `json:"id"`
	Address      string    `json:"address"`
	Postcode     string    `json:"postcode,omitempty"`
	Price        int       `json:"price"`
	Bedrooms     int       `json:"bedrooms"`
	Bathrooms    *int      `json:"bathrooms,omitempty"`
	ImageURL     string    `json:"imageUrl"`
	SourceURL    string    `json:"sourceUrl"`
	City         string    `json:"city"`
	CollectedAt  time.Time `json:"collectedAt"`
	WithinBudget bool      `json:"withinBudget"`
	// Synthetic marks generated substitute listings. Collected listings are
	// always false; the UI must disclose anything set to true.
	Synthetic bool `json:"synthetic"`

	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Description string   `json:"description,omitempty"`
	AreaSqm     *int     `json:"areaSqm,omitempty"`
}

// FinancialProfile holds the investment metrics derived for one listing.
// Ratios (yields, roi) are fractions, not percentages.
type FinancialProfile struct {
	LHAWeekly          float64 `json:"lhaWeekly"`
	MonthlyRent        float64 `json:"monthlyRent"`
	AnnualRent         float64 `json:"annualRent"`
	GrossYield         float64 `json:"grossYield"`
	NetYield           float64 `json:"netYield"`
	ROI                float64 `json:"roi"`
	PaybackYears       float64 `json:"paybackYears"`
	MonthlyCashflow    float64 `json:"monthlyCashflow"`
	DSCR               float64 `json:"dscr"`
	StampDuty          float64 `json:"stampDuty"`
	RefurbCost         float64 `json:"refurbCost"`
	TotalInvested      float64 `json:"totalInvested"`
	InvestmentRequired float64 `json:"investmentRequired"`
	ProfitabilityScore string  `json:"profitabilityScore"`
}

// EnrichedListing is the unit returned to callers.
type EnrichedListing struct {
	NormalizedListing
	FinancialProfile
}

// CacheEntry is one persisted batch of collected listings. Entries are only
// ever replaced whole.
type CacheEntry struct {
	Fingerprint string              `json:"searchHash"`
	CollectedAt time.Time           `json:"lastCollectedAt"`
	Listings    []NormalizedListing `json:"listings"`
}

// City returns the city the entry was collected for, or "" when empty.
func (e CacheEntry) City() string {
	if len(e.Listings) == 0 {
		return ""
	}
	return e.Listings[0].City
}
