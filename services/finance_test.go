package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hmo-finder/models"
)

func TestEnrichScrapedPolicy(t *testing.T) {
	got := Enrich(FinanceInputs{Price: 200000, Bedrooms: 5, City: "Liverpool"}, ScrapedPolicy(15000))

	assert.Equal(t, 122.0, got.LHAWeekly)
	assert.InDelta(t, 2641.30, got.MonthlyRent, 0.01)
	assert.InDelta(t, 31695.60, got.AnnualRent, 0.01)
	assert.InDelta(t, 6000, got.StampDuty, 0.01)
	assert.InDelta(t, 75000, got.RefurbCost, 0.01)
	assert.InDelta(t, 281000, got.TotalInvested, 0.01)
	assert.InDelta(t, 131000, got.InvestmentRequired, 0.01)
	assert.InDelta(t, 0.1128, got.GrossYield, 0.0001)
	assert.InDelta(t, 0.0846, got.NetYield, 0.0001)
	assert.InDelta(t, 0.1815, got.ROI, 0.0001)
	assert.InDelta(t, 5.51, got.PaybackYears, 0.01)
	assert.InDelta(t, 1605.98, got.MonthlyCashflow, 0.011)
	assert.InDelta(t, 5.28, got.DSCR, 0.01)
	assert.Equal(t, "High", got.ProfitabilityScore)
}

func TestEnrichSyntheticPolicy(t *testing.T) {
	got := Enrich(FinanceInputs{Price: 300000, Bedrooms: 4, City: "Leeds", AreaSqm: 100}, SyntheticPolicy())

	assert.Equal(t, 115.0, got.LHAWeekly)
	assert.InDelta(t, 1991.80, got.MonthlyRent, 0.01)
	assert.InDelta(t, 15000, got.StampDuty, 0.01)
	assert.InDelta(t, 25000, got.RefurbCost, 0.01)
	assert.InDelta(t, 344500, got.TotalInvested, 0.01)
	assert.InDelta(t, 119500, got.InvestmentRequired, 0.01)
	assert.InDelta(t, 0.0797, got.GrossYield, 0.0001)
	assert.InDelta(t, 0.0637, got.NetYield, 0.0001)
	assert.InDelta(t, 0.1600, got.ROI, 0.0001)
	assert.InDelta(t, 6.25, got.PaybackYears, 0.01)
	assert.InDelta(t, 562.19, got.MonthlyCashflow, 0.011)
	assert.InDelta(t, 1.55, got.DSCR, 0.01)
	assert.Equal(t, "High", got.ProfitabilityScore)
}

func TestEnrichSyntheticWithoutAreaFallsBackToPerRoom(t *testing.T) {
	got := Enrich(FinanceInputs{Price: 300000, Bedrooms: 4, City: "Leeds"}, SyntheticPolicy())
	assert.InDelta(t, 60000, got.RefurbCost, 0.01)
}

func TestEnrichUnknownCityUsesDefaultRate(t *testing.T) {
	got := Enrich(FinanceInputs{Price: 150000, Bedrooms: 3, City: "Atlantis"}, ScrapedPolicy(0))
	assert.Equal(t, 110.0, got.LHAWeekly)
	assert.InDelta(t, 45000, got.RefurbCost, 0.01)
}

func TestEnrichIsDeterministic(t *testing.T) {
	in := FinanceInputs{Price: 245000, Bedrooms: 6, City: "Manchester"}
	a := Enrich(in, ScrapedPolicy(15000))
	b := Enrich(in, ScrapedPolicy(15000))
	assert.Equal(t, a, b)
}

func TestEnrichZeroPriceDoesNotDivideByZero(t *testing.T) {
	got := Enrich(FinanceInputs{Price: 0, Bedrooms: 0, City: "Hull"}, SyntheticPolicy())
	assert.Equal(t, 0.0, got.GrossYield)
	assert.Equal(t, 0.0, got.DSCR)
}

func TestProfitabilityScore(t *testing.T) {
	tests := []struct {
		roi  float64
		want string
	}{
		{0.20, "High"},
		{0.15, "High"},
		{0.1499, "Medium"},
		{0.08, "Medium"},
		{0.0799, "Low"},
		{-0.1, "Low"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProfitabilityScore(tt.roi), "roi %.4f", tt.roi)
	}
}

func TestEnrichListingUsesArea(t *testing.T) {
	area := 120
	l := models.NormalizedListing{Price: 250000, Bedrooms: 5, City: "Derby", AreaSqm: &area}
	got := EnrichListing(l, SyntheticPolicy())
	assert.InDelta(t, 30000, got.RefurbCost, 0.01)
	assert.Equal(t, l.Address, got.Address)
}
