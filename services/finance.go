package services

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"hmo-finder/models"
)

const (
	weeksPerMonth    = 4.33
	defaultLHAWeekly = 110.0

	highROI   = 0.15
	mediumROI = 0.08
)

// lhaRates is the weekly shared-accommodation rate per city, keyed lower-case.
var lhaRates = map[string]float64{
	"liverpool":     122,
	"birmingham":    110,
	"manchester":    125,
	"leeds":         115,
	"sheffield":     108,
	"bristol":       140,
	"newcastle":     105,
	"nottingham":    112,
	"leicester":     108,
	"coventry":      102,
	"brighton":      165,
	"cambridge":     180,
	"oxford":        175,
	"reading":       155,
	"portsmouth":    135,
	"southampton":   130,
	"plymouth":      110,
	"derby":         100,
	"hull":          95,
	"preston":       90,
	"blackpool":     85,
	"salford":       118,
	"stockport":     112,
	"wolverhampton": 98,
}

// LHAWeekly returns the weekly room rate for city, or the default for unknown cities.
func LHAWeekly(city string) float64 {
	if rate, ok := lhaRates[strings.ToLower(strings.TrimSpace(city))]; ok {
		return rate
	}
	return defaultLHAWeekly
}

// Policy carries the constants that differ between enrichment call sites.
// There is one set of formulas; a Policy only changes the numbers fed to them.
type Policy struct {
	Name string

	// RentRooms overrides the bedroom count used for rent when > 0.
	RentRooms int

	StampDutyRate     float64
	RenovationPerRoom float64
	// RefurbPerSqm is used instead of RenovationPerRoom when the area is known.
	RefurbPerSqm float64
	BuyingFees   float64

	// YieldOnPrice divides yields by price instead of total invested.
	YieldOnPrice     bool
	ExpenseRetention float64

	DepositRate         float64
	LoanToValue         float64
	MonthlyMortgageRate float64
}

// ScrapedPolicy is applied to collected and cached listings.
func ScrapedPolicy(renovationPerRoom float64) Policy {
	if renovationPerRoom <= 0 {
		renovationPerRoom = 15000
	}
	return Policy{
		Name:                "scraped",
		StampDutyRate:       0.03,
		RenovationPerRoom:   renovationPerRoom,
		ExpenseRetention:    0.75,
		DepositRate:         0.25,
		LoanToValue:         0.75,
		MonthlyMortgageRate: 0.0025,
	}
}

// SyntheticPolicy is applied to generated fallback listings.
func SyntheticPolicy() Policy {
	return Policy{
		Name:                "synthetic",
		StampDutyRate:       0.05,
		RenovationPerRoom:   15000,
		RefurbPerSqm:        250,
		BuyingFees:          4500,
		YieldOnPrice:        true,
		ExpenseRetention:    0.80,
		DepositRate:         0.25,
		LoanToValue:         0.75,
		MonthlyMortgageRate: 0.055 / 12,
	}
}

// FinanceInputs are the listing attributes the model depends on.
type FinanceInputs struct {
	Price    int
	Bedrooms int
	City     string
	AreaSqm  int
}

// Enrich computes the financial profile for one property. It is pure: the
// same inputs and policy always give the same profile.
func Enrich(in FinanceInputs, p Policy) models.FinancialProfile {
	price := float64(in.Price)
	bedrooms := in.Bedrooms
	if bedrooms < 1 {
		bedrooms = 1
	}
	rooms := bedrooms
	if p.RentRooms > 0 {
		rooms = p.RentRooms
	}

	lha := LHAWeekly(in.City)
	monthlyRent := lha * weeksPerMonth * float64(rooms)
	annualRent := monthlyRent * 12

	stampDuty := price * p.StampDutyRate
	refurb := p.RenovationPerRoom * float64(bedrooms)
	if p.RefurbPerSqm > 0 && in.AreaSqm > 0 {
		refurb = p.RefurbPerSqm * float64(in.AreaSqm)
	}
	totalInvested := price + stampDuty + refurb + p.BuyingFees

	yieldBase := totalInvested
	if p.YieldOnPrice {
		yieldBase = price
	}

	netAnnual := annualRent * p.ExpenseRetention
	netMonthly := monthlyRent * p.ExpenseRetention
	investmentRequired := price*p.DepositRate + stampDuty + refurb + p.BuyingFees
	monthlyMortgage := price * p.LoanToValue * p.MonthlyMortgageRate

	roi := safeDiv(netAnnual, investmentRequired)

	return models.FinancialProfile{
		LHAWeekly:          lha,
		MonthlyRent:        round(monthlyRent, 2),
		AnnualRent:         round(annualRent, 2),
		GrossYield:         round(safeDiv(annualRent, yieldBase), 4),
		NetYield:           round(safeDiv(netAnnual, yieldBase), 4),
		ROI:                round(roi, 4),
		PaybackYears:       round(safeDiv(investmentRequired, netAnnual), 2),
		MonthlyCashflow:    round(netMonthly-monthlyMortgage, 2),
		DSCR:               round(safeDiv(netMonthly, monthlyMortgage), 2),
		StampDuty:          round(stampDuty, 2),
		RefurbCost:         round(refurb, 2),
		TotalInvested:      round(totalInvested, 2),
		InvestmentRequired: round(investmentRequired, 2),
		ProfitabilityScore: ProfitabilityScore(roi),
	}
}

// EnrichListing attaches a financial profile to a normalized listing.
func EnrichListing(l models.NormalizedListing, p Policy) models.EnrichedListing {
	in := FinanceInputs{Price: l.Price, Bedrooms: l.Bedrooms, City: l.City}
	if l.AreaSqm != nil {
		in.AreaSqm = *l.AreaSqm
	}
	return models.EnrichedListing{NormalizedListing: l, FinancialProfile: Enrich(in, p)}
}

// EnrichAll enriches every listing with the same policy, keeping order.
func EnrichAll(listings []models.NormalizedListing, p Policy) []models.EnrichedListing {
	out := make([]models.EnrichedListing, 0, len(listings))
	for _, l := range listings {
		out = append(out, EnrichListing(l, p))
	}
	return out
}

// ProfitabilityScore bands an ROI fraction into High, Medium or Low.
func ProfitabilityScore(roi float64) string {
	switch {
	case roi >= highROI:
		return "High"
	case roi >= mediumROI:
		return "Medium"
	default:
		return "Low"
	}
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
