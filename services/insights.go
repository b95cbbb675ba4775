package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"hmo-finder/models"
	"hmo-finder/utils"
)

const topByROI = 5

var profitabilityBands = []string{"High", "Medium", "Low"}

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises a batch of enriched listings.
func (s *InsightService) Generate(listings []models.EnrichedListing) *models.PortfolioReport {
	report := &models.PortfolioReport{
		ByProfitability: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var ranked []*models.EnrichedListing
	var priceTotal, grossTotal, netTotal float64
	priced := 0

	for i := range listings {
		l := &listings[i]
		if IsSynthetic(l.NormalizedListing) {
			report.SyntheticListings++
		}
		report.ByProfitability[l.ProfitabilityScore]++
		grossTotal += l.GrossYield
		netTotal += l.NetYield
		ranked = append(ranked, l)

		if l.Price <= 0 {
			continue
		}
		price := float64(l.Price)
		if priced == 0 || price < report.MinPrice {
			report.MinPrice = price
		}
		if price > report.MaxPrice {
			report.MaxPrice = price
		}
		priceTotal += price
		priced++
	}

	if priced > 0 {
		report.AveragePrice = round(priceTotal/float64(priced), 2)
	}
	report.AverageGrossYield = round(grossTotal/float64(len(listings)), 4)
	report.AverageNetYield = round(netTotal/float64(len(listings)), 4)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ROI > ranked[j].ROI
	})
	report.BestROI = ranked[0]
	if len(ranked) > topByROI {
		ranked = ranked[:topByROI]
	}
	report.TopByROI = ranked

	s.logger.Debug("[insights] Report over %d listings (%d synthetic)", report.TotalListings, report.SyntheticListings)
	return report
}

// Print renders the report for a terminal.
func (s *InsightService) Print(w io.Writer, r *models.PortfolioReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 HMO PORTFOLIO INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total listings         : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Synthetic (not real)   : \033[1m%d\033[0m\n", r.SyntheticListings)
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m£%.0f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m£%.0f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m£%.0f\033[0m\n", r.MaxPrice)
		fmt.Fprintf(w, "  Avg gross yield : %.2f%%\n", r.AverageGrossYield*100)
		fmt.Fprintf(w, "  Avg net yield   : %.2f%%\n", r.AverageNetYield*100)
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	// ── TOP 5 BY ROI ─────────────────────────────────────────────────────
	fmt.Fprintf(w, "\033[1;33m  Top %d by ROI\033[0m\n", topByROI)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopByROI) == 0 {
		fmt.Fprintf(w, "  No listings found\n")
	} else {
		for i, l := range r.TopByROI {
			label := truncate(l.Address, 36)
			if IsSynthetic(l.NormalizedListing) {
				label = truncate("[synthetic] "+l.Address, 36)
			}
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-38s \033[1;32m%5.1f%%\033[0m £%d\n",
				i+1, label, l.ROI*100, l.Price)
		}
	}
	fmt.Fprintln(w)

	// Profitability bands
	fmt.Fprintf(w, "\033[1;33m  Listings by Profitability\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, band := range profitabilityBands {
		count := r.ByProfitability[band]
		fmt.Fprintf(w, "  %-8s %s (%d)\n", band, strings.Repeat("█", count), count)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
