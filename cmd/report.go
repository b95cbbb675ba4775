package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hmo-finder/models"
	"hmo-finder/services"
	"hmo-finder/utils"
)

var flagReportCity string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print portfolio insights over stored listings",
	Long: `Report summarises collected listings: price statistics, average yields,
the best listings by ROI and counts per profitability band. It reads the
listing archive when POSTGRES_DSN is set and the cache otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		var src archiveReader
		if a.archive != nil {
			src = a.archive
		}
		listings, err := reportListings(cmd.Context(), src, a.cache.Entries(), flagReportCity)
		if err != nil {
			return fmt.Errorf("loading listings: %w", err)
		}

		insights := services.NewInsightService(logger)
		enriched := services.EnrichAll(listings, services.ScrapedPolicy(cfg.RenovationPerRoom))
		insights.Print(cmd.OutOrStdout(), insights.Generate(enriched))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&flagReportCity, "city", "", "only include listings for this city")
}

type archiveReader interface {
	FetchByCity(ctx context.Context, city string) ([]models.NormalizedListing, error)
}

// reportListings prefers the archive. Without one it merges cache entries,
// freshest first, keeping the first copy of each listing id.
func reportListings(ctx context.Context, archive archiveReader, entries []models.CacheEntry, city string) ([]models.NormalizedListing, error) {
	if archive != nil {
		return archive.FetchByCity(ctx, city)
	}

	seen := utils.NewKeySet()
	var out []models.NormalizedListing
	for _, e := range entries {
		for _, l := range e.Listings {
			if city != "" && !strings.EqualFold(l.City, city) {
				continue
			}
			if !seen.Add(l.ID) {
				continue
			}
			out = append(out, l)
		}
	}
	return out, nil
}
