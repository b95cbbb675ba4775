package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hmo-finder/models"
)

var (
	flagCity     string
	flagBedrooms int
	flagMaxPrice int
	flagKeywords string
	flagCount    int
	flagJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for HMO listings in a city",
	Long: `Search returns listings for a city within a budget, each scored as an HMO
investment. Results are served from the cache while it is fresh; otherwise the
collector runs. Listings over budget are shown only when few listings fit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.acquirer.Search(cmd.Context(), searchRequestFromFlags())
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		if flagJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&flagCity, "city", models.DefaultCity, "city to search")
	searchCmd.Flags().IntVar(&flagBedrooms, "bedrooms", models.DefaultMinBedrooms, "minimum number of bedrooms")
	searchCmd.Flags().IntVar(&flagMaxPrice, "max-price", models.DefaultMaxPrice, "maximum price in pounds")
	searchCmd.Flags().StringVar(&flagKeywords, "keywords", models.DefaultKeywords, "keywords passed to the collector")
	searchCmd.Flags().IntVar(&flagCount, "count", models.DefaultCount, "number of synthetic listings when falling back")
	searchCmd.Flags().BoolVar(&flagJSON, "json", false, "print the result as JSON")
}

func searchRequestFromFlags() models.SearchRequest {
	return models.SearchRequest{
		City:        flagCity,
		MinBedrooms: flagBedrooms,
		MaxPrice:    flagMaxPrice,
		Keywords:    flagKeywords,
		Count:       flagCount,
	}
}

// printResult writes a human-readable table. Synthetic batches and listings
// over budget are always labelled.
func printResult(w io.Writer, res models.SearchResult) {
	fmt.Fprintf(w, "Source: %s\n", res.Provenance)
	if res.Reason != "" {
		fmt.Fprintf(w, "Note: %s\n", res.Reason)
	}
	if res.Provenance == models.ProvenanceSynthetic {
		fmt.Fprintln(w, "WARNING: these listings are generated examples, not real properties.")
	}
	if len(res.Listings) == 0 {
		fmt.Fprintln(w, "No listings found.")
		return
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tPRICE\tBEDS\tGROSS\tNET\tROI\tSCORE\t")
	for _, l := range res.Listings {
		addr := truncateAddress(l.Address, 44)
		if !l.WithinBudget {
			addr += " (over budget)"
		}
		fmt.Fprintf(tw, "%s\t£%d\t%d\t%.1f%%\t%.1f%%\t%.1f%%\t%s\t\n",
			addr, l.Price, l.Bedrooms, l.GrossYield*100, l.NetYield*100, l.ROI*100, l.ProfitabilityScore)
	}
	_ = tw.Flush()

	if res.HasExpandedResults {
		fmt.Fprintln(w, "\nFew listings matched the budget, so some up to 15% over it are included.")
	}
}

func truncateAddress(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
