package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"hmo-finder/models"
	"hmo-finder/services"
	"hmo-finder/utils"
)

var warmCmd = &cobra.Command{
	Use:   "warm [city...]",
	Short: "Pre-populate the cache for several cities",
	Long: `Warm runs a search for each city (every known city when none are given)
using the --bedrooms, --max-price and --keywords values. Searches run on a
small worker pool with spacing between collector launches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		cities := args
		if len(cities) == 0 {
			cities = services.KnownCities()
		}
		reqs := make([]models.SearchRequest, 0, len(cities))
		for _, c := range cities {
			reqs = append(reqs, models.SearchRequest{
				City:        c,
				MinBedrooms: flagBedrooms,
				MaxPrice:    flagMaxPrice,
				Keywords:    flagKeywords,
			})
		}

		pool := utils.NewWorkerPool(cfg.WarmConcurrency, cfg.WarmSpacing)
		outcomes := warm(cmd.Context(), a.acquirer, reqs, pool, logger)
		printWarmOutcomes(cmd.OutOrStdout(), outcomes)
		return nil
	},
}

func init() {
	warmCmd.Flags().IntVar(&flagBedrooms, "bedrooms", models.DefaultMinBedrooms, "minimum number of bedrooms")
	warmCmd.Flags().IntVar(&flagMaxPrice, "max-price", models.DefaultMaxPrice, "maximum price in pounds")
	warmCmd.Flags().StringVar(&flagKeywords, "keywords", models.DefaultKeywords, "keywords passed to the collector")
}

type searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error)
}

type warmOutcome struct {
	City       string
	Provenance models.Provenance
	Listings   int
	Err        error
}

// warm runs one search per distinct fingerprint. Requests that normalise to
// an already-submitted fingerprint are skipped.
func warm(ctx context.Context, s searcher, reqs []models.SearchRequest, pool *utils.WorkerPool, logger *utils.Logger) []warmOutcome {
	seen := utils.NewKeySet()

	var mu sync.Mutex
	var outcomes []warmOutcome

	for _, req := range reqs {
		req, _ = req.Clamp()
		if !seen.Add(services.Fingerprint(req)) {
			logger.Debug("[warm] Skipping duplicate search for %s", req.City)
			continue
		}
		if ctx.Err() != nil {
			break
		}

		pool.Submit(func() {
			res, err := s.Search(ctx, req)
			out := warmOutcome{City: req.City, Provenance: res.Provenance, Listings: len(res.Listings), Err: err}
			if err != nil {
				logger.Error("[warm] %s: %v", req.City, err)
			} else {
				logger.Info("[warm] %s: %d listings (%s)", req.City, out.Listings, out.Provenance)
			}

			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
		})
	}
	pool.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].City < outcomes[j].City })
	logger.Info("[warm] Done: %d searches, %d distinct", len(reqs), seen.Size())
	return outcomes
}

func printWarmOutcomes(w io.Writer, outcomes []warmOutcome) {
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "%-12s error: %v\n", o.City, o.Err)
			continue
		}
		fmt.Fprintf(w, "%-12s %3d listings  %s\n", o.City, o.Listings, o.Provenance)
	}
}
