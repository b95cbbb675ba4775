package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hmo-finder/config"
	"hmo-finder/utils"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	cfg    *config.Config
	logger *utils.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hmo-finder",
	Short: "Find and score HMO investment properties",
	Long: `hmo-finder collects property listings for a city and budget, normalizes
and de-duplicates them, and scores each one as an HMO investment.

When the collector fails, cached results for related searches are reused, and
as a last resort clearly marked synthetic listings are shown instead.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger = utils.NewLoggerWith(cfg.LogLevel, cfg.LogFormat)
		logger.Debug("[cmd] Profile %s, rate-limit window %s, cache backend %s",
			cfg.Profile, cfg.RateLimitWindow, cfg.CacheBackend)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(clearCacheCmd)
	rootCmd.AddCommand(warmCmd)
	rootCmd.AddCommand(reportCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hmo-finder %s (commit: %s)\n", version, commit)
	},
}

// Execute runs the root command. Interrupts cancel the context, which kills
// any running collector process.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func SetVersionInfo(v, c string) {
	version = v
	commit = c
}
