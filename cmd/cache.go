package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove every cached search",
	Long:  "Drop all cached searches so the next search runs the collector. The listing archive is not touched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		n := a.cache.Len()
		if err := a.acquirer.ClearCache(cmd.Context()); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached search(es).\n", n)
		return nil
	},
}
