package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the SQLite cache index from the files on disk",
	Long: `Reindex empties the cache index and rebuilds it by walking the data and
images directories of the cache. Use it after copying or pruning cache files
by hand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		stats, err := application.Reindex(cmd.Context())
		if err != nil {
			return fmt.Errorf("reindex failed: %w", err)
		}

		fmt.Printf("Reindexed %d records and %d images", stats.Records, stats.Images)
		if stats.Skipped > 0 || stats.Errors > 0 {
			fmt.Printf(" (%d skipped, %d unreadable)", stats.Skipped, stats.Errors)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
