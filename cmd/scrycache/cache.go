package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/varoOP/scrycache/internal/domain"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the local card cache",
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached cards",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		block, _ := cmd.Flags().GetString("block")
		name, _ := cmd.Flags().GetString("name")
		limit, _ := cmd.Flags().GetUint64("limit")

		if err := application.CacheList(cmd.Context(), domain.CardFilter{Block: block, Name: name, Limit: limit}); err != nil {
			return fmt.Errorf("cache ls failed: %w", err)
		}
		return nil
	},
}

func init() {
	cacheLsCmd.Flags().String("block", "", "only cards of this block")
	cacheLsCmd.Flags().String("name", "", "only cards whose name contains this text")
	cacheLsCmd.Flags().Uint64("limit", 0, "maximum number of rows (0 for all)")
	cacheCmd.AddCommand(cacheLsCmd)
	rootCmd.AddCommand(cacheCmd)
}
