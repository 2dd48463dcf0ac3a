package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Print the card list lines found on a web page",
	Long: `Scrape visits a deck page and prints the text lines of every element
matching --selector. The output can be piped into list or download.`,
	Example: `  scrycache scrape https://example.com/decks/burn --selector "ul.deck li" | scrycache download`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		selector, _ := cmd.Flags().GetString("selector")
		if err := application.Scrape(cmd.Context(), args[0], selector); err != nil {
			return fmt.Errorf("scrape failed: %w", err)
		}
		return nil
	},
}

func init() {
	scrapeCmd.Flags().String("selector", "", "CSS selector for the list (default \"pre, textarea\")")
	rootCmd.AddCommand(scrapeCmd)
}
