package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [card...]",
	Short: "Resolve card names and print the canonical cards",
	Long: `List resolves every requested card against the catalog (through the
local cache) and prints the canonical names.

Cards can be given as arguments ("4x Lightning Bolt (M10)"), read from a list
file with --input, scraped from a page with --url, or piped on stdin.`,
	Example: `  scrycache list "Black Lotus" "Delver of Secrets (ISD)" --with-block
  scrycache list -i deck.txt --json -o cards.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.List(cmd.Context(), inputFromFlags(cmd, args), listOptionsFromFlags(cmd)); err != nil {
			return fmt.Errorf("list failed: %w", err)
		}
		return nil
	},
}

func init() {
	addInputFlags(listCmd)
	addListFlags(listCmd)
	rootCmd.AddCommand(listCmd)
}
