package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog. Does not download anything",
	Long: `Search runs a full-text catalog query and prints every matching card.
Results are never cached.`,
	Example: `  scrycache search "t:wizard c:u" --with-block --with-cn`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		if err := application.Search(cmd.Context(), strings.Join(args, " "), listOptionsFromFlags(cmd)); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return nil
	},
}

func init() {
	addListFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}
