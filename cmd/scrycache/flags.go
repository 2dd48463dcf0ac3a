package main

import (
	"github.com/spf13/cobra"
	"github.com/varoOP/scrycache/internal/app"
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "a file of card names (format detected). Without names, --input or --url, lines are read from stdin")
	cmd.Flags().String("url", "", "a web page to scrape the card list from")
	cmd.Flags().String("selector", "", "CSS selector for the list on the --url page (default \"pre, textarea\")")
}

func inputFromFlags(cmd *cobra.Command, args []string) app.Input {
	file, _ := cmd.Flags().GetString("input")
	url, _ := cmd.Flags().GetString("url")
	selector, _ := cmd.Flags().GetString("selector")
	return app.Input{
		Args:     args,
		File:     file,
		URL:      url,
		Selector: selector,
	}
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "output results in JSON format")
	cmd.Flags().Bool("with-block", false, "include the block code, e.g. ZNR for Zendikar Rising")
	cmd.Flags().Bool("with-cn", false, "include the collector number")
	cmd.Flags().Bool("with-set", false, "include the set name, e.g. Zendikar Rising")
	cmd.Flags().StringP("output", "o", "", "write results to this file instead of stdout")
	cmd.Flags().Bool("dry-run", false, "log the catalog requests without sending them")
}

func listOptionsFromFlags(cmd *cobra.Command) app.ListOptions {
	jsonOut, _ := cmd.Flags().GetBool("json")
	withBlock, _ := cmd.Flags().GetBool("with-block")
	withCN, _ := cmd.Flags().GetBool("with-cn")
	withSet, _ := cmd.Flags().GetBool("with-set")
	output, _ := cmd.Flags().GetString("output")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	return app.ListOptions{
		WithBlock: withBlock,
		WithCN:    withCN,
		WithSet:   withSet,
		JSON:      jsonOut,
		Output:    output,
		DryRun:    dryRun,
	}
}
