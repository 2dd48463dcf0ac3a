package main

import (
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Print the detected format and the card requests of a list file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Parse(args[0])
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
