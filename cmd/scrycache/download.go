package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/scrycache/internal/app"
)

var downloadCmd = &cobra.Command{
	Use:   "download [card...]",
	Short: "Download card images",
	Long: `Download resolves every requested card and writes its image to the
output directory. Double faced cards get a second ".back" image.

When a Discord webhook is configured (discord_webhook_url) a summary of the
run is posted to it.`,
	Example: `  scrycache download -i deck.txt -o ./images --manifest ./images/manifest.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if url, _ := cmd.Flags().GetString("webhook"); url != "" {
			viper.Set("discord_webhook_url", url)
		}

		application, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer application.Close()

		output, _ := cmd.Flags().GetString("output")
		manifest, _ := cmd.Flags().GetString("manifest")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		stats, err := application.Download(cmd.Context(), inputFromFlags(cmd, args), app.DownloadOptions{
			Output:   output,
			Manifest: manifest,
			DryRun:   dryRun,
		})
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}
		if stats.NotFound > 0 {
			return fmt.Errorf("%d cards not found", stats.NotFound)
		}
		return nil
	},
}

func init() {
	addInputFlags(downloadCmd)
	downloadCmd.Flags().StringP("output", "o", ".", "the output directory")
	downloadCmd.Flags().String("manifest", "", "write a YAML manifest of the run to this file")
	downloadCmd.Flags().Bool("dry-run", false, "report what would be downloaded without network or file writes")
	downloadCmd.Flags().String("webhook", "", "Discord webhook URL for the run summary")
	rootCmd.AddCommand(downloadCmd)
}
