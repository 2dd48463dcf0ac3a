package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/varoOP/scrycache/internal/cache"
	"github.com/varoOP/scrycache/internal/domain"
	"github.com/varoOP/scrycache/pkg/cardname"
)

// DownloadOptions controls where a download run writes its files
type DownloadOptions struct {
	Output   string
	Manifest string
	DryRun   bool
}

// Download resolves every request in in and writes one PNG per card face to
// the output directory. Double faced cards get a second ".back" image.
func (a *App) Download(ctx context.Context, in Input, opts DownloadOptions) (stats domain.Statistics, err error) {
	defer func() {
		if err != nil {
			a.notifyError(ctx, err)
		}
	}()

	requests, dupes, err := a.Requests(ctx, in)
	if err != nil {
		return stats, err
	}
	stats.Requested = len(requests)
	stats.DupeCount = dupes
	for _, r := range requests {
		stats.TotalCopies += r.Quantity
	}

	output := opts.Output
	if output == "" {
		output = "."
	}

	if opts.DryRun {
		a.dryRunDownload(requests, output)
		return stats, nil
	}

	if err := os.MkdirAll(output, 0755); err != nil {
		return stats, fmt.Errorf("failed to create output directory %s: %w", output, err)
	}

	manifest := &domain.Manifest{}
	if opts.Manifest != "" {
		// earlier runs into the same manifest are kept
		manifest, err = a.manifestRepo.GetManifest(ctx, opts.Manifest)
		if err != nil {
			return stats, fmt.Errorf("failed to load manifest: %w", err)
		}
	}

	for _, r := range requests {
		card, err := a.catalog.ResolveByName(ctx, r.Name, r.Block)
		if err != nil {
			return stats, err
		}
		if card == nil {
			a.log.Error().Str("name", r.Name).Msg("Card not found")
			stats.NotFound++
			stats.NotFoundNames = append(stats.NotFoundNames, r.Name)
			continue
		}

		resolved := card.WithQuantity(r.Quantity)
		stats.Resolved++
		if resolved.IsDoubleFaced {
			stats.DoubleFaced++
		}

		var images []string
		for _, face := range resolved.Faces() {
			path, err := a.downloadFace(ctx, resolved, face, output)
			if err != nil {
				return stats, err
			}
			images = append(images, filepath.Base(path))
			stats.ImagesWritten++
		}
		manifest.Add(resolved, images)
	}

	if opts.Manifest != "" {
		if err := a.manifestRepo.StoreManifest(ctx, opts.Manifest, manifest); err != nil {
			return stats, fmt.Errorf("failed to store manifest: %w", err)
		}
		a.log.Info().Str("path", opts.Manifest).Msg("Stored manifest")
	}

	a.log.Info().
		Int("requested", stats.Requested).
		Int("resolved", stats.Resolved).
		Int("not_found", stats.NotFound).
		Int("double_faced", stats.DoubleFaced).
		Int("images", stats.ImagesWritten).
		Int("dupes", stats.DupeCount).
		Msgf("Downloaded %d cards.", stats.Resolved)

	if notifyErr := a.notificationService.SendSuccess(ctx, stats); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send success notification")
	}

	return stats, nil
}

func (a *App) downloadFace(ctx context.Context, card domain.Card, face, output string) (string, error) {
	data, err := a.catalog.FetchImage(ctx, card, face)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s image of %s: %w", face, card.Name, err)
	}

	path := outputPath(output, card.Name, card.Block, face)
	a.log.Info().Msgf("Saving %q", path)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// dryRunDownload reports what a download would write without touching the
// network or the output directory.
func (a *App) dryRunDownload(requests []domain.Card, output string) {
	for _, r := range requests {
		path := outputPath(output, r.Name, r.Block, domain.FaceFront)
		if _, err := os.Stat(path); err == nil {
			a.log.Info().Msgf("[dryrun] Already downloaded: %s", path)
			continue
		}
		a.log.Info().Msgf("[dryrun] Downloading: %s", path)
	}
}

func outputPath(dir, name, block, face string) string {
	return filepath.Join(dir, cache.ImageFileName(cardname.Slug(name), block, face))
}
