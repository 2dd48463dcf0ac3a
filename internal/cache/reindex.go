package cache

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/scrycache/internal/domain"
	"github.com/varoOP/scrycache/pkg/cardname"
)

var blockTokenRe = regexp.MustCompile(`^[A-Z0-9]{1,6}$`)

// ReindexStats summarises a Reindex run
type ReindexStats struct {
	Records int
	Images  int
	Skipped int
	Errors  int
}

// Reindex rebuilds the cache index from the files under the cache directory.
// Files that cannot be read or decoded are logged and counted, not fatal.
func Reindex(ctx context.Context, store *Store, index domain.CacheIndex, log zerolog.Logger) (ReindexStats, error) {
	var stats ReindexStats
	paths := store.Paths()

	log.Info().
		Str("cache_dir", paths.RootDir).
		Msg("Starting cache reindex")

	if err := index.Reset(ctx); err != nil {
		return stats, errors.Wrap(err, "failed to reset index")
	}

	uuids := make(map[string]string)
	err := filepath.Walk(paths.DataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("error accessing file")
			stats.Errors++
			return nil
		}
		if info.IsDir() || filepath.Ext(path) != recordExt {
			return nil
		}

		var payload domain.CardPayload
		found, err := store.ReadRecord(path, &payload)
		if err != nil || !found {
			log.Warn().Err(err).Str("path", path).Msg("failed to read record")
			stats.Errors++
			return nil
		}
		if payload.Name == "" {
			stats.Skipped++
			return nil
		}

		card := domain.NewCardFromPayload(payload)
		sanitized := cardname.Sanitize(card.Name)
		if store.RecordPath(sanitized, card.Block) != path {
			// written for a name or block it does not hold
			log.Warn().Str("path", path).Str("name", card.Name).Str("block", card.Block).Msg("record does not match its path")
			stats.Skipped++
			return nil
		}

		entry := domain.CardIndexEntry{
			SanitizedName:   sanitized,
			Block:           card.BlockKey(),
			Name:            card.Name,
			UUID:            card.UUID,
			SetName:         card.SetName,
			CollectorNumber: card.CollectorNumber,
			DoubleFaced:     card.IsDoubleFaced,
			Path:            path,
			CachedAt:        info.ModTime(),
			LastUsed:        info.ModTime(),
		}
		if err := index.UpsertCard(ctx, entry); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to index record")
			stats.Errors++
			return nil
		}
		uuids[indexKey(sanitized, entry.Block)] = card.UUID

		stats.Records++
		if stats.Records%100 == 0 {
			log.Info().Int("records", stats.Records).Msg("Reindex progress")
		}
		return nil
	})
	if err != nil {
		return stats, errors.Wrap(err, "failed to walk data directory")
	}

	err = filepath.Walk(paths.ImagesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("error accessing file")
			stats.Errors++
			return nil
		}
		if info.IsDir() || filepath.Ext(path) != imageExt {
			return nil
		}

		sanitized, block, face := ParseImageFileName(filepath.Base(path))
		entry := domain.ImageIndexEntry{
			Path:          path,
			SanitizedName: sanitized,
			Name:          cardname.Unsanitize(sanitized),
			Block:         block,
			Face:          face,
			UUID:          uuids[indexKey(sanitized, block)],
			Size:          info.Size(),
			CachedAt:      info.ModTime(),
		}
		if err := index.UpsertImage(ctx, entry); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to index image")
			stats.Errors++
			return nil
		}
		stats.Images++
		return nil
	})
	if err != nil {
		return stats, errors.Wrap(err, "failed to walk images directory")
	}

	log.Info().
		Int("records", stats.Records).
		Int("images", stats.Images).
		Int("skipped", stats.Skipped).
		Int("errors", stats.Errors).
		Msg("Cache reindex complete")

	return stats, nil
}

// ParseImageFileName splits an image file name back into the sanitized card
// name, block and face it was built from.
func ParseImageFileName(base string) (sanitizedName, block, face string) {
	stem := strings.TrimSuffix(base, imageExt)
	face = domain.FaceFront

	if rest, ok := strings.CutSuffix(stem, "."+domain.FaceBack); ok {
		stem = rest
		face = domain.FaceBack
	}
	if i := strings.LastIndex(stem, "."); i > 0 && blockTokenRe.MatchString(stem[i+1:]) {
		block = stem[i+1:]
		stem = stem[:i]
	}
	return stem, block, face
}

func indexKey(sanitizedName, block string) string {
	return sanitizedName + "\x00" + block
}
