package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/scrycache/internal/domain"
)

// IndexRepo implements domain.CacheIndex interface
type IndexRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewIndexRepo creates a new cache index repository
func NewIndexRepo(log zerolog.Logger, db *DB) domain.CacheIndex {
	return &IndexRepo{
		log: log.With().Str("repo", "index").Logger(),
		db:  db,
	}
}

// UpsertCard inserts or replaces the row for a card record
func (r *IndexRepo) UpsertCard(ctx context.Context, entry domain.CardIndexEntry) error {
	cachedAt := formatTime(entry.CachedAt)
	lastUsed := entry.LastUsed
	if lastUsed.IsZero() {
		lastUsed = entry.CachedAt
	}

	queryBuilder := r.db.squirrel.
		Replace("card_cache").
		Columns("sanitized_name", "block", "name", "uuid", "set_name", "collector_number", "double_faced", "path", "cached_at", "last_used").
		Values(entry.SanitizedName, strings.ToUpper(entry.Block), entry.Name, entry.UUID, entry.SetName, entry.CollectorNumber, entry.DoubleFaced, entry.Path, cachedAt, formatTime(lastUsed))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("UpsertCard")

	_, err = r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// TouchCard bumps last_used for a cached card
func (r *IndexRepo) TouchCard(ctx context.Context, sanitizedName, block string) error {
	queryBuilder := r.db.squirrel.
		Update("card_cache").
		Set("last_used", formatTime(time.Now())).
		Where(sq.Eq{"sanitized_name": sanitizedName, "block": strings.ToUpper(block)})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("TouchCard")

	_, err = r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// ListCards returns indexed cards ordered by name, then block
func (r *IndexRepo) ListCards(ctx context.Context, filter domain.CardFilter) ([]*domain.CardIndexEntry, error) {
	queryBuilder := r.db.squirrel.
		Select("sanitized_name", "block", "name", "uuid", "set_name", "collector_number", "double_faced", "path", "cached_at", "last_used").
		From("card_cache").
		OrderBy("name", "block")

	if filter.Block != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"block": strings.ToUpper(filter.Block)})
	}
	if filter.Name != "" {
		queryBuilder = queryBuilder.Where(sq.Like{"name": "%" + filter.Name + "%"})
	}
	if filter.Limit > 0 {
		queryBuilder = queryBuilder.Limit(filter.Limit)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("ListCards")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var entries []*domain.CardIndexEntry
	for rows.Next() {
		var (
			entry              domain.CardIndexEntry
			cachedAt, lastUsed string
		)
		if err := rows.Scan(&entry.SanitizedName, &entry.Block, &entry.Name, &entry.UUID, &entry.SetName, &entry.CollectorNumber, &entry.DoubleFaced, &entry.Path, &cachedAt, &lastUsed); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		entry.CachedAt = parseTime(cachedAt)
		entry.LastUsed = parseTime(lastUsed)
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return entries, nil
}

// UpsertImage inserts or replaces the row for an image file
func (r *IndexRepo) UpsertImage(ctx context.Context, entry domain.ImageIndexEntry) error {
	queryBuilder := r.db.squirrel.
		Replace("image_cache").
		Columns("path", "sanitized_name", "name", "block", "face", "uuid", "size", "cached_at").
		Values(entry.Path, entry.SanitizedName, entry.Name, strings.ToUpper(entry.Block), entry.Face, entry.UUID, entry.Size, formatTime(entry.CachedAt))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("UpsertImage")

	_, err = r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// CountImages returns the number of indexed image files
func (r *IndexRepo) CountImages(ctx context.Context) (int, error) {
	query, args, err := r.db.squirrel.
		Select("COUNT(*)").
		From("image_cache").
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("CountImages")

	var count int
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "error executing query")
	}

	return count, nil
}

// Reset deletes every row in one transaction
func (r *IndexRepo) Reset(ctx context.Context) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"image_cache", "card_cache"} {
			query, args, err := r.db.squirrel.Delete(table).ToSql()
			if err != nil {
				return errors.Wrap(err, "error building delete query")
			}

			r.log.Trace().Str("query", query).Msg("Reset")

			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return errors.Wrapf(err, "error clearing %s", table)
			}
		}
		return nil
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
