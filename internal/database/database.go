package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/scrycache/internal/domain"
	_ "modernc.org/sqlite"
)

// pragmas applied to every connection before the schema is checked
var pragmas = []string{
	`PRAGMA journal_mode = wal;`,
	`PRAGMA synchronous = normal;`,
}

// DB is the SQLite index kept next to the card cache
type DB struct {
	handler  *sql.DB
	log      zerolog.Logger
	lock     sync.Mutex
	squirrel sq.StatementBuilderType
}

// NewDB opens the index in the cache root dir, creating it on first use.
func NewDB(ctx context.Context, dir string, log zerolog.Logger) (*DB, error) {
	dsn := filepath.Join(dir, string(domain.IndexFile)) + "?_pragma=busy_timeout%3d1000"

	handler, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open cache index")
	}

	db := &DB{
		handler:  handler,
		log:      log.With().Str("module", "database").Logger(),
		squirrel: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}

	if err := db.setup(ctx); err != nil {
		handler.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) setup(ctx context.Context) error {
	for _, pragma := range pragmas {
		if _, err := db.handler.ExecContext(ctx, pragma); err != nil {
			return errors.Wrapf(err, "unable to apply %q", pragma)
		}
	}

	if err := db.Migrate(ctx); err != nil {
		return errors.Wrap(err, "failed to migrate cache index")
	}

	return nil
}

// SchemaVersion reports the user_version stored in the index file.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := db.handler.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, errors.Wrap(err, "failed to query schema version")
	}
	return version, nil
}

// Migrate applies every entry of migrations past the stored user_version.
func (db *DB) Migrate(ctx context.Context) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	version, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	switch {
	case version == len(migrations):
		return nil
	case version > len(migrations):
		return errors.Errorf("cache index schema version %d is newer than supported %d", version, len(migrations))
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		for i := version; i < len(migrations); i++ {
			db.log.Debug().Int("version", i+1).Msg("upgrading cache index schema")
			if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
				return errors.Wrapf(err, "failed to apply cache index migration %d", i+1)
			}
		}

		// PRAGMA does not take bind parameters
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
			return errors.Wrap(err, "failed to bump schema version")
		}
		return nil
	})
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.handler.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// Close runs the query planner optimisation and releases the file.
func (db *DB) Close() error {
	if _, err := db.handler.Exec(`PRAGMA optimize;`); err != nil {
		db.handler.Close()
		return errors.Wrap(err, "query planner optimization")
	}

	return db.handler.Close()
}
