package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/varoOP/scrycache/internal/cache"
	"github.com/varoOP/scrycache/internal/config"
	"github.com/varoOP/scrycache/internal/database"
	"github.com/varoOP/scrycache/internal/decklist"
	"github.com/varoOP/scrycache/internal/dedupe"
	"github.com/varoOP/scrycache/internal/domain"
	"github.com/varoOP/scrycache/internal/notification"
	"github.com/varoOP/scrycache/internal/ratelimit"
	"github.com/varoOP/scrycache/internal/repository"
	"github.com/varoOP/scrycache/internal/scryfall"
)

// App represents the main application with all dependencies initialized
type App struct {
	log                 zerolog.Logger
	config              *domain.Config
	store               *cache.Store
	db                  *database.DB
	index               domain.CacheIndex
	limiter             *ratelimit.Limiter
	catalog             scryfall.Service
	scraper             decklist.Service
	dedupeService       dedupe.Service
	manifestRepo        domain.ManifestRepository
	notificationService domain.NotificationService

	out io.Writer
	in  io.Reader
}

// NewApp creates a new application instance with all dependencies initialized
func NewApp(ctx context.Context, log zerolog.Logger, cfg *domain.Config) (*App, error) {
	store, err := cache.New(cfg.CacheDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	a := &App{
		log:    log.With().Str("module", "app").Logger(),
		config: cfg,
		store:  store,
		out:    os.Stdout,
		in:     os.Stdin,
	}

	if cfg.Index {
		db, err := database.NewDB(ctx, store.Paths().RootDir, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.db = db
		a.index = database.NewIndexRepo(log, db)
	}

	a.limiter = ratelimit.New(config.RateLimit(cfg), log)

	catalog, err := scryfall.NewService(log, cfg, store, a.limiter, a.index)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize catalog client: %w", err)
	}
	a.catalog = catalog

	a.scraper = decklist.NewService(log, cfg)
	a.dedupeService = dedupe.NewService(log)
	a.manifestRepo = repository.NewFileRepository(log)
	a.notificationService = notification.NewService(log, cfg.DiscordWebhookURL)

	return a, nil
}

// SetOutput redirects command output, stdout by default
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

// SetInput replaces the reader used when no other input is given, stdin by default
func (a *App) SetInput(r io.Reader) {
	a.in = r
}

// Close releases the index database
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) notifyError(ctx context.Context, err error) {
	if notifyErr := a.notificationService.SendError(ctx, err); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
	}
}
