// Package app builds every service once at startup and hands them to the
// HTTP server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/eyesofazrael/azrael/pkg/assets"
	"github.com/eyesofazrael/azrael/pkg/audit"
	sqlitecache "github.com/eyesofazrael/azrael/pkg/cache/sqlite"
	"github.com/eyesofazrael/azrael/pkg/config"
	"github.com/eyesofazrael/azrael/pkg/docstore"
	"github.com/eyesofazrael/azrael/pkg/entities"
	"github.com/eyesofazrael/azrael/pkg/localstore"
	"github.com/eyesofazrael/azrael/pkg/metrics"
	"github.com/eyesofazrael/azrael/pkg/moderation"
	"github.com/eyesofazrael/azrael/pkg/ratelimit"
	rlredis "github.com/eyesofazrael/azrael/pkg/ratelimit/redis"
	"github.com/eyesofazrael/azrael/pkg/search"
	"github.com/eyesofazrael/azrael/pkg/search/corpus"
	"github.com/eyesofazrael/azrael/pkg/votes"
)

// App is the application context.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Store       *docstore.Store
	Local       *localstore.Store
	Preferences *localstore.Preferences
	Entities    *entities.Repository
	Index       *corpus.Indexer
	SearchCache *sqlitecache.Cache // nil when the persistent tier is unavailable
	Search      *search.Service
	Audit       *audit.Logger
	Limiter     *ratelimit.Limiter
	Moderation  *moderation.Service
	Assets      *assets.Service
	Votes       *votes.Tracker

	localMode LocalMode
	closers   []func() error
}

// LocalMode controls how New opens the local store.
type LocalMode int

const (
	// LocalRequired opens local_store.path and fails if it cannot.
	LocalRequired LocalMode = iota
	// LocalFallback opens local_store.path, or an in-memory store when the
	// path is unavailable (typically locked by a running server).
	LocalFallback
	// LocalMemory never touches local_store.path.
	LocalMemory
)

// Option configures New.
type Option func(*App)

// WithLocalMode sets how the local store is opened. The default is
// LocalRequired.
func WithLocalMode(m LocalMode) Option {
	return func(a *App) { a.localMode = m }
}

// New opens every store and builds the services. On error anything
// already opened is closed.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}
	for _, o := range opts {
		o(a)
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	if a.Store, err = docstore.Open(cfg.DBPath); err != nil {
		return nil, err
	}
	a.onClose(a.Store.Close)

	if err = a.openLocal(); err != nil {
		return nil, err
	}
	a.Preferences = localstore.NewPreferences(a.Local)

	a.Entities = entities.NewRepository(a.Store)
	if err = a.openIndex(ctx); err != nil {
		return nil, err
	}

	searchOpts := []search.Option{
		search.WithLogger(logger.With("component", "search")),
		search.WithMetrics(a.Metrics),
		search.WithHistoryStore(a.Local),
	}
	if cache, cerr := sqlitecache.New(cfg.Search.CacheDBPath); cerr != nil {
		logger.Warn("persistent search cache unavailable, using memory only", "error", cerr)
	} else {
		a.SearchCache = cache
		a.onClose(cache.Close)
		searchOpts = append(searchOpts, search.WithPersistent(cache))
	}
	a.Search = search.New(a.Index, search.Config{
		CacheTimeout:   cfg.Search.CacheTimeout,
		MaxHistorySize: cfg.Search.MaxHistorySize,
	}, searchOpts...)

	a.Audit = audit.New(a.Store, cfg.RateLimit.Security)
	requests, err := a.requestRepository(ctx)
	if err != nil {
		return nil, err
	}
	a.Limiter = ratelimit.New(requests, ratelimit.NewDocBlocks(a.Store), a.Audit, cfg.RateLimit,
		ratelimit.WithLogger(logger.With("component", "ratelimit")),
		ratelimit.WithMetrics(a.Metrics),
	)

	a.Moderation = moderation.New(a.Store, logger.With("component", "moderation"))
	a.Assets = assets.New(a.Store, a.Moderation, a.Entities, a.Index, a.Moderation, logger.With("component", "assets"))
	a.Votes = votes.New(a.Store)
	return a, nil
}

// Scheduler returns the periodic cleanup job for the rate limiter and
// security log.
func (a *App) Scheduler() *ratelimit.Scheduler {
	return ratelimit.NewScheduler(a.Limiter, a.Audit, a.Config.RateLimit.CleanupInterval, a.Logger.With("component", "cleanup"))
}

// RebuildIndex reindexes every stored entity.
func (a *App) RebuildIndex(ctx context.Context) (int, error) {
	return a.Index.BuildFromStore(ctx, a.Entities)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *App) openLocal() error {
	path := a.Config.LocalStore.Path
	if a.localMode == LocalMemory {
		path = ""
	}
	local, err := localstore.Open(path, a.Logger)
	if err != nil && a.localMode == LocalFallback && path != "" {
		a.Logger.Warn("local store unavailable, history and preferences will not persist", "path", path, "error", err)
		local, err = localstore.Open("", a.Logger)
	}
	if err != nil {
		return err
	}
	a.Local = local
	a.onClose(local.Close)
	return nil
}

func (a *App) openIndex(ctx context.Context) error {
	var err error
	if a.Config.Search.IndexPath == "" {
		a.Index, err = corpus.NewIndexer()
	} else {
		a.Index, err = corpus.NewIndexerWithPath(a.Config.Search.IndexPath)
	}
	if err != nil {
		return err
	}
	a.onClose(a.Index.Close)

	n, err := a.Index.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	built, err := a.RebuildIndex(ctx)
	if err != nil {
		return fmt.Errorf("build search index: %w", err)
	}
	a.Logger.Info("search index built", "entities", built)
	return nil
}

func (a *App) requestRepository(ctx context.Context) (ratelimit.RequestRepository, error) {
	if a.Config.RateLimit.Store != "redis" {
		return ratelimit.NewDocRequests(a.Store), nil
	}
	rc := a.Config.Redis
	client, err := rlredis.Dial(ctx, rc.Addr, rc.Password, rc.DB)
	if err != nil {
		return nil, err
	}
	a.onClose(client.Close)
	return rlredis.New(client, a.Config.RateLimit.Window), nil
}
