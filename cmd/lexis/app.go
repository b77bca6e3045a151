package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/lexis/internal/config"
	"github.com/phrazzld/lexis/internal/domain/srs"
	"github.com/phrazzld/lexis/internal/events"
	"github.com/phrazzld/lexis/internal/platform/cache"
	"github.com/phrazzld/lexis/internal/platform/postgres"
	"github.com/phrazzld/lexis/internal/service/review"
	"github.com/phrazzld/lexis/internal/service/reviewcache"
	"github.com/phrazzld/lexis/internal/store"
	"go.opentelemetry.io/otel/trace"
)

// backend is an opened store. db is nil for stores without a SQL database.
type backend struct {
	tx     store.Transactor
	stores store.Stores
	db     *sql.DB
	close  func() error
}

// openPostgres connects to cfg.Database and binds the Postgres stores.
func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	db, err := postgres.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &backend{
		tx:     postgres.NewTransactor(db, nil, logger),
		stores: postgres.NewStores(db, logger),
		db:     db,
		close:  db.Close,
	}, nil
}

// environment carries the process-level collaborators of run. Tests replace
// openStore to run commands against an in-memory backend.
type environment struct {
	stdout    io.Writer
	stderr    io.Writer
	openStore func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error)
	openCache func(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cache.Cache, error)
}

func newEnvironment(stdout, stderr io.Writer) environment {
	return environment{
		stdout:    stdout,
		stderr:    stderr,
		openStore: openPostgres,
		openCache: cache.New,
	}
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	backend *backend
	cache   cache.Cache
	emitter *events.InMemoryEventEmitter
	service review.Service
	out     io.Writer
	errOut  io.Writer
}

// newApplication wires the review service on top of an opened backend.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	env environment,
	tracer trace.Tracer,
) (*application, error) {
	b, err := env.openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	app := &application{
		config:  cfg,
		logger:  logger,
		backend: b,
		emitter: events.NewInMemoryEventEmitter(logger),
		out:     env.stdout,
		errOut:  env.stderr,
	}

	engine := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MinEasinessFactor:     cfg.Scheduler.MinEasinessFactor,
		InitialEasinessFactor: cfg.Scheduler.InitialEasinessFactor,
	}))

	opts := review.OptionsFromConfig(cfg.Scheduler)
	opts.Emitter = app.emitter
	opts.Tracer = tracer

	var svc review.Service = review.NewReviewService(b.tx, b.stores, engine, opts, logger)

	c, err := env.openCache(ctx, cfg.Cache, logger)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if c != nil {
		app.cache = c
		cached := reviewcache.New(svc, c, cfg.Cache, logger)
		app.emitter.RegisterHandler(cached)
		svc = cached
		logger.Debug("review cache enabled", slog.String("backend", cfg.Cache.Backend))
	}
	app.service = svc

	return app, nil
}

// Close releases the cache and the store.
func (a *application) Close() error {
	var errs []error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	if a.backend != nil && a.backend.close != nil {
		if err := a.backend.close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
