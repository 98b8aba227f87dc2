package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/places-api/internal/api"
	"github.com/phrazzld/places-api/internal/config"
	"github.com/phrazzld/places-api/internal/geocode"
	"github.com/phrazzld/places-api/internal/platform/objectstore"
	"github.com/phrazzld/places-api/internal/platform/postgres"
	"github.com/phrazzld/places-api/internal/service"
	"github.com/phrazzld/places-api/internal/service/auth"
	"github.com/phrazzld/places-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds the shared dependencies of the server.
type application struct {
	config *config.Config
	logger *slog.Logger

	tokens   auth.TokenService
	accounts *service.AccountService
	places   *service.PlaceService
	images   api.ImagePresigner // nil when storage is not configured

	registry *prometheus.Registry
	closers  []func() error
}

// dependencies are the externally constructed collaborators of an
// application. Tests replace the store and geocoder with in-memory fakes.
type dependencies struct {
	transactor store.Transactor
	users      store.UserStore
	places     store.PlaceStore
	geocoder   geocode.Geocoder
	images     api.ImagePresigner
}

// newApplication wires the Postgres stores, the geocoder (cached through
// Redis when configured) and, when configured, S3 image storage.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	deps := dependencies{
		transactor: store.NewSQLTransactor(db),
		users:      postgres.NewPostgresUserStore(db, logger),
		places:     postgres.NewPostgresPlaceStore(db, logger),
	}
	var closers []func() error

	client, err := geocode.NewClient(cfg.Geocoder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoder: %w", err)
	}
	deps.geocoder = client

	if cfg.Cache.Enabled() {
		cache, err := geocode.NewRedisCache(ctx, cfg.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to connect geocode cache: %w", err)
		}
		closers = append(closers, cache.Close)
		deps.geocoder = geocode.NewCachingGeocoder(client, cache, cfg.Cache.TTL, logger)
		logger.Info("geocode cache enabled", "ttl", cfg.Cache.TTL)
	}

	if cfg.Storage.Enabled() {
		images, err := objectstore.New(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create image storage: %w", err)
		}
		deps.images = images
		logger.Info("image storage enabled", "bucket", cfg.Storage.Bucket)
	}

	app, err := buildApplication(cfg, logger, deps)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closers...)
	return app, nil
}

// buildApplication assembles services from already constructed dependencies.
func buildApplication(cfg *config.Config, logger *slog.Logger, deps dependencies) (*application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("token service initialized", "token_lifetime", cfg.Auth.TokenLifetime)

	coordinator, err := service.NewCoordinator(deps.transactor, deps.users, deps.places, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}

	accounts, err := service.NewAccountService(deps.users, auth.NewBcryptHasher(cfg.Auth.BCryptCost), tokens, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create account service: %w", err)
	}

	places, err := service.NewPlaceService(deps.places, deps.geocoder, coordinator, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create place service: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &application{
		config:   cfg,
		logger:   logger,
		tokens:   tokens,
		accounts: accounts,
		places:   places,
		images:   deps.images,
		registry: registry,
	}, nil
}

// Run serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	router, err := app.setupRouter()
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources opened by newApplication.
func (app *application) cleanup() {
	for _, closeFn := range app.closers {
		if err := closeFn(); err != nil {
			app.logger.Warn("failed to release resource", "error", err)
		}
	}
	app.closers = nil
}
