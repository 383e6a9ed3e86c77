// Package bootstrap wires configuration, storage, clients and services into an App.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/autorent/autorent-platform/pkg/auth"
	"github.com/autorent/autorent-platform/pkg/booking"
	"github.com/autorent/autorent-platform/pkg/catalogue"
	"github.com/autorent/autorent-platform/pkg/clients"
	"github.com/autorent/autorent-platform/pkg/config"
	"github.com/autorent/autorent-platform/pkg/health"
	"github.com/autorent/autorent-platform/pkg/logging"
	"github.com/autorent/autorent-platform/pkg/preferences"
	"github.com/autorent/autorent-platform/pkg/randutil"
	"github.com/autorent/autorent-platform/pkg/selection"
	"github.com/autorent/autorent-platform/pkg/storage"
	"github.com/autorent/autorent-platform/pkg/telemetry"
)

// App holds every initialized component.
type App struct {
	Config    *config.Config
	Logger    *logging.Logger
	Events    logging.EventSink
	Audit     *logging.AuditLogger
	Telemetry *telemetry.Provider
	Store     storage.Store

	CarData  *clients.CarDataClient
	Identity auth.IdentityProvider

	Catalogue   *catalogue.Store
	Favorites   *selection.Collection
	Compare     *selection.Collection
	Recent      *selection.RecentlyViewed
	Bookings    *booking.Service
	Preferences *preferences.Store
	Session     *auth.Session
	Health      *health.Checker

	appInsights *logging.AppInsightsClient
}

// Options overrides collaborators. Zero values build the real ones from config.
type Options struct {
	// LogOutput defaults to stderr.
	LogOutput io.Writer
	Store     storage.Store
	Fetcher   catalogue.Fetcher
	Identity  auth.IdentityProvider
	Random    randutil.Source
	Clock     func() time.Time
}

// Initialize loads configuration for serviceName and builds the App.
func Initialize(ctx context.Context, serviceName string, opts Options) (*App, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return New(ctx, cfg, opts)
}

// New builds the App from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := logging.NewLoggerWithOptions(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: opts.LogOutput,
	}).With("service", cfg.ServiceName, "environment", cfg.Environment)

	logger.Debug("starting",
		"key_vault", valueOrNone(cfg.KeyVaultName),
		"storage_backend", cfg.StorageBackend,
		"local_identity", cfg.UseLocalIdentity(),
	)

	app := &App{
		Config: cfg,
		Logger: logger,
		Events: logging.NopSink{},
		Audit: logging.NewAuditLogger(logging.AuditLoggerConfig{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Environment,
			Logger:      logger.Logger,
		}),
	}

	if ai := logging.NewAppInsightsClient(cfg.AppInsightsKey, cfg.ServiceName); ai != nil {
		app.appInsights = ai
		app.Events = ai
	}

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:          cfg.ServiceName,
		ServiceVersion:       cfg.Version,
		Environment:          cfg.Environment,
		Endpoint:             cfg.OTLPEndpoint,
		Insecure:             cfg.OTLPInsecure,
		SampleRate:           cfg.TraceSampleRate,
		MetricExportInterval: 60 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	app.Telemetry = tel
	metrics := tel.Metrics()

	store := opts.Store
	if store == nil {
		store, err = storage.Open(ctx, cfg.Storage(), logger)
		if err != nil {
			_ = tel.Shutdown(ctx)
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
	}
	app.Store = telemetry.NewTracedStore(store, cfg.StorageBackend, tel.Tracer(), metrics)

	src := opts.Random
	if src == nil {
		src = randutil.NewTimeSeeded()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		cd := clients.DefaultCarDataClientConfig(cfg.CarDataAPIKey)
		cd.BaseURL = cfg.CarDataURL
		cd.Timeout = cfg.CarDataTimeout
		cd.RequestsPerSecond = cfg.CarDataRPS
		if len(cfg.CarDataModels) > 0 {
			cd.Models = cfg.CarDataModels
		}
		app.CarData = clients.NewCarDataClient(cd,
			clients.WithRandomSource(src),
			clients.WithLogger(logger),
			clients.WithEventSink(app.Events),
		)
		fetcher = app.CarData
	}

	app.Identity = opts.Identity
	if app.Identity == nil {
		if cfg.UseLocalIdentity() {
			tokens := auth.NewTokenManager(auth.DefaultTokenConfig(cfg.LocalAuthSecret))
			app.Identity = auth.NewLocalIdentity(app.Store, tokens)
		} else {
			app.Identity = clients.NewIdentityClient(clients.IdentityClientConfig{
				BaseURL: cfg.IdentityURL,
				APIKey:  cfg.IdentityAPIKey,
				Timeout: 10 * time.Second,
			}, logger)
		}
	}

	app.Catalogue = catalogue.NewStore(fetcher, app.Store,
		catalogue.StoreConfig{BatchSize: cfg.BatchSize},
		catalogue.WithLogger(logger),
		catalogue.WithMetrics(metrics),
		catalogue.WithEventSink(app.Events),
		catalogue.WithClock(clock),
	)

	selectionOpts := []selection.Option{
		selection.WithLogger(logger),
		selection.WithMetrics(metrics),
		selection.WithAudit(app.Audit),
	}
	app.Favorites = selection.NewFavorites(app.Store, selectionOpts...)
	app.Compare = selection.NewCompareList(app.Store, selectionOpts...)
	app.Recent = selection.NewRecentlyViewed(app.Store, selectionOpts...)

	app.Bookings = booking.NewService(app.Store, src,
		booking.WithLogger(logger),
		booking.WithAudit(app.Audit),
		booking.WithEventSink(app.Events),
		booking.WithMetrics(metrics),
		booking.WithClock(clock),
	)

	app.Preferences = preferences.NewStore(app.Store, logger)

	app.Session = auth.NewSession(app.Identity, app.Store,
		auth.WithLogger(logger),
		auth.WithAudit(app.Audit),
	)

	app.Health = app.newChecker()

	return app, nil
}

func (a *App) newChecker() *health.Checker {
	checker := health.NewChecker(a.Config.Version, 5*time.Second)
	checker.AddCheck("storage", health.StoreCheck(a.Store), true)

	// The catalogue cache keeps the app usable while the API is down
	if a.CarData != nil {
		checker.AddCheck("car-data", health.PingCheck(a.CarData), false)
		checker.AddCheck("car-data-circuit", health.CircuitCheck("car-data", a.CarData), false)
	}
	if p, ok := a.Identity.(health.Pinger); ok {
		checker.AddCheck("identity", health.PingCheck(p), false)
	}
	return checker
}

// Close flushes telemetry and releases storage connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.appInsights != nil {
		a.appInsights.Close()
	}
	if a.Store != nil {
		if err := storage.Close(a.Store); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
	}

	return errors.Join(errs...)
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none - using env vars)"
	}
	return s
}
