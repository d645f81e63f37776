// Package app wires configuration, logging and the menumerge client for the
// menumerge CLI.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/menumerge"
	"github.com/agentstation/menumerge/internal/database"
	"github.com/agentstation/menumerge/internal/transport"
	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/fetcher"
	"github.com/agentstation/menumerge/pkg/reconciler"
	"github.com/agentstation/menumerge/pkg/store"
)

// App holds configuration, the logger and the lazily built client.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	mu     sync.Mutex
	client menumerge.Client
	store  *store.Store
}

// New creates an App with configuration loaded from the environment.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Version returns the version string.
func (a *App) Version() string {
	return a.version
}

// Client returns the menumerge client, opening the store and building the
// fetcher on first use. withSource requires DATA_B_URL.
func (a *App) Client(ctx context.Context, withSource bool) (menumerge.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if withSource {
		if err := a.config.RequireSource(); err != nil {
			return nil, err
		}
	}
	if a.client != nil {
		return a.client, nil
	}
	if err := a.config.Validate(); err != nil {
		return nil, err
	}

	if a.store == nil {
		openCtx, cancel := context.WithTimeout(ctx, constants.StoreOpenTimeout)
		backend, err := database.Open(openCtx, database.Config{
			URL:     a.config.DatabaseURL,
			Workers: a.config.Workers,
		})
		cancel()
		if err != nil {
			return nil, err
		}
		st, err := store.New(ctx, backend, store.WithLogger(a.logger))
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		a.store = st
	}

	strategy, err := reconciler.ParseStrategy(a.config.MergeStrategy)
	if err != nil {
		return nil, err
	}
	rec, err := reconciler.New(reconciler.WithStrategy(strategy))
	if err != nil {
		return nil, err
	}

	opts := []menumerge.Option{
		menumerge.WithStore(a.store),
		menumerge.WithReconciler(rec),
		menumerge.WithLogger(a.logger),
		menumerge.WithAutoUpdateInterval(a.config.FetchInterval),
		menumerge.WithCycleTimeout(a.config.CycleTimeout),
		menumerge.WithRunOnStart(a.config.RunOnStart),
	}
	if a.config.SourceURL != "" {
		src, err := a.newFetcher()
		if err != nil {
			return nil, err
		}
		opts = append(opts, menumerge.WithSource(src))
	}

	client, err := menumerge.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	a.client = client
	return client, nil
}

func (a *App) newFetcher() (*fetcher.Fetcher, error) {
	auth, err := transport.ParseAuth(a.config.SourceAuth)
	if err != nil {
		return nil, err
	}
	return fetcher.New(a.config.SourceURL,
		fetcher.WithName(constants.DefaultSourceName),
		fetcher.WithMaxAttempts(a.config.MaxAttempts),
		fetcher.WithRetryDelay(a.config.RetryDelay),
		fetcher.WithTimeout(a.config.FetchTimeout),
		fetcher.WithAuth(auth, a.config.SourceAPIKey),
		fetcher.WithLogger(a.logger),
	)
}

// Shutdown stops the scheduler, letting an in-flight cycle finish within
// ctx, and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	if a.client != nil {
		if err := a.client.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		a.client = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
		a.store = nil
	}
	return errors.Join(errs...)
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a prebuilt client (useful for testing).
func WithClient(client menumerge.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}
