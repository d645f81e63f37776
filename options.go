package menumerge

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/fetcher"
	"github.com/agentstation/menumerge/pkg/logging"
	"github.com/agentstation/menumerge/pkg/reconciler"
	"github.com/agentstation/menumerge/pkg/store"
)

// options holds the Client configuration.
type options struct {
	store      *store.Store
	source     fetcher.Source
	reconciler reconciler.Reconciler
	logger     *zerolog.Logger

	autoUpdatesEnabled bool
	autoUpdateInterval time.Duration
	cycleTimeout       time.Duration
	runOnStart         bool
}

func defaults() *options {
	return &options{
		logger:             logging.Default(),
		autoUpdateInterval: constants.DefaultFetchInterval,
		cycleTimeout:       constants.DefaultCycleTimeout,
		runOnStart:         true,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Option is a function that configures a Client.
type Option func(*options) error

// WithStore sets the store holding the datasets. Required.
func WithStore(s *store.Store) Option {
	return func(o *options) error {
		if s == nil {
			return errors.NewValidationError("store", nil, "cannot be nil")
		}
		o.store = s
		return nil
	}
}

// WithSource sets where the secondary dataset is fetched from.
func WithSource(src fetcher.Source) Option {
	return func(o *options) error {
		if src == nil {
			return errors.NewValidationError("source", nil, "cannot be nil")
		}
		o.source = src
		return nil
	}
}

// WithReconciler overrides the default primary-authority reconciler.
func WithReconciler(r reconciler.Reconciler) Option {
	return func(o *options) error {
		if r == nil {
			return errors.NewValidationError("reconciler", nil, "cannot be nil")
		}
		o.reconciler = r
		return nil
	}
}

// WithAutoUpdates starts the periodic cycle as soon as the Client is created.
func WithAutoUpdates(enabled bool) Option {
	return func(o *options) error {
		o.autoUpdatesEnabled = enabled
		return nil
	}
}

// WithAutoUpdateInterval configures how often a cycle is attempted.
func WithAutoUpdateInterval(interval time.Duration) Option {
	return func(o *options) error {
		if interval <= 0 {
			return errors.NewValidationError("autoUpdateInterval", interval, "update interval must be positive")
		}
		o.autoUpdateInterval = interval
		return nil
	}
}

// WithCycleTimeout bounds a single cycle, fetch retries included.
func WithCycleTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		if timeout <= 0 {
			return errors.NewValidationError("cycleTimeout", timeout, "cycle timeout must be positive")
		}
		o.cycleTimeout = timeout
		return nil
	}
}

// WithRunOnStart configures whether the first cycle runs as soon as
// auto-updates are turned on.
func WithRunOnStart(enabled bool) Option {
	return func(o *options) error {
		o.runOnStart = enabled
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}
