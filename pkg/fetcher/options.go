package fetcher

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/menumerge/internal/transport"
	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
)

type options struct {
	name        string
	maxAttempts int
	retryDelay  time.Duration
	timeout     time.Duration
	maxBytes    int64
	auth        transport.Authenticator
	apiKey      string
	httpClient  *http.Client
	logger      *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		name:        constants.DefaultSourceName,
		maxAttempts: constants.DefaultMaxAttempts,
		retryDelay:  constants.DefaultRetryDelay,
		timeout:     constants.DefaultHTTPTimeout,
		maxBytes:    constants.MaxResponseBytes,
		auth:        &transport.NoAuth{},
	}
}

// Option configures a Fetcher.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithName labels the source in logs and errors.
func WithName(name string) Option {
	return func(o *options) error {
		if name != "" {
			o.name = name
		}
		return nil
	}
}

// WithMaxAttempts sets the total number of attempts. 1 disables retries.
func WithMaxAttempts(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.NewValidationError("maxAttempts", n, "must be at least 1")
		}
		o.maxAttempts = n
		return nil
	}
}

// WithRetryDelay sets the fixed wait between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.NewValidationError("retryDelay", d, "cannot be negative")
		}
		o.retryDelay = d
		return nil
	}
}

// WithTimeout bounds each individual HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("timeout", d, "must be positive")
		}
		o.timeout = d
		return nil
	}
}

// WithMaxBytes caps the accepted response size.
func WithMaxBytes(n int64) Option {
	return func(o *options) error {
		if n <= 0 {
			return errors.NewValidationError("maxBytes", n, "must be positive")
		}
		o.maxBytes = n
		return nil
	}
}

// WithAuth authenticates requests with apiKey. An empty key disables authentication.
func WithAuth(auth transport.Authenticator, apiKey string) Option {
	return func(o *options) error {
		if auth == nil {
			return errors.NewValidationError("auth", nil, "cannot be nil")
		}
		o.auth = auth
		o.apiKey = apiKey
		return nil
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout is overridden by WithTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) error {
		o.httpClient = hc
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
