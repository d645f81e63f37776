// Package fetcher retrieves the secondary dataset from its upstream HTTP source.
//
// Transient failures (transport errors, 5xx and 429 answers) are retried after
// a fixed delay until the attempt budget runs out. Malformed or schema-violating
// payloads fail immediately: retrying cannot fix them.
package fetcher

import (
	"context"
	stderrors "errors"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/menumerge/internal/transport"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/logging"
	"github.com/agentstation/menumerge/pkg/menus"
)

// Source produces a secondary dataset on demand.
type Source interface {
	Fetch(ctx context.Context) (*menus.SecondaryDataset, error)
}

// Fetcher is an HTTP Source with bounded fixed-delay retries.
type Fetcher struct {
	url         string
	name        string
	client      *transport.Client
	maxAttempts int
	retryDelay  time.Duration
	maxBytes    int64
	logger      *zerolog.Logger

	// wait blocks for d or until ctx is done; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// New creates a fetcher for the dataset served at rawURL.
func New(rawURL string, opts ...Option) (*Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.NewValidationError("url", rawURL, "must be an absolute http(s) URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NewValidationError("url", rawURL, "scheme must be http or https")
	}

	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = logging.Default()
	}
	scoped := logger.With().Str("source", o.name).Logger()

	return &Fetcher{
		url:  rawURL,
		name: o.name,
		client: transport.New(
			transport.WithHTTPClient(o.httpClient),
			transport.WithTimeout(o.timeout),
			transport.WithAuth(o.auth, o.apiKey),
		),
		maxAttempts: o.maxAttempts,
		retryDelay:  o.retryDelay,
		maxBytes:    o.maxBytes,
		logger:      &scoped,
		wait:        sleep,
	}, nil
}

// Name returns the source name used in logs and errors.
func (f *Fetcher) Name() string {
	return f.name
}

// Fetch retrieves and validates the secondary dataset.
//
// It returns *errors.FetchFailedError when every attempt failed transiently,
// when the source answered with a non-retryable status, or when ctx ended;
// and *errors.FetchInvalidError when the payload could not be used.
func (f *Fetcher) Fetch(ctx context.Context) (*menus.SecondaryDataset, error) {
	logger := f.logger
	if cycle := logging.CycleID(ctx); cycle != "" {
		l := logger.With().Str("cycle_id", cycle).Logger()
		logger = &l
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		dataset, err := f.attempt(ctx)
		if err == nil {
			logger.Debug().Int("attempt", attempt).Int("groups", len(dataset.Data)).Msg("Fetched secondary dataset")
			return dataset, nil
		}

		var invalid *errors.FetchInvalidError
		if stderrors.As(err, &invalid) {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("Secondary dataset rejected")
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, errors.NewFetchFailedError(f.name, attempt, contextError(ctx, err))
		}
		if !retryable(err) {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("Fetch failed with non-retryable error")
			return nil, errors.NewFetchFailedError(f.name, attempt, err)
		}

		lastErr = err
		if attempt == f.maxAttempts {
			break
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", f.maxAttempts).
			Bool("rate_limited", errors.IsRateLimited(err)).
			Dur("retry_in", f.retryDelay).
			Msg("Fetch attempt failed, retrying")

		if werr := f.wait(ctx, f.retryDelay); werr != nil {
			return nil, errors.NewFetchFailedError(f.name, attempt, contextError(ctx, err))
		}
	}

	logger.Error().Err(lastErr).Int("attempts", f.maxAttempts).Msg("Fetch failed")
	return nil, errors.NewFetchFailedError(f.name, f.maxAttempts, lastErr)
}

// attempt performs one request. Decoding and schema errors come back as
// *errors.FetchInvalidError; everything else is left for classification.
func (f *Fetcher) attempt(ctx context.Context) (*menus.SecondaryDataset, error) {
	resp, err := f.client.Get(ctx, f.url)
	if err != nil {
		return nil, err
	}

	var dataset menus.SecondaryDataset
	if err := transport.DecodeResponse(resp, f.name, f.maxBytes, &dataset); err != nil {
		var parseErr *errors.ParseError
		if stderrors.As(err, &parseErr) {
			return nil, errors.NewFetchInvalidError(f.name, "malformed response body", err)
		}
		return nil, err
	}

	if err := dataset.Validate(); err != nil {
		return nil, errors.NewFetchInvalidError(f.name, "schema violation", err)
	}
	return &dataset, nil
}

// retryable reports whether err may clear on a later attempt. Transport and
// body read failures are retryable; HTTP answers only for 5xx and 429.
func retryable(err error) bool {
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	var resErr *errors.ResourceError
	return !stderrors.As(err, &resErr)
}

func contextError(ctx context.Context, cause error) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stderrors.Join(errors.NewTimeoutError("fetch", "", ctx.Err().Error()), cause)
	}
	return stderrors.Join(errors.ErrCanceled, ctx.Err(), cause)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ Source = (*Fetcher)(nil)
