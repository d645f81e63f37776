package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/menumerge/pkg/errors"
)

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithInterval sets the time between ticks of the Start loop.
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) error {
		if interval <= 0 {
			return errors.NewValidationError("interval", interval, "must be positive")
		}
		s.interval = interval
		return nil
	}
}

// WithCycleTimeout bounds the duration of a single cycle.
func WithCycleTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) error {
		if timeout <= 0 {
			return errors.NewValidationError("cycleTimeout", timeout, "must be positive")
		}
		s.timeout = timeout
		return nil
	}
}

// WithRunOnStart makes Start fire the first cycle immediately instead of
// waiting one interval.
func WithRunOnStart(enabled bool) Option {
	return func(s *Scheduler) error {
		s.runOnStart = enabled
		return nil
	}
}

// WithLogger sets the logger cycles are logged to.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Scheduler) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}
