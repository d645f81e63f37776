package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

// State is a scheduler lifecycle state.
type State int32

// Scheduler states.
const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	State        State         `json:"state"`
	Interval     time.Duration `json:"interval_ns"`
	Runs         int64         `json:"runs"`
	Failures     int64         `json:"failures"`
	Skipped      int64         `json:"skipped"`
	LastCycleID  string        `json:"last_cycle_id,omitempty"`
	LastStart    *time.Time    `json:"last_start,omitempty"`
	LastFinish   *time.Time    `json:"last_finish,omitempty"`
	LastDuration time.Duration `json:"last_duration_ns,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (st Status) MarshalZerologObject(e *zerolog.Event) {
	e.Stringer("state", st.State).
		Int64("runs", st.Runs).
		Int64("failures", st.Failures).
		Int64("skipped", st.Skipped)
	if st.LastError != "" {
		e.Str("last_error", st.LastError)
	}
}

// Status returns the current status.
func (s *Scheduler) Status() Status {
	st := Status{
		State:    s.State(),
		Interval: s.interval,
		Runs:     s.runs.Load(),
		Failures: s.failures.Load(),
		Skipped:  s.skipped.Load(),
	}

	s.statsMu.RLock()
	defer s.statsMu.RUnlock()

	st.LastCycleID = s.lastCycleID
	if !s.lastStart.IsZero() {
		t := s.lastStart.UTC()
		st.LastStart = &t
	}
	if !s.lastFinish.IsZero() {
		t := s.lastFinish.UTC()
		st.LastFinish = &t
	}
	st.LastDuration = s.lastDuration
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
