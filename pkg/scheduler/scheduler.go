// Package scheduler runs a job on a fixed interval without ever overlapping
// two executions.
//
// A Scheduler moves Idle → Running → Idle for every cycle and ends in
// Stopped. A tick that arrives while a cycle is Running is skipped, not
// queued. Job failures and panics are logged and counted; they never stop
// the scheduler.
package scheduler

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/logging"
)

// Job is one unit of scheduled work. It must honor ctx cancellation.
type Job func(ctx context.Context) error

var (
	// ErrCycleInProgress is returned by RunOnce when a cycle is already running.
	ErrCycleInProgress = errors.New("cycle already in progress")

	// ErrStopped is returned once Stop has been called.
	ErrStopped = errors.New("scheduler stopped")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("scheduler already started")
)

// Scheduler triggers a Job periodically.
type Scheduler struct {
	job        Job
	interval   time.Duration
	timeout    time.Duration
	runOnStart bool
	logger     *zerolog.Logger

	state atomic.Int32

	mu       sync.Mutex // guards the fields below and the Idle → Running transition
	started  bool
	stopping bool
	stopLoop context.CancelFunc
	loopDone chan struct{}
	stopped  chan struct{}

	wg sync.WaitGroup // in-flight cycles

	// base is the parent of every cycle context; cancelled when Stop gives up waiting.
	base       context.Context
	cancelBase context.CancelFunc

	runs     atomic.Int64
	failures atomic.Int64
	skipped  atomic.Int64

	statsMu      sync.RWMutex
	lastCycleID  string
	lastStart    time.Time
	lastFinish   time.Time
	lastDuration time.Duration
	lastErr      error
}

// New creates an Idle scheduler for job.
func New(job Job, opts ...Option) (*Scheduler, error) {
	if job == nil {
		return nil, errors.NewValidationError("job", nil, "cannot be nil")
	}
	s := &Scheduler{
		job:      job,
		interval: constants.DefaultFetchInterval,
		timeout:  constants.DefaultCycleTimeout,
		logger:   logging.Default(),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.base, s.cancelBase = context.WithCancel(context.Background())
	return s, nil
}

// State returns the current state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Interval returns the configured tick interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start launches the ticker loop. The loop ends when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	s.stopLoop = cancel
	s.loopDone = make(chan struct{})
	done := s.loopDone
	s.mu.Unlock()

	s.logger.Info().
		Dur("interval", s.interval).
		Dur("cycle_timeout", s.timeout).
		Bool("run_on_start", s.runOnStart).
		Msg("Scheduler started")

	go s.loop(loopCtx, done)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	if s.runOnStart {
		s.Tick()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-ctx.Done():
			return
		}
	}
}

// Tick starts a cycle in the background if the scheduler is Idle. It reports
// whether a cycle was started; a false return is counted as a skip.
func (s *Scheduler) Tick() bool {
	if err := s.acquire(); err != nil {
		s.skipped.Add(1)
		s.logger.Debug().Err(err).Msg("Tick skipped")
		return false
	}
	go func() {
		_ = s.run(s.base)
	}()
	return true
}

// RunOnce runs a cycle synchronously and returns its error. It returns
// ErrCycleInProgress without waiting when another cycle holds the slot.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	return s.run(ctx)
}

// Stop prevents new cycles, ends the ticker loop and waits for the in-flight
// cycle. If ctx expires first the cycle is cancelled and Stop returns without
// waiting further. Stop may be called more than once.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		select {
		case <-s.stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.stopping = true
	stopLoop, loopDone := s.stopLoop, s.loopDone
	s.mu.Unlock()

	if stopLoop != nil {
		stopLoop()
		<-loopDone
	}

	idle := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(idle)
	}()

	var err error
	select {
	case <-idle:
	case <-ctx.Done():
		s.cancelBase()
		err = errors.NewTimeoutError("scheduler stop", "", "in-flight cycle cancelled")
		s.logger.Warn().Err(ctx.Err()).Msg("Scheduler stop deadline reached, cancelled running cycle")
	}

	s.state.Store(int32(StateStopped))
	s.cancelBase()
	close(s.stopped)
	s.logger.Info().Int64("runs", s.runs.Load()).Int64("failures", s.failures.Load()).Msg("Scheduler stopped")
	return err
}

// acquire performs the Idle → Running transition.
func (s *Scheduler) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return ErrStopped
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrCycleInProgress
	}
	s.wg.Add(1)
	return nil
}

func (s *Scheduler) run(parent context.Context) error {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()
	// Stop can cancel cycles started by RunOnce with an unrelated parent.
	release := context.AfterFunc(s.base, cancel)
	defer release()

	cycleID := uuid.NewString()
	ctx = logging.WithCycle(logging.WithLogger(ctx, s.logger), cycleID)
	logger := logging.FromContext(ctx)

	start := time.Now()
	s.statsMu.Lock()
	s.lastCycleID = cycleID
	s.lastStart = start
	s.statsMu.Unlock()

	logger.Info().Msg("Cycle started")
	err := s.invoke(ctx)
	if err != nil && stderrors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.IsTimeout(err) {
		err = stderrors.Join(errors.NewTimeoutError("cycle", s.timeout.String(), "cycle exceeded its deadline"), err)
	}
	elapsed := time.Since(start)

	s.runs.Add(1)
	s.statsMu.Lock()
	s.lastFinish = start.Add(elapsed)
	s.lastDuration = elapsed
	s.lastErr = err
	s.statsMu.Unlock()

	switch {
	case err != nil && errors.IsCanceled(err):
		s.failures.Add(1)
		logger.Warn().Err(err).Dur("duration", elapsed).Msg("Cycle canceled")
	case err != nil:
		s.failures.Add(1)
		logger.Error().Err(err).Dur("duration", elapsed).Msg("Cycle failed")
	default:
		logger.Info().Dur("duration", elapsed).Msg("Cycle completed")
	}

	// Fails harmlessly if Stop already moved the scheduler to Stopped.
	s.state.CompareAndSwap(int32(StateRunning), int32(StateIdle))
	return err
}

func (s *Scheduler) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error().
				Str("stack", string(debug.Stack())).
				Interface("panic", r).
				Msg("Cycle panicked")
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	return s.job(ctx)
}
