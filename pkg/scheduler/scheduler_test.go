package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/logging"
)

func newScheduler(t *testing.T, job Job, opts ...Option) *Scheduler {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewNopLogger())}, opts...)
	s, err := New(job, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

// blockingJob runs until release is closed.
func blockingJob(started chan<- struct{}, release <-chan struct{}, calls *atomic.Int32) Job {
	return func(ctx context.Context) error {
		calls.Add(1)
		started <- struct{}{}
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == StateIdle }, 2*time.Second, time.Millisecond)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.IsValidationError(err))

	noop := func(context.Context) error { return nil }
	_, err = New(noop, WithInterval(0))
	assert.True(t, errors.IsValidationError(err))
	_, err = New(noop, WithCycleTimeout(-time.Second))
	assert.True(t, errors.IsValidationError(err))
}

func TestTickSkippedWhileRunning(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var calls atomic.Int32
	s := newScheduler(t, blockingJob(started, release, &calls))

	assert.Equal(t, StateIdle, s.State())
	require.True(t, s.Tick())
	<-started
	assert.Equal(t, StateRunning, s.State())

	assert.False(t, s.Tick())
	assert.False(t, s.Tick())
	assert.ErrorIs(t, s.RunOnce(context.Background()), ErrCycleInProgress)

	close(release)
	waitIdle(t, s)

	st := s.Status()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(1), st.Runs)
	assert.Equal(t, int64(2), st.Skipped)
	assert.Zero(t, st.Failures)
	assert.NotEmpty(t, st.LastCycleID)
	require.NotNil(t, st.LastFinish)
	assert.Empty(t, st.LastError)
}

func TestRunOnce(t *testing.T) {
	var seenCycle string
	s := newScheduler(t, func(ctx context.Context) error {
		seenCycle = logging.CycleID(ctx)
		return nil
	})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, StateIdle, s.State())
	assert.NotEmpty(t, seenCycle)
	assert.Equal(t, seenCycle, s.Status().LastCycleID)

	first := seenCycle
	require.NoError(t, s.RunOnce(context.Background()))
	assert.NotEqual(t, first, seenCycle)
	assert.Equal(t, int64(2), s.Status().Runs)
}

func TestFailureIsolation(t *testing.T) {
	var calls atomic.Int32
	s := newScheduler(t, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.NewFetchFailedError("data-b", 3, errors.New("boom"))
		}
		return nil
	})

	err := s.RunOnce(context.Background())
	assert.True(t, errors.IsFetchFailed(err))
	assert.Equal(t, StateIdle, s.State())
	assert.Contains(t, s.Status().LastError, "boom")

	require.NoError(t, s.RunOnce(context.Background()))
	st := s.Status()
	assert.Equal(t, int64(2), st.Runs)
	assert.Equal(t, int64(1), st.Failures)
	assert.Empty(t, st.LastError)
}

func TestPanicIsRecovered(t *testing.T) {
	s := newScheduler(t, func(context.Context) error {
		panic("merge exploded")
	})

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merge exploded")
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, int64(1), s.Status().Failures)

	require.True(t, s.Tick())
	require.Eventually(t, func() bool { return s.Status().Failures == 2 }, 2*time.Second, time.Millisecond)
	waitIdle(t, s)
}

func TestCycleTimeout(t *testing.T) {
	s := newScheduler(t, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithCycleTimeout(20*time.Millisecond))

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(1), s.Status().Failures)
}

func TestStopWaitsForInFlightCycle(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var calls atomic.Int32
	s := newScheduler(t, blockingJob(started, release, &calls))

	require.True(t, s.Tick())
	<-started

	stopped := make(chan error, 1)
	go func() { stopped <- s.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a cycle was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-stopped)
	assert.Equal(t, StateStopped, s.State())
	assert.Equal(t, int64(1), s.Status().Runs)
	assert.Zero(t, s.Status().Failures)
}

func TestStopDeadlineCancelsCycle(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)
	var calls atomic.Int32
	s := newScheduler(t, blockingJob(started, release, &calls))

	require.True(t, s.Tick())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Stop(ctx)
	assert.True(t, errors.IsTimeout(err))
	assert.Equal(t, StateStopped, s.State())

	// The cancelled cycle finishes as a failure but never revives the scheduler.
	require.Eventually(t, func() bool { return s.Status().Failures == 1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, StateStopped, s.State())
}

func TestNoCyclesAfterStop(t *testing.T) {
	var calls atomic.Int32
	s := newScheduler(t, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	assert.False(t, s.Tick())
	assert.ErrorIs(t, s.RunOnce(context.Background()), ErrStopped)
	assert.ErrorIs(t, s.Start(context.Background()), ErrStopped)
	assert.Zero(t, calls.Load())
	assert.Equal(t, StateStopped, s.State())
}

func TestStartLoopFires(t *testing.T) {
	var calls atomic.Int32
	s := newScheduler(t, func(context.Context) error {
		calls.Add(1)
		return nil
	}, WithInterval(10*time.Millisecond))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	n := calls.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, n, calls.Load(), "no cycles after Stop")
}

func TestRunOnStart(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := newScheduler(t, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}, WithInterval(time.Hour), WithRunOnStart(true))

	require.NoError(t, s.Start(context.Background()))
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle did not run on start")
	}
}

func TestStatusJSONState(t *testing.T) {
	text, err := StateRunning.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "running", string(text))
	assert.Equal(t, "unknown", State(9).String())
}

func TestCanceledCycleLoggedAsWarning(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)
	var calls atomic.Int32
	tl := logging.NewTestLogger(t)
	s := newScheduler(t, blockingJob(started, release, &calls), WithLogger(tl.Logger))

	require.True(t, s.Tick())
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = s.Stop(ctx)

	require.Eventually(t, func() bool { return s.Status().Failures == 1 }, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return tl.Contains("Cycle canceled") }, 2*time.Second, time.Millisecond)
	assert.Contains(t, s.Status().LastError, context.Canceled.Error())
	tl.AssertNotContains(t, "Cycle failed")
}
