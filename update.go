package menumerge

import (
	"context"

	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/logging"
	"github.com/agentstation/menumerge/pkg/menus"
	"github.com/agentstation/menumerge/pkg/reconciler"
)

// Compile-time interface check to ensure proper implementation.
var _ Updater = (*client)(nil)

// Updater runs reconciliation cycles.
type Updater interface {
	// Update runs one cycle now and waits for it. It returns
	// scheduler.ErrCycleInProgress if a cycle is already running.
	Update(ctx context.Context) (*reconciler.Result, error)

	// Trigger starts a cycle in the background. It reports false when a
	// cycle is already running or the client is closed.
	Trigger() bool
}

// Update runs one cycle synchronously.
func (c *client) Update(ctx context.Context) (*reconciler.Result, error) {
	if err := c.scheduler.RunOnce(ctx); err != nil {
		return nil, err
	}
	return c.lastResult.Load(), nil
}

// Trigger starts a cycle without waiting for it.
func (c *client) Trigger() bool {
	return c.scheduler.Tick()
}

// job is what the scheduler runs each cycle.
func (c *client) job(ctx context.Context) error {
	result, err := c.cycle(ctx)
	if err != nil {
		c.hooks.cycleFailed(logging.CycleID(ctx), err)
		return err
	}
	c.lastResult.Store(result)
	c.hooks.snapshotReplaced(result.Snapshot, result.Stats)
	return nil
}

// cycle reads the primary dataset, fetches the secondary one, merges them and
// replaces the snapshot. Any error leaves the stored snapshot untouched.
func (c *client) cycle(ctx context.Context) (*reconciler.Result, error) {
	logger := logging.FromContext(ctx)

	if c.source == nil {
		return nil, errors.NewConfigError("client", "no secondary source configured", nil)
	}

	primary, err := c.store.Primary(ctx)
	switch {
	case errors.IsNotFound(err):
		logger.Debug().Msg("No primary dataset submitted yet, merging secondary only")
		primary = &menus.PrimaryDataset{}
	case err != nil:
		return nil, err
	}

	secondary, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	result, err := c.reconciler.Merge(primary, secondary)
	if err != nil {
		return nil, err
	}

	if err := c.store.ReplaceSnapshot(ctx, result.Snapshot); err != nil {
		return nil, err
	}

	logger.Info().
		Str("strategy", result.Strategy.String()).
		Object("stats", result.Stats).
		Msg("Snapshot replaced")
	return result, nil
}
