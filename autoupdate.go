package menumerge

import (
	"context"

	"github.com/agentstation/menumerge/pkg/scheduler"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoUpdater = (*client)(nil)

// AutoUpdater provides controls for the periodic cycle.
type AutoUpdater interface {
	// AutoUpdatesOn begins periodic cycles until ctx is done or Close is called
	AutoUpdatesOn(ctx context.Context) error

	// Status reports the scheduler state and counters
	Status() scheduler.Status

	// Close stops periodic cycles and waits for a running one to finish,
	// cancelling it if ctx expires first. The Client cannot run cycles afterwards.
	Close(ctx context.Context) error
}

// AutoUpdatesOn begins periodic cycles.
func (c *client) AutoUpdatesOn(ctx context.Context) error {
	return c.scheduler.Start(ctx)
}

// Status reports the scheduler state.
func (c *client) Status() scheduler.Status {
	return c.scheduler.Status()
}

// Close stops the scheduler. The store is left open; its owner closes it.
func (c *client) Close(ctx context.Context) error {
	return c.scheduler.Stop(ctx)
}
