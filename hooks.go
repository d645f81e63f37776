package menumerge

import (
	"sync"

	"github.com/agentstation/menumerge/pkg/menus"
	"github.com/agentstation/menumerge/pkg/reconciler"
)

// Hook function types for dataset events
type (
	// SnapshotReplacedHook is called after a cycle durably replaced the snapshot
	SnapshotReplacedHook func(snapshot *menus.Snapshot, stats reconciler.Stats)

	// PrimarySubmittedHook is called after a primary dataset was stored
	PrimarySubmittedHook func(primary *menus.PrimaryDataset)

	// CycleFailedHook is called when a cycle ends without replacing the snapshot
	CycleFailedHook func(cycleID string, err error)
)

// Hooks registers callbacks. Callbacks run synchronously on the goroutine
// that produced the event and must not block.
type Hooks interface {
	OnSnapshotReplaced(fn SnapshotReplacedHook)
	OnPrimarySubmitted(fn PrimarySubmittedHook)
	OnCycleFailed(fn CycleFailedHook)
}

// hooks manages event callbacks
type hooks struct {
	mu                 sync.RWMutex
	onSnapshotReplaced []SnapshotReplacedHook
	onPrimarySubmitted []PrimarySubmittedHook
	onCycleFailed      []CycleFailedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnSnapshotReplaced registers a callback for snapshot replacement.
func (c *client) OnSnapshotReplaced(fn SnapshotReplacedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onSnapshotReplaced = append(c.hooks.onSnapshotReplaced, fn)
}

// OnPrimarySubmitted registers a callback for primary dataset submissions.
func (c *client) OnPrimarySubmitted(fn PrimarySubmittedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onPrimarySubmitted = append(c.hooks.onPrimarySubmitted, fn)
}

// OnCycleFailed registers a callback for failed cycles.
func (c *client) OnCycleFailed(fn CycleFailedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onCycleFailed = append(c.hooks.onCycleFailed, fn)
}

func (h *hooks) snapshotReplaced(snapshot *menus.Snapshot, stats reconciler.Stats) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onSnapshotReplaced {
		fn(snapshot, stats)
	}
}

func (h *hooks) primarySubmitted(primary *menus.PrimaryDataset) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onPrimarySubmitted {
		fn(primary)
	}
}

func (h *hooks) cycleFailed(cycleID string, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onCycleFailed {
		fn(cycleID, err)
	}
}
