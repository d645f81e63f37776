// Package menumerge keeps a merged menu snapshot up to date.
//
// A Client owns the reconciliation cycle: it reads the operator-submitted
// primary dataset from the store, fetches the secondary dataset from the
// upstream source, merges the two and atomically replaces the stored
// snapshot. Cycles run on a fixed interval and never overlap. A failed cycle
// leaves the previous snapshot in place.
//
// Example usage:
//
//	backend, err := database.Open(ctx, database.Config{URL: "sqlite://menumerge.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	st, err := store.New(ctx, backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	src, err := fetcher.New("https://upstream.example.com/menus")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mm, err := menumerge.New(
//	    menumerge.WithStore(st),
//	    menumerge.WithSource(src),
//	    menumerge.WithAutoUpdateInterval(time.Minute),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mm.Close(context.Background())
//
//	mm.OnSnapshotReplaced(func(s *menus.Snapshot, stats reconciler.Stats) {
//	    log.Printf("snapshot replaced: %d groups", stats.Groups)
//	})
//
//	if err := mm.AutoUpdatesOn(ctx); err != nil {
//	    log.Fatal(err)
//	}
package menumerge

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/fetcher"
	"github.com/agentstation/menumerge/pkg/reconciler"
	"github.com/agentstation/menumerge/pkg/scheduler"
	"github.com/agentstation/menumerge/pkg/store"
)

// Client reads and writes the datasets and drives the reconciliation cycle.
type Client interface {
	// Datasets provides access to the stored primary dataset and snapshot
	Datasets

	// Updater runs reconciliation cycles on demand
	Updater

	// AutoUpdater controls the periodic cycle
	AutoUpdater

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	store      *store.Store
	source     fetcher.Source
	reconciler reconciler.Reconciler
	scheduler  *scheduler.Scheduler
	logger     *zerolog.Logger

	lastResult atomic.Pointer[reconciler.Result]
	hooks      *hooks
}

// New creates a Client. A store is required; a source is only required for
// running cycles.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}
	if o.store == nil {
		return nil, errors.NewConfigError("client", "a store is required", nil)
	}

	c := &client{
		options: o,
		store:   o.store,
		source:  o.source,
		logger:  o.logger,
		hooks:   newHooks(),
	}

	c.reconciler = o.reconciler
	if c.reconciler == nil {
		if c.reconciler, err = reconciler.New(); err != nil {
			return nil, errors.WrapResource("create", "reconciler", "", err)
		}
	}

	c.scheduler, err = scheduler.New(c.job,
		scheduler.WithInterval(o.autoUpdateInterval),
		scheduler.WithCycleTimeout(o.cycleTimeout),
		scheduler.WithRunOnStart(o.runOnStart),
		scheduler.WithLogger(o.logger),
	)
	if err != nil {
		return nil, errors.WrapResource("create", "scheduler", "", err)
	}

	if o.autoUpdatesEnabled {
		if err := c.AutoUpdatesOn(context.Background()); err != nil {
			return nil, errors.WrapResource("start", "auto-updates", "", err)
		}
	}

	return c, nil
}
