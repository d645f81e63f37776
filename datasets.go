package menumerge

import (
	"context"

	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/logging"
	"github.com/agentstation/menumerge/pkg/menus"
)

// Compile-time interface check to ensure proper implementation.
var _ Datasets = (*client)(nil)

// Datasets reads and writes the stored datasets.
type Datasets interface {
	// Snapshot returns the current merged snapshot, or an error matching
	// errors.ErrNotFound when no cycle has succeeded yet. The result is
	// shared and must not be modified.
	Snapshot(ctx context.Context) (*menus.Snapshot, error)

	// Primary returns the last submitted primary dataset.
	Primary(ctx context.Context) (*menus.PrimaryDataset, error)

	// SubmitPrimary validates and durably stores a primary dataset. It is
	// merged by the next cycle; no merge runs synchronously.
	SubmitPrimary(ctx context.Context, primary *menus.PrimaryDataset) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

func (c *client) Snapshot(ctx context.Context) (*menus.Snapshot, error) {
	return c.store.Snapshot(ctx)
}

func (c *client) Primary(ctx context.Context) (*menus.PrimaryDataset, error) {
	return c.store.Primary(ctx)
}

func (c *client) SubmitPrimary(ctx context.Context, primary *menus.PrimaryDataset) error {
	if primary == nil {
		return errors.NewValidationError("", nil, "primary dataset is required")
	}
	if err := primary.Validate(); err != nil {
		return err
	}
	if err := c.store.SubmitPrimary(ctx, primary); err != nil {
		return err
	}

	logging.FromContext(ctx).Info().
		Int("items", len(primary.Menus)).
		Int("rates", len(primary.VatRates)).
		Msg("Primary dataset submitted")

	c.hooks.primarySubmitted(primary)
	return nil
}

func (c *client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}
