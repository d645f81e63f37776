// Package reconciler merges the submitted primary dataset with the fetched
// secondary dataset into a snapshot.
//
// The secondary dataset is the base: its group keys and items define what the
// snapshot contains. Primary items never add entries; they only correct items
// the secondary already lists. Merging is pure, so identical inputs and clock
// produce identical snapshots.
package reconciler

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/menus"
)

// Reconciler merges datasets.
type Reconciler interface {
	// Merge combines primary corrections with the secondary base. A nil or empty
	// primary is allowed; a nil or empty secondary is not.
	Merge(primary *menus.PrimaryDataset, secondary *menus.SecondaryDataset) (*Result, error)

	// Strategy returns the conflict strategy in use.
	Strategy() Strategy
}

type reconciler struct {
	strategy Strategy
	clock    func() time.Time
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{strategy: o.strategy, clock: o.clock}, nil
}

// Strategy returns the conflict strategy in use.
func (r *reconciler) Strategy() Strategy {
	return r.strategy
}

// Merge implements Reconciler.
func (r *reconciler) Merge(primary *menus.PrimaryDataset, secondary *menus.SecondaryDataset) (*Result, error) {
	if secondary == nil || len(secondary.Data) == 0 {
		return nil, errors.NewMergeSourceMissingError("secondary")
	}

	var stats Stats
	overrides := indexItems(primary)

	groups := make(menus.Groups, len(secondary.Data))
	matched := make(map[menus.ItemID]struct{}, len(overrides))
	for _, key := range secondary.Data.Keys() {
		base := secondary.Data[key]
		merged := make([]menus.Item, 0, len(base))
		for _, item := range base {
			item = item.Clone()
			if p, ok := overrides[item.ID]; ok {
				item = r.strategy.ResolveItem(item, p.Clone())
				matched[item.ID] = struct{}{}
				stats.Overridden++
			} else {
				stats.SecondaryOnly++
			}
			merged = append(merged, item)
		}
		groups[key] = merged
	}
	stats.Groups = len(groups)
	stats.PrimaryOnly = len(overrides) - len(matched)

	var primaryRates menus.Rates
	if primary != nil {
		primaryRates = primary.VatRates
	}
	rates, collisions := r.mergeRates(secondary.VatRates, primaryRates)
	stats.RateCollisions = collisions

	snapshot := &menus.Snapshot{
		Data:       groups,
		VatRates:   rates,
		LastUpdate: utc.New(r.clock().UTC()),
		Products:   menus.CloneProducts(secondary.Products),
	}
	if err := snapshot.Validate(); err != nil {
		return nil, errors.NewMergeError("primary", "secondary", nil, err)
	}

	return &Result{
		Snapshot: snapshot,
		Strategy: r.strategy.Type(),
		Stats:    stats,
	}, nil
}

// mergeRates unions both mappings, resolving shared tags through the strategy,
// then leaves exactly the strategy's preferred tag marked as default.
func (r *reconciler) mergeRates(secondary, primary menus.Rates) (menus.Rates, int) {
	if len(secondary) == 0 && len(primary) == 0 {
		return nil, 0
	}

	merged := secondary.Clone()
	if merged == nil {
		merged = make(menus.Rates, len(primary))
	}

	collisions := 0
	for _, tag := range primary.Tags() {
		p := primary[tag]
		if s, ok := merged[tag]; ok {
			merged[tag] = r.strategy.ResolveRate(tag, s, p)
			collisions++
			continue
		}
		merged[tag] = p
	}

	def, hasDefault := r.strategy.DefaultRate(secondary, primary)
	for tag, rate := range merged {
		rate.IsDefault = hasDefault && tag == def
		merged[tag] = rate
	}
	return merged, collisions
}

// indexItems maps primary items by identifier. Later duplicates win, though
// validated datasets never contain any.
func indexItems(primary *menus.PrimaryDataset) map[menus.ItemID]menus.Item {
	if primary == nil {
		return nil
	}
	idx := make(map[menus.ItemID]menus.Item, len(primary.Menus))
	for _, item := range primary.Menus {
		idx[item.ID] = item
	}
	return idx
}
