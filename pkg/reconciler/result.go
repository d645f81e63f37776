package reconciler

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/menumerge/pkg/menus"
)

// Result is the outcome of a merge.
type Result struct {
	Snapshot *menus.Snapshot
	Strategy StrategyType
	Stats    Stats
}

// Stats counts what the merge did.
type Stats struct {
	Groups         int `json:"groups"`          // group keys in the snapshot
	Overridden     int `json:"overridden"`      // secondary items corrected by a primary item
	SecondaryOnly  int `json:"secondary_only"`  // secondary items carried through unchanged
	PrimaryOnly    int `json:"primary_only"`    // primary items dropped because the secondary does not list them
	RateCollisions int `json:"rate_collisions"` // rate tags declared by both datasets
}

// MarshalZerologObject lets Stats be logged with Object("stats", stats).
func (s Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Int("groups", s.Groups).
		Int("overridden", s.Overridden).
		Int("secondary_only", s.SecondaryOnly).
		Int("primary_only", s.PrimaryOnly).
		Int("rate_collisions", s.RateCollisions)
}
