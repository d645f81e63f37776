package reconciler

import (
	"strings"

	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/menus"
)

// StrategyType represents the type of reconciliation strategy.
type StrategyType string

// String returns the string representation of a strategy type.
func (s StrategyType) String() string {
	return string(s)
}

// Name returns the human readable name of the strategy type.
func (s StrategyType) Name() string {
	words := strings.Split(s.String(), "-")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

const (
	// StrategyTypePrimaryAuthority lets the submitted dataset correct the fetched one.
	StrategyTypePrimaryAuthority StrategyType = "primary-authority"
	// StrategyTypeSecondaryAuthority keeps the fetched dataset's values on every collision.
	StrategyTypeSecondaryAuthority StrategyType = "secondary-authority"
)

// Strategy decides which side wins when both datasets describe the same thing.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Description returns a human-readable description
	Description() string

	// ResolveItem combines a secondary item with the primary item sharing its identifier.
	ResolveItem(secondary, primary menus.Item) menus.Item

	// ResolveRate picks the category for a tag declared by both datasets.
	ResolveRate(tag menus.RateTag, secondary, primary menus.Rate) menus.Rate

	// DefaultRate picks the single default tag of the merged mapping.
	DefaultRate(secondary, primary menus.Rates) (menus.RateTag, bool)
}

// ParseStrategy returns the strategy registered under name.
func ParseStrategy(name string) (Strategy, error) {
	switch StrategyType(strings.ToLower(strings.TrimSpace(name))) {
	case "", StrategyTypePrimaryAuthority:
		return NewPrimaryAuthorityStrategy(), nil
	case StrategyTypeSecondaryAuthority:
		return NewSecondaryAuthorityStrategy(), nil
	default:
		return nil, errors.NewValidationError("strategy", name, "unknown merge strategy")
	}
}

type baseStrategy struct {
	typ         StrategyType
	description string
}

// Type returns the strategy type.
func (s *baseStrategy) Type() StrategyType {
	return s.typ
}

// Description returns a human-readable description.
func (s *baseStrategy) Description() string {
	return s.description
}

// PrimaryAuthorityStrategy applies primary corrections on top of the secondary base.
type PrimaryAuthorityStrategy struct {
	baseStrategy
}

// NewPrimaryAuthorityStrategy creates the default strategy.
func NewPrimaryAuthorityStrategy() Strategy {
	return &PrimaryAuthorityStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypePrimaryAuthority,
			description: "Primary values override secondary names, prices and rate categories",
		},
	}
}

// ResolveItem keeps the secondary item and overrides its display name and price.
func (s *PrimaryAuthorityStrategy) ResolveItem(secondary, primary menus.Item) menus.Item {
	secondary.Name = primary.Name.Clone()
	secondary.Price = primary.Price
	return secondary
}

// ResolveRate returns the primary category.
func (s *PrimaryAuthorityStrategy) ResolveRate(_ menus.RateTag, _, primary menus.Rate) menus.Rate {
	return primary
}

// DefaultRate prefers the primary default. The secondary default only survives
// on a tag the primary does not declare, since a declared primary category
// carries its own flag.
func (s *PrimaryAuthorityStrategy) DefaultRate(secondary, primary menus.Rates) (menus.RateTag, bool) {
	if tag, ok := primary.Default(); ok {
		return tag, true
	}
	tag, ok := secondary.Default()
	if !ok || primary.Has(tag) {
		return "", false
	}
	return tag, true
}

// SecondaryAuthorityStrategy keeps upstream values on collision; primary data only
// fills rate tags the secondary does not declare.
type SecondaryAuthorityStrategy struct {
	baseStrategy
}

// NewSecondaryAuthorityStrategy creates a strategy where the fetched dataset wins.
func NewSecondaryAuthorityStrategy() Strategy {
	return &SecondaryAuthorityStrategy{
		baseStrategy: baseStrategy{
			typ:         StrategyTypeSecondaryAuthority,
			description: "Secondary values win every collision; primary only adds missing rate categories",
		},
	}
}

// ResolveItem returns the secondary item unchanged.
func (s *SecondaryAuthorityStrategy) ResolveItem(secondary, _ menus.Item) menus.Item {
	return secondary
}

// ResolveRate returns the secondary category.
func (s *SecondaryAuthorityStrategy) ResolveRate(_ menus.RateTag, secondary, _ menus.Rate) menus.Rate {
	return secondary
}

// DefaultRate prefers the secondary default, falling back to the primary one.
func (s *SecondaryAuthorityStrategy) DefaultRate(secondary, primary menus.Rates) (menus.RateTag, bool) {
	if tag, ok := secondary.Default(); ok {
		return tag, true
	}
	return primary.Default()
}
