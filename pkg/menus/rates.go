package menus

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/agentstation/menumerge/pkg/errors"
)

// RateTag names a tax-rate category. Datasets may declare arbitrary tags;
// the well-known ones are listed below.
type RateTag string

// Well-known rate tags.
const (
	RateNormal  RateTag = "normal"
	RateReduced RateTag = "reduced"
	RateNone    RateTag = "none"
)

// String returns the tag as a string.
func (t RateTag) String() string {
	return string(t)
}

// Rate is a tax-rate category.
type Rate struct {
	RatePct   decimal.Decimal `json:"ratePct" yaml:"ratePct"`
	IsDefault bool            `json:"isDefault" yaml:"isDefault"`
}

// MarshalJSON writes the percentage as a plain JSON number.
func (r Rate) MarshalJSON() ([]byte, error) {
	type plain Rate
	return json.Marshal(struct {
		plain
		RatePct json.Number `json:"ratePct"`
	}{plain(r), number(r.RatePct)})
}

// Equal reports whether two rates are identical.
func (r Rate) Equal(other Rate) bool {
	return r.IsDefault == other.IsDefault && r.RatePct.Equal(other.RatePct)
}

// Rates maps each tag to its category. At most one entry is the default.
type Rates map[RateTag]Rate

// Clone returns an independent copy of the mapping.
func (r Rates) Clone() Rates {
	if r == nil {
		return nil
	}
	out := make(Rates, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Tags returns the declared tags in sorted order.
func (r Rates) Tags() []RateTag {
	tags := make([]RateTag, 0, len(r))
	for tag := range r {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Default returns the tag marked as default, if any.
func (r Rates) Default() (RateTag, bool) {
	for _, tag := range r.Tags() {
		if r[tag].IsDefault {
			return tag, true
		}
	}
	return "", false
}

// Has reports whether the tag is declared.
func (r Rates) Has(tag RateTag) bool {
	_, ok := r[tag]
	return ok
}

// Validate checks percentages and the single-default rule.
func (r Rates) Validate() error {
	var defaults []string
	for _, tag := range r.Tags() {
		rate := r[tag]
		if tag == "" {
			return errors.NewValidationError("vatRates", nil, "empty rate tag")
		}
		if !rate.RatePct.IsPositive() {
			return errors.NewValidationError("vatRates", tag, fmt.Sprintf("ratePct for %q must be greater than zero", tag))
		}
		if rate.IsDefault {
			defaults = append(defaults, string(tag))
		}
	}
	if len(defaults) > 1 {
		return errors.NewValidationError("vatRates", defaults, fmt.Sprintf("only one default rate allowed, got %v", defaults))
	}
	return nil
}

// checkReferences ensures every item's tag is declared in rates.
func checkReferences(field string, items []Item, rates Rates) error {
	for _, item := range items {
		if !rates.Has(item.VatRate) {
			return errors.NewValidationError(field, item.VatRate,
				fmt.Sprintf("item %d references undeclared rate %q", item.ID, item.VatRate))
		}
	}
	return nil
}
