package menus

import (
	"fmt"
	"sort"

	"github.com/agentstation/utc"

	"github.com/agentstation/menumerge/pkg/errors"
)

// Product is an auxiliary label record carried through from the secondary source.
type Product map[string]string

// CloneProducts returns a deep copy of the product labels.
func CloneProducts(products []Product) []Product {
	if products == nil {
		return nil
	}
	out := make([]Product, len(products))
	for i, p := range products {
		c := make(Product, len(p))
		for k, v := range p {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

// Groups maps a group key to the items it holds.
type Groups map[string][]Item

// Keys returns the group keys in sorted order.
func (g Groups) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ItemCount returns the number of items across all groups.
func (g Groups) ItemCount() int {
	n := 0
	for _, items := range g {
		n += len(items)
	}
	return n
}

// Clone returns a deep copy of the groups.
func (g Groups) Clone() Groups {
	if g == nil {
		return nil
	}
	out := make(Groups, len(g))
	for k, items := range g {
		out[k] = cloneItems(items)
	}
	return out
}

func (g Groups) validate() error {
	for _, key := range g.Keys() {
		if key == "" {
			return errors.NewValidationError("data", nil, "empty group key")
		}
		if err := validateItems(fmt.Sprintf("data[%s]", key), g[key]); err != nil {
			return err
		}
	}
	return nil
}

func (g Groups) checkReferences(rates Rates) error {
	for _, key := range g.Keys() {
		if err := checkReferences(fmt.Sprintf("data[%s]", key), g[key], rates); err != nil {
			return err
		}
	}
	return nil
}

// PrimaryDataset is the operator-submitted dataset ("data-a"). It supplies
// corrections that win over the secondary source.
type PrimaryDataset struct {
	Menus    []Item `json:"menus" yaml:"menus"`
	VatRates Rates  `json:"vatRates" yaml:"vatRates"`
}

// Clone returns a deep copy of the dataset.
func (p *PrimaryDataset) Clone() *PrimaryDataset {
	if p == nil {
		return nil
	}
	return &PrimaryDataset{
		Menus:    cloneItems(p.Menus),
		VatRates: p.VatRates.Clone(),
	}
}

// IsEmpty reports whether the dataset carries nothing to merge.
func (p *PrimaryDataset) IsEmpty() bool {
	return p == nil || (len(p.Menus) == 0 && len(p.VatRates) == 0)
}

// Validate checks items, rates, and that every item's rate is declared.
func (p *PrimaryDataset) Validate() error {
	if p == nil {
		return errors.NewValidationError("", nil, "primary dataset is required")
	}
	if err := validateItems("menus", p.Menus); err != nil {
		return err
	}
	if err := p.VatRates.Validate(); err != nil {
		return err
	}
	return checkReferences("menus", p.Menus, p.VatRates)
}

// SecondaryDataset is the dataset fetched from the upstream source ("data-b").
// It forms the base of every merge.
type SecondaryDataset struct {
	Data     Groups    `json:"data" yaml:"data"`
	VatRates Rates     `json:"vatRates,omitempty" yaml:"vatRates,omitempty"`
	Products []Product `json:"products,omitempty" yaml:"products,omitempty"`
}

// Clone returns a deep copy of the dataset.
func (s *SecondaryDataset) Clone() *SecondaryDataset {
	if s == nil {
		return nil
	}
	return &SecondaryDataset{
		Data:     s.Data.Clone(),
		VatRates: s.VatRates.Clone(),
		Products: CloneProducts(s.Products),
	}
}

// Validate checks the groups, the rates, and that every item's rate is
// declared by the dataset itself.
func (s *SecondaryDataset) Validate() error {
	if s == nil {
		return errors.NewValidationError("", nil, "secondary dataset is required")
	}
	if err := s.Data.validate(); err != nil {
		return err
	}
	if err := s.VatRates.Validate(); err != nil {
		return err
	}
	return s.Data.checkReferences(s.VatRates)
}

// Snapshot is the merged result ("data-c"). It is replaced wholesale by every
// successful cycle and is the only dataset served to readers.
type Snapshot struct {
	Data       Groups    `json:"data" yaml:"data"`
	VatRates   Rates     `json:"vatRates,omitempty" yaml:"vatRates,omitempty"`
	LastUpdate utc.Time  `json:"lastUpdate" yaml:"lastUpdate"`
	Products   []Product `json:"products,omitempty" yaml:"products,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		Data:       s.Data.Clone(),
		VatRates:   s.VatRates.Clone(),
		LastUpdate: s.LastUpdate,
		Products:   CloneProducts(s.Products),
	}
}

// Validate checks the snapshot. Every item must reference a declared rate.
func (s *Snapshot) Validate() error {
	if s == nil {
		return errors.NewValidationError("", nil, "snapshot is required")
	}
	if err := s.Data.validate(); err != nil {
		return err
	}
	if err := s.VatRates.Validate(); err != nil {
		return err
	}
	return s.Data.checkReferences(s.VatRates)
}
