// Package menus defines the datasets menumerge reconciles: the submitted
// primary dataset, the fetched secondary dataset, and the merged snapshot
// served to readers.
//
// Prices and rate percentages are exact decimals and travel over the wire as
// plain JSON numbers.
package menus

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/agentstation/menumerge/pkg/errors"
)

// ItemID identifies an item. Identifiers are shared between the primary and
// secondary sources, which is what makes overrides possible.
type ItemID int64

// String returns the decimal form of the identifier.
func (id ItemID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// NameMap maps a BCP 47 language tag to a localized display name.
type NameMap map[string]string

// Clone returns an independent copy of the map.
func (n NameMap) Clone() NameMap {
	if n == nil {
		return nil
	}
	out := make(NameMap, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}

// Languages returns the language tags in sorted order.
func (n NameMap) Languages() []string {
	langs := make([]string, 0, len(n))
	for lang := range n {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Preferred returns the display name best matching the wanted languages,
// falling back to the first language in sorted order.
func (n NameMap) Preferred(want ...language.Tag) string {
	if len(n) == 0 {
		return ""
	}
	langs := n.Languages()
	if len(want) > 0 {
		supported := make([]language.Tag, 0, len(langs))
		for _, l := range langs {
			supported = append(supported, language.Make(l))
		}
		_, idx, conf := language.NewMatcher(supported).Match(want...)
		if conf != language.No {
			return n[langs[idx]]
		}
	}
	return n[langs[0]]
}

// Validate checks that every key is a well-formed language tag with a non-empty name.
func (n NameMap) Validate() error {
	if len(n) == 0 {
		return errors.NewValidationError("name", nil, "at least one localized name is required")
	}
	for lang, name := range n {
		if _, err := language.Parse(lang); err != nil {
			return errors.NewValidationError("name", lang, fmt.Sprintf("invalid language tag %q", lang))
		}
		if name == "" {
			return errors.NewValidationError("name", lang, fmt.Sprintf("empty name for language %q", lang))
		}
	}
	return nil
}

// Item is a single menu entry.
type Item struct {
	ID      ItemID          `json:"id" yaml:"id"`
	SysName string          `json:"sysName" yaml:"sysName"`
	Name    NameMap         `json:"name" yaml:"name"`
	Price   decimal.Decimal `json:"price" yaml:"price"`
	VatRate RateTag         `json:"vatRate" yaml:"vatRate"`
}

// MarshalJSON writes the price as a plain JSON number.
func (i Item) MarshalJSON() ([]byte, error) {
	type plain Item
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain(i), number(i.Price)})
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	i.Name = i.Name.Clone()
	return i
}

// Validate checks the item's own fields. Rate references are checked by the owning dataset.
func (i Item) Validate() error {
	if i.ID <= 0 {
		return errors.NewValidationError("id", i.ID, "must be greater than zero")
	}
	if i.SysName == "" {
		return errors.NewValidationError("sysName", i.ID, "is required")
	}
	if err := i.Name.Validate(); err != nil {
		return err
	}
	if !i.Price.IsPositive() {
		return errors.NewValidationError("price", i.Price.String(), "must be greater than zero")
	}
	if i.VatRate == "" {
		return errors.NewValidationError("vatRate", i.ID, "is required")
	}
	return nil
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

func validateItems(field string, items []Item) error {
	seen := make(map[ItemID]struct{}, len(items))
	for idx, item := range items {
		if err := item.Validate(); err != nil {
			return errors.WrapValidation(fmt.Sprintf("%s[%d]", field, idx), err)
		}
		if _, dup := seen[item.ID]; dup {
			return errors.NewValidationError(field, item.ID, fmt.Sprintf("duplicate item id %d", item.ID))
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// number renders d without the quotes decimal adds by default.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
