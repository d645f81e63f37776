package output

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/menumerge/pkg/menus"
)

// ItemsTable lists items group by group in their stored order.
func ItemsTable(groups menus.Groups, lang language.Tag) Data {
	title := cases.Title(lang)
	data := Data{
		Headers:      []string{"Group", "ID", "System Name", "Name", "Price", "VAT"},
		RightAligned: []int{1, 4},
	}
	for _, key := range groups.Keys() {
		group := title.String(key)
		for _, item := range groups[key] {
			data.Rows = append(data.Rows, []string{
				group,
				item.ID.String(),
				item.SysName,
				item.Name.Preferred(lang),
				item.Price.StringFixed(2),
				item.VatRate.String(),
			})
		}
	}
	return data
}

// RatesTable lists rate categories sorted by tag.
func RatesTable(rates menus.Rates) Data {
	data := Data{
		Headers:      []string{"VAT Rate", "Percent", "Default"},
		RightAligned: []int{1},
	}
	for _, tag := range rates.Tags() {
		rate := rates[tag]
		def := ""
		if rate.IsDefault {
			def = "yes"
		}
		data.Rows = append(data.Rows, []string{tag.String(), rate.RatePct.String() + "%", def})
	}
	return data
}
