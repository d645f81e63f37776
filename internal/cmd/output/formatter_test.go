package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/agentstation/menumerge/pkg/menus"
)

func snapshot() *menus.Snapshot {
	return &menus.Snapshot{
		Data: menus.Groups{
			"hot drinks": {{
				ID:      3,
				SysName: "espresso",
				Name:    menus.NameMap{"en": "Espresso", "de": "Espresso doppio"},
				Price:   decimal.RequireFromString("2.5"),
				VatRate: menus.RateReduced,
			}},
		},
		VatRates: menus.Rates{
			menus.RateNormal:  {RatePct: decimal.NewFromInt(19), IsDefault: true},
			menus.RateReduced: {RatePct: decimal.NewFromInt(7)},
		},
		LastUpdate: utc.New(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)),
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"table", "JSON", "yaml", ""} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestItemsTable(t *testing.T) {
	data := ItemsTable(snapshot().Data, language.German)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, []string{"Hot Drinks", "3", "espresso", "Espresso doppio", "2.50", "reduced"}, data.Rows[0])
}

func TestRatesTable(t *testing.T) {
	data := RatesTable(snapshot().VatRates)
	assert.Equal(t, [][]string{
		{"normal", "19%", "yes"},
		{"reduced", "7%", ""},
	}, data.Rows)
}

func TestTableFormatterSnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, snapshot()))

	out := buf.String()
	assert.Contains(t, out, "espresso")
	assert.Contains(t, out, "2.50")
	assert.Contains(t, out, "2025-03-01 09:30:00 UTC")
}

func TestJSONFormatterKeepsWireFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, snapshot()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "vatRates")
	assert.Contains(t, decoded, "lastUpdate")
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, map[string]any{"groups": 2}))
	assert.Equal(t, "groups: 2\n", buf.String())
}

func TestTableFormatterFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"runs": 1}))
	assert.JSONEq(t, `{"runs":1}`, buf.String())
}
