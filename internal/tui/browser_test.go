package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/scrub-db/internal/dialect"
	"github.com/Veraticus/scrub-db/internal/dump"
	"github.com/Veraticus/scrub-db/internal/model"
)

func testReport() *dump.Report {
	return &dump.Report{
		Dialect:   dialect.Result{Type: model.DatabasePostgreSQL, Tier: dialect.TierSyntax},
		Lines:     12,
		DataLines: 4,
		Columns: []dump.Finding{
			{Table: "public.users", Column: "email", Values: 3,
				Classification: model.Classification{Category: model.CategoryEmail, Tier: model.TierName, Confidence: 0.95}},
			{Table: "public.users", Column: "phone", Values: 3,
				Classification: model.Classification{Category: model.CategoryPhone, Tier: model.TierName, Confidence: 0.95}},
			{Table: "public.orders", Column: "contact", Values: 1,
				Classification: model.Classification{Category: model.CategoryEmail, Tier: model.TierData, Confidence: 0.80}},
		},
	}
}

func press(t *testing.T, m tea.Model, keys ...tea.KeyMsg) tea.Model {
	t.Helper()
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestScanBrowser_Filters(t *testing.T) {
	b := NewScanBrowser("dump.sql", testReport())

	assert.Equal(t, []model.Category{"", model.CategoryEmail, model.CategoryPhone}, b.filters)
	assert.Equal(t, model.Category(""), b.Filter())
	assert.Len(t, b.table.Rows(), 3)

	tests := []struct {
		name string
		keys []tea.KeyMsg
		want model.Category
		rows int
	}{
		{"tab", []tea.KeyMsg{{Type: tea.KeyTab}}, model.CategoryEmail, 2},
		{"c twice", []tea.KeyMsg{runes("c"), runes("c")}, model.CategoryPhone, 1},
		{"wraps forward", []tea.KeyMsg{runes("c"), runes("c"), runes("c")}, "", 3},
		{"wraps backward", []tea.KeyMsg{{Type: tea.KeyShiftTab}}, model.CategoryPhone, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := press(t, b, tt.keys...).(ScanBrowser)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Filter())
			assert.Len(t, got.table.Rows(), tt.rows)
		})
	}
}

func TestScanBrowser_View(t *testing.T) {
	b := NewScanBrowser("dump.sql", testReport())
	view := b.View()

	assert.Contains(t, view, "dump.sql")
	assert.Contains(t, view, "postgresql")
	assert.Contains(t, view, "public.users.email")
	assert.Contains(t, view, "public.orders.contact")
	assert.Contains(t, view, "all categories (3 columns)")

	m := press(t, b, runes("c"), runes("c"))
	view = m.View()
	assert.Contains(t, view, "phone → fake_phone (1 columns)")
	assert.NotContains(t, view, "public.users.email")
}

func TestScanBrowser_Empty(t *testing.T) {
	b := NewScanBrowser("empty.sql", &dump.Report{MissingContext: 2})

	assert.Equal(t, []model.Category{""}, b.filters)
	m := press(t, b, runes("c"))
	assert.Equal(t, model.Category(""), m.(ScanBrowser).Filter())

	view := m.View()
	assert.Contains(t, view, "No PII found")
	assert.Contains(t, view, "2 statements were not inspected")
}

func TestScanBrowser_HelpAndQuit(t *testing.T) {
	b := NewScanBrowser("dump.sql", testReport())

	m := press(t, b, runes("?"))
	assert.True(t, m.(ScanBrowser).help.ShowAll)
	assert.Contains(t, m.View(), "previous category")

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestScanBrowser_WindowSize(t *testing.T) {
	b := NewScanBrowser("dump.sql", testReport())

	m, _ := b.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	large := m.(ScanBrowser)
	assert.Equal(t, 120, large.width)
	assert.Equal(t, 40, large.height)
	assert.Equal(t, 120, large.help.Width)

	m, _ = large.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	small := m.(ScanBrowser)
	assert.Less(t, small.table.Height(), large.table.Height())
}
