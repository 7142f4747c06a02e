// Package tui provides the interactive browser for scan reports.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/scrub-db/internal/dump"
	"github.com/Veraticus/scrub-db/internal/model"
)

// chrome is the number of lines drawn around the table.
const chrome = 8

// ScanBrowser lists the columns found by a scan and filters them by category.
type ScanBrowser struct {
	report *dump.Report
	source string
	// filters cycles through "all" (empty) and every category present.
	filters []model.Category
	filter  int

	table  table.Model
	help   help.Model
	keys   KeyMap
	theme  Theme
	width  int
	height int
}

// NewScanBrowser creates a browser over report.
func NewScanBrowser(source string, report *dump.Report) ScanBrowser {
	theme := DefaultTheme
	keys := DefaultKeyMap()

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Column", Width: 32},
			{Title: "Category", Width: 12},
			{Title: "Confidence", Width: 10},
			{Title: "Tier", Width: 12},
			{Title: "Values", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	s := table.DefaultStyles()
	s.Header = theme.Header
	s.Selected = theme.Selected
	t.SetStyles(s)
	t.KeyMap = table.KeyMap{
		LineUp:     keys.Up,
		LineDown:   keys.Down,
		PageUp:     keys.PageUp,
		PageDown:   keys.PageDown,
		GotoTop:    keys.Home,
		GotoBottom: keys.End,
	}

	present := make(map[model.Category]bool)
	for _, f := range report.Columns {
		present[f.Classification.Category] = true
	}
	filters := []model.Category{""}
	for _, c := range model.CategoryPriority {
		if present[c] {
			filters = append(filters, c)
		}
	}

	b := ScanBrowser{
		report:  report,
		source:  source,
		filters: filters,
		table:   t,
		help:    help.New(),
		keys:    keys,
		theme:   theme,
		width:   80,
		height:  24,
	}
	b.refresh()
	return b
}

// Init implements tea.Model.
func (b ScanBrowser) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (b ScanBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keys.Quit):
			return b, tea.Quit
		case key.Matches(msg, b.keys.ToggleHelp):
			b.help.ShowAll = !b.help.ShowAll
			return b, nil
		case key.Matches(msg, b.keys.NextCategory):
			b.filter = (b.filter + 1) % len(b.filters)
			b.refresh()
			return b, nil
		case key.Matches(msg, b.keys.PrevCategory):
			b.filter = (b.filter + len(b.filters) - 1) % len(b.filters)
			b.refresh()
			return b, nil
		}

	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.help.Width = msg.Width
		b.table.SetHeight(max(msg.Height-chrome, 3))
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

// View implements tea.Model.
func (b ScanBrowser) View() string {
	var sections []string

	sections = append(sections, b.theme.Title.Render("🧽 PII scan: "+b.source))
	sections = append(sections, b.theme.Subtitle.Render(fmt.Sprintf("%s · %d lines · %d data lines",
		b.report.Dialect.Type, b.report.Lines, b.report.DataLines)))

	label := "all categories"
	if c := b.Filter(); c != "" {
		label = string(c) + " → " + c.DefaultMethod().String()
	}
	sections = append(sections, b.theme.Filter.Render(fmt.Sprintf("%s (%d columns)", label, len(b.table.Rows()))))

	if len(b.report.Columns) == 0 {
		sections = append(sections, b.theme.Subtitle.Render("No PII found"))
	} else {
		sections = append(sections, b.table.View())
	}

	if skipped := b.report.Unparseable + b.report.MissingContext; skipped > 0 {
		sections = append(sections, b.theme.Warning.Render(fmt.Sprintf("%d statements were not inspected", skipped)))
	}

	sections = append(sections, b.help.View(b.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// Filter returns the category shown, or "" for all of them.
func (b ScanBrowser) Filter() model.Category {
	return b.filters[b.filter]
}

// refresh rebuilds the table rows for the current filter.
func (b *ScanBrowser) refresh() {
	filter := b.Filter()

	rows := make([]table.Row, 0, len(b.report.Columns))
	for _, f := range b.report.Columns {
		if filter != "" && f.Classification.Category != filter {
			continue
		}
		rows = append(rows, table.Row{
			strings.TrimPrefix(f.Table+"."+f.Column, "."),
			string(f.Classification.Category),
			fmt.Sprintf("%.2f", f.Classification.Confidence),
			string(f.Classification.Tier),
			fmt.Sprintf("%d", f.Values),
		})
	}
	b.table.SetRows(rows)
	b.table.GotoTop()
}
