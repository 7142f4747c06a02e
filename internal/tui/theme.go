package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style of the scan browser.
type Theme struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Selected   lipgloss.Style
	Header     lipgloss.Style
	Filter     lipgloss.Style
	Warning    lipgloss.Style
	Primary    lipgloss.Color
	Border     lipgloss.Color
	Muted      lipgloss.Color
	Warn       lipgloss.Color
	Foreground lipgloss.Color
}

// DefaultTheme matches the colors of the non-interactive reports.
var DefaultTheme = Theme{
	Primary:    lipgloss.Color("#4ECDC4"),
	Border:     lipgloss.Color("#404040"),
	Muted:      lipgloss.Color("#737373"),
	Warn:       lipgloss.Color("#FFE66D"),
	Foreground: lipgloss.Color("#fafafa"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#4ECDC4")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#4ECDC4")).
		Foreground(lipgloss.Color("#1a1a1a")).
		Bold(true),
	Header: lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		BorderBottom(true).
		Bold(true),
	Filter: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#1a1a1a")).
		Background(lipgloss.Color("#95E1D3")).
		Padding(0, 1),
	Warning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFE66D")),
}
