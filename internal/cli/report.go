package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/scrub-db/internal/dialect"
	"github.com/Veraticus/scrub-db/internal/dump"
	"github.com/Veraticus/scrub-db/internal/model"
)

// RenderScanReport renders the result of a scan.
func RenderScanReport(source string, r *dump.Report) string {
	var sections []string

	sections = append(sections, FormatTitle("PII scan: "+source))
	sections = append(sections, fmt.Sprintf("%s %s\n%s %d lines, %d data lines",
		SubtleStyle.Render("Dialect:"), describeDialect(r.Dialect),
		SubtleStyle.Render("Read:   "), r.Lines, r.DataLines))

	if len(r.Categories) == 0 {
		sections = append(sections, FormatSuccess("No PII found"))
	} else {
		rows := make([][]string, 0, len(r.Categories))
		for _, category := range model.CategoryPriority {
			if n, ok := r.Categories[category]; ok {
				rows = append(rows, []string{string(category), fmt.Sprintf("%d", n), category.DefaultMethod().String()})
			}
		}
		sections = append(sections, BoldStyle.Render(ChartIcon+" Lines by category"))
		sections = append(sections, renderTable([]string{"Category", "Lines", "Default method"}, rows))
	}

	if len(r.Columns) > 0 {
		rows := make([][]string, 0, len(r.Columns))
		for _, f := range r.Columns {
			rows = append(rows, []string{
				f.Table + "." + f.Column,
				string(f.Classification.Category),
				fmt.Sprintf("%.2f", f.Classification.Confidence),
				string(f.Classification.Tier),
				fmt.Sprintf("%d", f.Values),
			})
		}
		sections = append(sections, BoldStyle.Render(FolderIcon+" Columns"))
		sections = append(sections, renderTable([]string{"Column", "Category", "Confidence", "Tier", "Values"}, rows))
	}

	if r.Unparseable > 0 || r.MissingContext > 0 {
		sections = append(sections, FormatWarning(fmt.Sprintf(
			"%d unparseable and %d context-free statements were not inspected", r.Unparseable, r.MissingContext)))
	}

	return strings.Join(sections, "\n\n") + "\n"
}

// RenderSummary renders the end-of-run diagnostic for one rewritten dump.
func RenderSummary(source, output string, stats dump.Stats) string {
	lines := []string{
		fmt.Sprintf("%s %s", SubtleStyle.Render("Dialect:    "), describeDialect(stats.Dialect)),
		fmt.Sprintf("%s %d", SubtleStyle.Render("Lines:      "), stats.Lines),
		fmt.Sprintf("%s %d", SubtleStyle.Render("Rows:       "), stats.Rows),
		fmt.Sprintf("%s %d", SubtleStyle.Render("Substituted:"), stats.Values),
		fmt.Sprintf("%s %d", SubtleStyle.Render("Distinct:   "), stats.CacheSize),
	}
	if output != "" {
		lines = append(lines, fmt.Sprintf("%s %s", SubtleStyle.Render("Output:     "), output))
	}

	body := strings.Join(lines, "\n")
	if skipped := stats.Unparseable + stats.MissingContext; skipped > 0 {
		body += "\n\n" + FormatWarning(fmt.Sprintf("%d statements passed through unchanged (%d unparseable, %d without column context)",
			skipped, stats.Unparseable, stats.MissingContext))
	}

	return RenderBox(ScrubIcon+" "+source, body) + "\n"
}

// RenderDetection renders the detected dialect of a dump or connection string.
func RenderDetection(source string, result dialect.Result) string {
	var b strings.Builder
	b.WriteString(FormatTitle("Dialect of " + source))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n", SubtleStyle.Render("Dialect:"), describeDialect(result)))

	if len(result.Indicators) > 0 {
		indicators := append([]string(nil), result.Indicators...)
		sort.Strings(indicators)
		b.WriteString(fmt.Sprintf("%s %s\n", SubtleStyle.Render("Matched:"), strings.Join(indicators, ", ")))
	}

	if name, ok := result.DefaultOutput(); ok {
		b.WriteString(fmt.Sprintf("%s %s\n", SubtleStyle.Render("Output: "), name))
	} else {
		b.WriteString(FormatWarning("No default output; pass --dialect or --output") + "\n")
	}
	return b.String()
}

func describeDialect(r dialect.Result) string {
	if r.Type == model.DatabaseUnknown {
		return WarningStyle.Render(string(r.Type))
	}
	return SuccessStyle.Render(string(r.Type)) + SubtleStyle.Render(" ("+string(r.Tier)+")")
}

// renderTable renders rows under a header with left-aligned columns.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		rendered := make([]string, len(cells))
		for i, cell := range cells {
			rendered[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	out := []string{render(headers, TableHeaderStyle)}
	for _, row := range rows {
		out = append(out, render(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}
