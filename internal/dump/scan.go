package dump

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/scrub-db/internal/dialect"
	"github.com/Veraticus/scrub-db/internal/model"
)

// Finding is what a scan learned about one column.
type Finding struct {
	Table          string
	Column         string
	Classification model.Classification
	// Values is the number of values the classification was based on.
	Values int
}

// Report is the result of a detection-only pass over a dump.
type Report struct {
	SessionID string
	Dialect   dialect.Result
	// Categories counts lines holding at least one value of a category.
	Categories map[model.Category]int
	Lines      int
	// DataLines counts INSERT statements and COPY rows.
	DataLines      int
	Unparseable    int
	MissingContext int
	Columns        []Finding

	findings map[string]*Finding
	// pending collects the categories seen per line of the text not yet
	// emitted.
	pending map[lineCategory]bool
}

type lineCategory struct {
	line     int
	category model.Category
}

// Scan classifies every value of a dump without rewriting anything. Column
// rules are ignored: a scan reports what the classifier finds.
func Scan(ctx context.Context, r io.Reader, opts Options) (*Report, error) {
	s, err := NewSession(opts)
	if err != nil {
		return nil, err
	}

	report := &Report{
		SessionID:  s.ID,
		Categories: make(map[model.Category]int),
		findings:   make(map[string]*Finding),
		pending:    make(map[lineCategory]bool),
	}
	s.scan = report

	err = s.run(ctx, r, func(string) error {
		report.flushLine()
		return nil
	})

	report.Dialect = s.detected
	report.Lines = s.stats.Lines
	report.DataLines = s.stats.Statements
	report.Unparseable = s.stats.Unparseable
	report.MissingContext = s.stats.MissingContext
	report.Columns = report.sortedFindings()

	slog.Info("Scan complete",
		"session_id", s.ID,
		"dialect", s.detected.Type,
		"lines", report.Lines,
		"data_lines", report.DataLines,
		"pii_columns", len(report.Columns))
	return report, err
}

// observe classifies one value and records it against its column.
func (s *Session) observe(table []string, column, value string) {
	r := s.scan
	c := s.classify(table, column, value)
	if !c.IsPII() {
		return
	}
	r.pending[lineCategory{line: s.valueLine, category: c.Category}] = true

	key := tableKey(table) + "." + strings.ToLower(column)
	f, ok := r.findings[key]
	if !ok {
		f = &Finding{Table: strings.Join(table, "."), Column: column, Classification: c}
		r.findings[key] = f
	}
	// A name match describes the whole column; data matches keep the
	// strongest result seen.
	if c.Confidence > f.Classification.Confidence {
		f.Classification = c
	}
	f.Values++
}

// flushLine counts the lines holding each category in the text emitted
// since the previous call.
func (r *Report) flushLine() {
	if len(r.pending) == 0 {
		return
	}
	for lc := range r.pending {
		r.Categories[lc.category]++
	}
	clear(r.pending)
}

func (r *Report) sortedFindings() []Finding {
	out := make([]Finding, 0, len(r.findings))
	for _, f := range r.findings {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return out[i].Column < out[j].Column
	})
	return out
}
