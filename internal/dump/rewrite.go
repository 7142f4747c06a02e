package dump

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Veraticus/scrub-db/internal/common"
	"github.com/Veraticus/scrub-db/internal/dialect"
	"github.com/Veraticus/scrub-db/internal/model"
)

// lineSource yields input lines, newline included. Lines given back with
// unread are returned again before anything new is read.
type lineSource struct {
	r       *bufio.Reader
	pending []string
	read    int
	done    bool
}

func (l *lineSource) next() (string, error) {
	if n := len(l.pending); n > 0 {
		line := l.pending[0]
		l.pending = l.pending[1:]
		return line, nil
	}
	if l.done {
		return "", io.EOF
	}

	line, err := l.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		l.done = true
		if line == "" {
			return "", io.EOF
		}
	}
	l.read++
	return line, nil
}

func (l *lineSource) unread(lines []string) {
	l.pending = append(append([]string(nil), lines...), l.pending...)
}

func (l *lineSource) exhausted() bool {
	return l.done && len(l.pending) == 0
}

// Sniff detects the dialect of the dump read by br from the first SampleSize
// bytes without consuming them. br must have been created with a buffer of
// at least SampleSize bytes.
func Sniff(br *bufio.Reader, detector *dialect.Detector) (dialect.Result, error) {
	sample, err := br.Peek(SampleSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return dialect.Result{}, fmt.Errorf("failed to read dump: %w", err)
	}
	if detector == nil {
		detector = dialect.NewDetector()
	}
	if r, ok := detector.DetectSyntax(string(sample)); ok {
		return r, nil
	}
	return dialect.Result{Type: model.DatabaseUnknown, Tier: dialect.TierFallback}, nil
}

// Rewrite streams the dump from r to w, substituting PII literals. Only I/O
// failures and cancellation end a rewrite early; statements that cannot be
// understood are copied through and counted in the returned Stats.
//
// A Session rewrites a single dump; call Rewrite once.
func (s *Session) Rewrite(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	bw := bufio.NewWriter(w)
	err := s.run(ctx, r, func(text string) error {
		_, err := bw.WriteString(text)
		return err
	})
	if flushErr := bw.Flush(); err == nil && flushErr != nil {
		err = fmt.Errorf("failed to flush output: %w", flushErr)
	}

	s.stats.CacheSize = s.anonymizer.CacheSize()
	slog.Info("Rewrite complete",
		"session_id", s.ID,
		"dialect", s.detected.Type,
		"lines", s.stats.Lines,
		"rows", s.stats.Rows,
		"values", s.stats.Values,
		"unparseable", s.stats.Unparseable,
		"missing_context", s.stats.MissingContext)
	return s.stats, err
}

func (s *Session) run(ctx context.Context, r io.Reader, emit func(string) error) error {
	br := bufio.NewReaderSize(r, SampleSize)
	if s.detected.Type == model.DatabaseUnknown {
		result, err := Sniff(br, s.opts.Detector)
		if err != nil {
			return err
		}
		s.setDialect(result)
		if s.detected.Type == model.DatabaseUnknown {
			common.LogDebug("Dialect not detected", common.Fields{
				"session_id": s.ID,
				"error":      common.ErrAmbiguousDialect.Error(),
			})
		}
	}
	slog.Debug("Session started", "session_id", s.ID, "dialect", s.detected.Type, "tier", s.detected.Tier)

	src := &lineSource{r: br}
	var pending []string
	pendingBytes := 0

	defer func() { s.stats.Lines = src.read }()

	// giveUp passes the first pending line through and feeds the rest again,
	// so an unterminated statement cannot swallow the statements after it.
	giveUp := func() error {
		if err := emit(pending[0]); err != nil {
			return err
		}
		s.stats.Unparseable++
		common.LogDebug("Statement never terminated, passing line through", common.Fields{
			"session_id": s.ID,
			"bytes":      pendingBytes,
		})
		src.unread(pending[1:])
		pending, pendingBytes = nil, 0
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := src.next()
		if errors.Is(err, io.EOF) {
			if len(pending) == 0 {
				break
			}
			if err := giveUp(); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read dump: %w", err)
		}

		if s.copy != nil && len(pending) == 0 {
			if err := emit(s.copyLine(line)); err != nil {
				return err
			}
			continue
		}

		// Function bodies are dollar-quoted; statements inside them are code.
		if len(pending) == 0 && (s.dollar != "" || !startsStatement(line)) {
			if err := emit(line); err != nil {
				return err
			}
			s.dollar = dollarState(line, s.dollar, s.mode)
			continue
		}

		pending = append(pending, line)
		pendingBytes += len(line)

		// A statement can only end on a line holding a terminator.
		if !strings.Contains(line, ";") && !src.exhausted() && pendingBytes <= s.opts.MaxStatementBytes {
			continue
		}

		joined := strings.Join(pending, "")
		out, leftover := s.feed(joined)
		if err := emit(out); err != nil {
			return err
		}

		pending = trimFront(pending, len(joined)-len(leftover))
		pendingBytes = len(leftover)
		if len(pending) == 0 {
			continue
		}

		if pendingBytes > s.opts.MaxStatementBytes || src.exhausted() {
			if err := giveUp(); err != nil {
				return err
			}
		}
	}

	return nil
}

// trimFront drops the first n bytes of lines.
func trimFront(lines []string, n int) []string {
	for len(lines) > 0 && n >= len(lines[0]) {
		n -= len(lines[0])
		lines = lines[1:]
	}
	if len(lines) > 0 && n > 0 {
		lines = append([]string{lines[0][n:]}, lines[1:]...)
	}
	return lines
}

func startsStatement(text string) bool {
	return insertHeader.MatchString(text) || createHeader.MatchString(text) || copyHeader.MatchString(text)
}

// feed processes every complete statement at the start of text and returns
// the output for them together with the unfinished remainder.
func (s *Session) feed(text string) (string, string) {
	var b strings.Builder
	line := 0
	for text != "" {
		if s.copy != nil || !startsStatement(text) {
			// Trailing text after a statement on the same line.
			b.WriteString(text)
			if s.copy == nil {
				s.dollar = dollarState(text, "", s.mode)
			}
			return b.String(), ""
		}

		end, err := findTerminator(text, 0, s.mode)
		if errors.Is(err, errIncomplete) {
			return b.String(), text
		}
		if err != nil {
			s.stats.Unparseable++
			common.LogDebug("Passing statement through", common.Fields{
				"session_id": s.ID,
				"error":      err.Error(),
			})
			b.WriteString(text)
			return b.String(), ""
		}

		stmt := text[:end+1]
		s.stmtLine = line
		b.WriteString(s.statement(stmt))
		line += strings.Count(stmt, "\n")
		text = text[end+1:]
	}
	return b.String(), ""
}

// statement handles one complete statement, terminator included.
func (s *Session) statement(text string) string {
	switch {
	case createHeader.MatchString(text):
		table, columns, err := parseCreateTable(text, s.mode)
		if err == nil {
			s.schema.record(table, columns)
		}
		return text

	case copyHeader.MatchString(text):
		table, columns, err := parseCopyHeader(text)
		if err != nil {
			return text
		}
		if columns == nil {
			columns, _ = s.schema.columns(table)
		}
		s.copy = &copyTarget{table: table, columns: columns}
		return text

	default:
		return s.insert(text)
	}
}

type edit struct {
	start, end int
	text       string
}

// insert rewrites the string literals of an INSERT statement.
func (s *Session) insert(text string) string {
	stmt, err := parseInsert(text, s.mode)
	if errors.Is(err, errNotData) {
		return text
	}
	s.stats.Statements++
	if err != nil {
		s.stats.Unparseable++
		common.LogDebug("Passing INSERT through", common.Fields{
			"session_id": s.ID,
			"error":      err.Error(),
		})
		return text
	}

	columns := stmt.Columns
	if columns == nil {
		var ok bool
		if columns, ok = s.schema.columns(stmt.Table); !ok {
			s.stats.MissingContext++
			common.LogDebug("Passing INSERT through", common.Fields{
				"session_id": s.ID,
				"table":      strings.Join(stmt.Table, "."),
				"error":      common.ErrMissingContext.Error(),
			})
			return text
		}
	}

	var edits []edit
	mismatched := false
	line, seen := s.stmtLine, 0
	for _, tuple := range stmt.Tuples {
		s.stats.Rows++
		if len(tuple) != len(columns) {
			mismatched = true
			continue
		}

		for i, v := range tuple {
			if v.Kind != KindString {
				continue
			}
			line += strings.Count(text[seen:v.QuoteStart], "\n")
			seen = v.QuoteStart
			s.valueLine = line

			if !v.Substitutable() {
				s.stats.Unparseable++
				continue
			}
			if repl, ok := s.substitute(stmt.Table, columns[i], v.Text); ok {
				edits = append(edits, edit{start: v.QuoteStart, end: v.QuoteEnd, text: v.Encode(repl)})
			}
		}
	}
	if mismatched {
		s.stats.Unparseable++
		common.LogDebug("Tuple width does not match column list", common.Fields{
			"session_id": s.ID,
			"table":      strings.Join(stmt.Table, "."),
			"columns":    len(columns),
		})
	}

	return applyEdits(text, edits)
}

// copyLine rewrites one line of a COPY block.
func (s *Session) copyLine(line string) string {
	s.valueLine = 0
	body, eol := splitLineEnding(line)
	if body == copyEnd {
		s.copy = nil
		return line
	}

	s.stats.Statements++
	s.stats.Rows++
	target := s.copy
	if target.columns == nil {
		s.stats.MissingContext++
		return line
	}

	fields := strings.Split(body, "\t")
	if len(fields) != len(target.columns) {
		s.stats.Unparseable++
		return line
	}

	changed := false
	for i, field := range fields {
		if field == copyNull {
			continue
		}
		text, ok := decodeCopyField(field)
		if !ok {
			s.stats.Unparseable++
			continue
		}
		if repl, ok := s.substitute(target.table, target.columns[i], text); ok {
			fields[i] = encodeCopyField(repl)
			changed = true
		}
	}
	if !changed {
		return line
	}
	return strings.Join(fields, "\t") + eol
}

// substitute resolves the method for a value and returns its replacement. In
// scan sessions it records findings and never replaces anything.
func (s *Session) substitute(table []string, column, value string) (string, bool) {
	if s.scan != nil {
		s.observe(table, column, value)
		return "", false
	}

	m := s.resolve(table, column, value)
	if m == model.MethodSkip {
		return "", false
	}
	s.stats.Values++
	return s.anonymizer.Anonymize(value, m), true
}

func applyEdits(text string, edits []edit) string {
	if len(edits) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, e := range edits {
		b.WriteString(text[last:e.start])
		b.WriteString(e.text)
		last = e.end
	}
	b.WriteString(text[last:])
	return b.String()
}
