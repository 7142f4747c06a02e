// Package dump rewrites SQL dump streams, replacing PII string literals while
// reproducing every other byte of the input.
//
// The package is a bounded lexical scanner over a known set of statement
// shapes: CREATE TABLE (to learn column names), INSERT/REPLACE ... VALUES and
// PostgreSQL COPY ... FROM stdin blocks. Everything else passes through.
package dump

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/scrub-db/internal/anonymize"
	"github.com/Veraticus/scrub-db/internal/classification"
	"github.com/Veraticus/scrub-db/internal/common"
	"github.com/Veraticus/scrub-db/internal/dialect"
	"github.com/Veraticus/scrub-db/internal/model"
)

// DefaultMaxStatementBytes bounds how much text a single statement may span
// before its lines are given up on and passed through.
const DefaultMaxStatementBytes = 16 << 20

// SampleSize is how much of a dump is read ahead for dialect detection.
const SampleSize = 64 << 10

// Options configures a session.
type Options struct {
	// Rules maps "column" or "table.column" (lower case) to a method.
	Rules                 map[string]model.Method
	AutoDetect            bool
	PreserveRelationships bool
	// Dialect skips detection when it is not Unknown.
	Dialect           model.DatabaseType
	Salt              string
	MaxStatementBytes int
	Classifier        *classification.Classifier
	Detector          *dialect.Detector
	Corpus            *anonymize.Corpus
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{
		Rules:                 map[string]model.Method{},
		AutoDetect:            true,
		PreserveRelationships: true,
		Dialect:               model.DatabaseUnknown,
		MaxStatementBytes:     DefaultMaxStatementBytes,
	}
}

// Stats summarises one session.
type Stats struct {
	SessionID string
	Dialect   dialect.Result
	// Lines read from the input.
	Lines int
	// Statements is the number of INSERT/REPLACE statements and COPY rows seen.
	Statements int
	// Rows is the number of value tuples seen.
	Rows int
	// Values is the number of literals substituted.
	Values int
	// Unparseable counts statements and rows passed through because their
	// structure could not be resolved.
	Unparseable int
	// MissingContext counts statements passed through because their table
	// columns were never declared.
	MissingContext int
	CacheSize      int
}

// Session processes exactly one dump. It owns the consistency cache, the
// table schema learned from the dump and the per-column classification
// results.
type Session struct {
	ID string

	opts       Options
	anonymizer *anonymize.Anonymizer
	schema     *schema
	nameTier   map[string]model.Classification

	detected dialect.Result
	mode     escaping
	copy     *copyTarget
	// dollar is the dollar-quote delimiter of a body still open on a
	// pass-through line.
	dollar string

	// stmtLine is the line of the current statement and valueLine the line
	// of the current value, both counted from the start of the text that
	// is emitted next.
	stmtLine  int
	valueLine int

	// scan is set for detection-only sessions.
	scan  *Report
	stats Stats
}

type copyTarget struct {
	table   []string
	columns []string
}

// NewSession creates a session. Rules are validated here so that a bad
// configuration fails before any output is written.
func NewSession(opts Options) (*Session, error) {
	if opts.MaxStatementBytes <= 0 {
		opts.MaxStatementBytes = DefaultMaxStatementBytes
	}
	if opts.Classifier == nil {
		opts.Classifier = classification.NewDefaultClassifier()
	}
	if opts.Detector == nil {
		opts.Detector = dialect.NewDetector()
	}

	rules := make(map[string]model.Method, len(opts.Rules))
	for key, m := range opts.Rules {
		if m < model.MethodSkip || m > model.MethodHash {
			return nil, fmt.Errorf("rule %q: %w", key, common.ErrUnresolvableMethod)
		}
		rules[strings.ToLower(strings.TrimSpace(key))] = m
	}
	opts.Rules = rules

	transformer := anonymize.NewTransformer(opts.Salt)
	if opts.Corpus != nil {
		transformer = transformer.WithCorpus(opts.Corpus)
	}

	s := &Session{
		ID:         uuid.NewString(),
		opts:       opts,
		anonymizer: anonymize.NewAnonymizer(transformer, opts.PreserveRelationships),
		schema:     newSchema(),
		nameTier:   make(map[string]model.Classification),
	}
	s.stats.SessionID = s.ID
	s.setDialect(dialect.Result{Type: opts.Dialect, Tier: dialect.TierOverride})
	common.LogDebug("Session created", common.Fields{
		"session_id":     s.ID,
		"rules":          len(rules),
		"value_patterns": opts.Classifier.GetPatternCount(),
	})
	return s, nil
}

// Dialect returns the dialect the session settled on.
func (s *Session) Dialect() dialect.Result {
	return s.detected
}

func (s *Session) setDialect(r dialect.Result) {
	s.detected = r
	s.mode = escapingFor(r.Type)
	s.stats.Dialect = r
}

// resolve picks the method for one value of table.column: an explicit
// table.column rule, then a column rule, then the classifier, then Skip.
func (s *Session) resolve(table []string, column, value string) model.Method {
	col := strings.ToLower(column)
	for _, key := range []string{tableKey(table) + "." + col, strings.ToLower(table[len(table)-1]) + "." + col, col} {
		if m, ok := s.opts.Rules[key]; ok {
			return m
		}
	}

	if !s.opts.AutoDetect {
		return model.MethodSkip
	}
	return s.classify(table, column, value).Category.DefaultMethod()
}

// classify runs the name tier once per table column and the data tier for
// every value of a column whose name says nothing.
func (s *Session) classify(table []string, column, value string) model.Classification {
	key := tableKey(table) + "." + strings.ToLower(column)
	byName, ok := s.nameTier[key]
	if !ok {
		byName = s.opts.Classifier.ClassifyColumn(column)
		s.nameTier[key] = byName
	}
	if byName.IsPII() || value == "" {
		return byName
	}
	return s.opts.Classifier.ClassifyValue(value)
}
