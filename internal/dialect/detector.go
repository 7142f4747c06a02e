// Package dialect works out which database produced a dump.
//
// Detection is layered: SQL syntax indicators in the dump text first, then the
// shape of a connection string, then Unknown. The result only picks cosmetic
// defaults such as the output file name and the string escaping convention.
package dialect

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Veraticus/scrub-db/internal/model"
)

// MinIndicators is the number of distinct indicators a dialect needs before
// the syntax tier commits to it.
const MinIndicators = 2

// Tier names the detection tier that produced a result.
type Tier string

// Detection tiers.
const (
	TierSyntax   Tier = "syntax"
	TierSource   Tier = "connection_source"
	TierFallback Tier = "fallback"
	TierOverride Tier = "override"
)

// Indicator is a dialect-distinguishing token.
type Indicator struct {
	Name    string
	Dialect model.DatabaseType
	Token   string
}

// Result is the outcome of detection.
type Result struct {
	Type       model.DatabaseType
	Tier       Tier
	Indicators []string
}

// DefaultOutput returns the default output name for the detected type.
func (r Result) DefaultOutput() (string, bool) {
	return r.Type.DefaultOutput()
}

// DefaultIndicators returns the built-in syntax indicators. Tokens are matched
// case-insensitively.
func DefaultIndicators() []Indicator {
	return []Indicator{
		{Name: "SET statement_timeout", Dialect: model.DatabasePostgreSQL, Token: "SET statement_timeout"},
		{Name: "CREATE SEQUENCE", Dialect: model.DatabasePostgreSQL, Token: "CREATE SEQUENCE"},
		{Name: "nextval(", Dialect: model.DatabasePostgreSQL, Token: "nextval("},
		{Name: "::regclass", Dialect: model.DatabasePostgreSQL, Token: "::regclass"},

		{Name: "version comment", Dialect: model.DatabaseMySQL, Token: "/*!"},
		{Name: "backtick identifier", Dialect: model.DatabaseMySQL, Token: "`"},
		{Name: "AUTO_INCREMENT", Dialect: model.DatabaseMySQL, Token: "AUTO_INCREMENT"},
		{Name: "ENGINE=", Dialect: model.DatabaseMySQL, Token: "ENGINE="},
		{Name: "LOCK TABLES", Dialect: model.DatabaseMySQL, Token: "LOCK TABLES"},

		{Name: "PRAGMA", Dialect: model.DatabaseSQLite, Token: "PRAGMA"},
		{Name: "BEGIN TRANSACTION", Dialect: model.DatabaseSQLite, Token: "BEGIN TRANSACTION"},
		{Name: "AUTOINCREMENT", Dialect: model.DatabaseSQLite, Token: "AUTOINCREMENT"},
	}
}

// Detector classifies dumps and connection strings.
type Detector struct {
	indicators []Indicator
	minimum    int
}

// NewDetector creates a detector with the default indicators.
func NewDetector() *Detector {
	return &Detector{
		indicators: DefaultIndicators(),
		minimum:    MinIndicators,
	}
}

// Detect runs every tier against input, which may be dump text or a single
// connection string, and returns the first tier that succeeds.
func (d *Detector) Detect(input string) Result {
	if r, ok := d.DetectSyntax(input); ok {
		return r
	}
	if r, ok := DetectSource(input); ok {
		return r
	}
	return Result{Type: model.DatabaseUnknown, Tier: TierFallback}
}

// DetectSyntax counts distinct indicators per dialect. It succeeds only when
// exactly one dialect reaches the minimum count and it strictly leads.
func (d *Detector) DetectSyntax(text string) (Result, bool) {
	upper := strings.ToUpper(text)

	found := make(map[model.DatabaseType][]string)
	for _, ind := range d.indicators {
		if strings.Contains(upper, strings.ToUpper(ind.Token)) {
			found[ind.Dialect] = append(found[ind.Dialect], ind.Name)
		}
	}

	best := model.DatabaseUnknown
	bestCount := 0
	tied := false
	for _, dialect := range []model.DatabaseType{model.DatabasePostgreSQL, model.DatabaseMySQL, model.DatabaseSQLite} {
		n := len(found[dialect])
		switch {
		case n > bestCount:
			best, bestCount, tied = dialect, n, false
		case n == bestCount && n > 0:
			tied = true
		}
	}

	if bestCount < d.minimum || tied {
		return Result{}, false
	}
	return Result{Type: best, Tier: TierSyntax, Indicators: found[best]}, true
}

var mysqlDSN = regexp.MustCompile(`^[^\s@/]*(?::[^\s@]*)?@(?:tcp|unix)\(`)

var libpqKeyword = regexp.MustCompile(`(?:^|\s)(?:host|hostaddr|dbname|user|port|sslmode|service)\s*=`)

var sqliteExtensions = map[string]bool{
	".db":      true,
	".sqlite":  true,
	".sqlite3": true,
	".db3":     true,
}

// DetectSource classifies a connection string or database path. Text with
// line breaks is a dump, not a source, and is never matched.
func DetectSource(source string) (Result, bool) {
	source = strings.TrimSpace(source)
	if source == "" || strings.ContainsAny(source, "\r\n") {
		return Result{}, false
	}

	result := func(t model.DatabaseType, why string) (Result, bool) {
		return Result{Type: t, Tier: TierSource, Indicators: []string{why}}, true
	}

	if u, err := url.Parse(source); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		switch strings.ToLower(u.Scheme) {
		case "postgres", "postgresql":
			return result(model.DatabasePostgreSQL, "scheme "+u.Scheme)
		case "mysql", "mariadb":
			return result(model.DatabaseMySQL, "scheme "+u.Scheme)
		case "sqlite", "sqlite3", "file":
			return result(model.DatabaseSQLite, "scheme "+u.Scheme)
		}
	}

	if mysqlDSN.MatchString(source) {
		return result(model.DatabaseMySQL, "go-sql-driver DSN")
	}

	if sqliteExtensions[strings.ToLower(filepath.Ext(source))] {
		return result(model.DatabaseSQLite, "file extension "+filepath.Ext(source))
	}

	// libpq keyword/value form, e.g. "host=localhost dbname=app".
	if libpqKeyword.MatchString(source) && !strings.Contains(source, "://") {
		if _, err := pgconn.ParseConfig(source); err == nil {
			return result(model.DatabasePostgreSQL, "libpq keyword/value DSN")
		}
	}

	return Result{}, false
}
