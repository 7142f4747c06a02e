package model

import (
	"fmt"
	"strings"

	"github.com/Veraticus/scrub-db/internal/common"
)

// DatabaseType identifies the database product that produced a dump.
type DatabaseType string

// Supported database types.
const (
	DatabaseUnknown    DatabaseType = "unknown"
	DatabasePostgreSQL DatabaseType = "postgresql"
	DatabaseMySQL      DatabaseType = "mysql"
	DatabaseSQLite     DatabaseType = "sqlite"
)

// ParseDatabaseType resolves a user supplied dialect name.
func ParseDatabaseType(name string) (DatabaseType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgresql", "postgres", "pg":
		return DatabasePostgreSQL, nil
	case "mysql", "mariadb":
		return DatabaseMySQL, nil
	case "sqlite", "sqlite3":
		return DatabaseSQLite, nil
	case "", "auto", "unknown":
		return DatabaseUnknown, nil
	default:
		return DatabaseUnknown, fmt.Errorf("%w: %q", common.ErrUnsupportedDialect, name)
	}
}

// DefaultOutput returns the default output file name for the database type.
// Unknown has no default and the caller must ask for an explicit target.
func (d DatabaseType) DefaultOutput() (string, bool) {
	switch d {
	case DatabasePostgreSQL, DatabaseMySQL:
		return "anonymized.sql", true
	case DatabaseSQLite:
		return "anonymized.db", true
	default:
		return "", false
	}
}

// IsFileDatabase reports whether the default output is a database file rather
// than SQL text.
func (d DatabaseType) IsFileDatabase() bool {
	return d == DatabaseSQLite
}
