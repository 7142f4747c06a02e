package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/scrub-db/internal/dump"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteSink executes a rewritten SQLite dump into a database file.
type SQLiteSink struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteSink creates the database file at dbPath. An existing file is
// replaced only when overwrite is set.
func NewSQLiteSink(dbPath string, overwrite bool) (*SQLiteSink, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if _, err := os.Stat(dbPath); err == nil {
		if !overwrite {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, dbPath)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to remove existing database: %w", err)
			}
		}
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't benefit from multiple connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteSink{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Path returns the database file path.
func (s *SQLiteSink) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Load executes every statement read from r inside one transaction and
// returns the number of statements executed. The dump's own BEGIN/COMMIT
// statements are skipped. Nothing is committed when any statement fails.
func (s *SQLiteSink) Load(ctx context.Context, r io.Reader) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if r == nil {
		return 0, fmt.Errorf("%w: reader", ErrNilParameter)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Warn("Failed to rollback transaction", "error", err)
		}
	}()

	executed := 0
	err = dump.SplitStatements(ctx, r, func(stmt string) error {
		if transactionControl(stmt) {
			return nil
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", executed+1, err)
		}
		executed++
		return nil
	})
	if err != nil {
		return executed, fmt.Errorf("failed to load %s: %w", s.dbPath, err)
	}

	if err := tx.Commit(); err != nil {
		return executed, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Debug("Loaded database", "path", s.dbPath, "statements", executed)
	return executed, nil
}

// Tables lists the tables in the database.
func (s *SQLiteSink) Tables(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
