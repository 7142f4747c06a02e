// Package storage loads rewritten dumps into database files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrOutputExists = errors.New("output database already exists")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// transactionControl matches statements that open or close a transaction.
// Loads run inside their own transaction, so these are dropped.
func transactionControl(stmt string) bool {
	upper := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(stmt), ";"))
	switch strings.Join(strings.Fields(upper), " ") {
	case "BEGIN", "BEGIN TRANSACTION", "BEGIN DEFERRED TRANSACTION", "BEGIN IMMEDIATE TRANSACTION",
		"BEGIN EXCLUSIVE TRANSACTION", "COMMIT", "COMMIT TRANSACTION", "END", "END TRANSACTION",
		"ROLLBACK", "ROLLBACK TRANSACTION":
		return true
	}
	return false
}
