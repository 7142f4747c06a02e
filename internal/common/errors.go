// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Configuration errors.
	ErrMissingConfig       = errors.New("missing configuration")
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrUnresolvableMethod  = errors.New("unresolvable anonymization method")
	ErrUnsupportedDialect  = errors.New("unsupported dialect")
	ErrMissingOutputTarget = errors.New("no output target")

	// Detection errors.
	ErrAmbiguousDialect = errors.New("ambiguous dialect")

	// Output errors.
	ErrTruncatedDump = errors.New("dump ends inside a statement")

	// Per-line anomalies. These never abort a run; the line is passed through.
	ErrUnparseableRow = errors.New("unparseable row")
	ErrMissingContext = errors.New("no table or column context for row")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
