// Package apperr defines the CLI-level error categories used across beyond-reqif.
//
// Error taxonomy
//
//	UserError    – caused by missing or invalid user input (wrong flag, unknown
//	               profile, unreadable path, …). The CLI prints only the message.
//	               Exit code: 1.
//
//	ErrCancelled – the user aborted an interactive flow (profile editor,
//	               result browser, confirmation prompt).
//	               Exit code: 0.
//
// Domain failures (parse errors, invalid profiles) are defined next to the code
// that raises them in pkg/reqif and pkg/profile and are wrapped on the way up.
package apperr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrCancelled is returned when the user explicitly aborts an interactive
// operation. The CLI exits 0 when it sees this error.
var ErrCancelled = errors.New("operation cancelled")

// UserError represents an error caused by invalid or missing user input.
type UserError struct {
	Message string
}

func (e *UserError) Error() string { return e.Message }

// User creates a UserError with the given message.
func User(msg string) error { return &UserError{Message: msg} }

// Userf creates a formatted UserError.
func Userf(format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// IsUser reports whether err is (or wraps) a *UserError.
func IsUser(err error) bool {
	var u *UserError
	return errors.As(err, &u)
}
