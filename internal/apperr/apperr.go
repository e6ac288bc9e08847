// Package apperr defines the error taxonomy surfaced by the HTTP boundary.
// Internal code returns these typed errors; only the response writer maps
// them onto status codes and envelopes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the API boundary.
type Kind int

const (
	// Validation indicates malformed or missing input.
	Validation Kind = iota + 1
	// Conflict indicates a uniqueness violation.
	Conflict
	// NotFound indicates no matching record exists.
	NotFound
	// Auth indicates bad credentials or an invalid, expired, or mismatched token.
	Auth
	// Internal indicates an unexpected failure.
	Internal
)

// Error carries a kind, a user-facing message, and an optional wrapped cause.
// The cause is preserved for logs and never leaks into response bodies.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the provided kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new Error without exposing it to clients.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, defaulting to Internal for untyped errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// MessageOf returns the user-facing message for err. Untyped errors collapse
// to a generic message so internals are never leaked.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "something went wrong"
}
