package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures. Each kind is itself an error so callers
// can test with errors.Is(err, core.ErrFormat).
type ErrorKind string

const (
	ErrTransport      ErrorKind = "transport"
	ErrAuth           ErrorKind = "auth"
	ErrSessionExpired ErrorKind = "session_expired"
	ErrFormat         ErrorKind = "format"
	ErrValidation     ErrorKind = "validation"
	ErrRequest        ErrorKind = "request"
	ErrDelete         ErrorKind = "delete"
	ErrTimeout        ErrorKind = "timeout"
	ErrNotFound       ErrorKind = "not_found"
)

func (k ErrorKind) Error() string { return string(k) + " error" }

// Error is the single failure type surfaced to callers. Message is safe to
// show to the user; Err keeps the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds a classified error.
func NewError(kind ErrorKind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// Invalid wraps a client-side input problem as a validation error.
func Invalid(op string, cause error) *Error {
	return &Error{Kind: ErrValidation, Op: op, Message: cause.Error(), Err: cause}
}

// UserMessage returns the text to display for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return "Something went wrong. Please try again."
}

// KindOf returns the classification of err, or "" when it is unclassified.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsSessionExpired reports whether err requires the user to log in again.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}
