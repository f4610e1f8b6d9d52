// Package errors provides the structured error type used across mdsearch.
// The engine itself is designed so that almost nothing fails at query time:
// unknown terms and documents yield empty results, tokenization is
// best-effort, and the only fallible path is configuration-time setup.
package errors

import (
	"fmt"
)

// Code identifies a class of failure with a stable string value.
type Code string

const (
	// CodeInvalidInput covers configuration and argument validation
	// failures, e.g. a non-positive cache budget.
	CodeInvalidInput Code = "invalid_input"

	// CodeInternal covers internal invariant violations that should be
	// unreachable in correct code.
	CodeInternal Code = "internal"

	// CodeIO covers filesystem failures in the CLI and watcher layers.
	CodeIO Code = "io"
)

// Error is the structured error type for mdsearch.
type Error struct {
	// Code classifies the error for programmatic handling.
	Code Code

	// Message is the human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works across wrapped instances.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping cause. Returns nil if cause is nil.
func Wrap(code Code, cause error, message string) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: cause}
}

// InvalidInput creates a validation error.
func InvalidInput(format string, args ...any) *Error {
	return New(CodeInvalidInput, format, args...)
}

// Internal creates an internal invariant error.
func Internal(format string, args ...any) *Error {
	return New(CodeInternal, format, args...)
}
