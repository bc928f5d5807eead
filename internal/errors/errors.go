// Package errors provides standardized errors that express the intent of a failure
// rather than the library that produced it. Domain packages wrap these bases so callers
// can classify any failure with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input data is invalid, malformed or cannot be authenticated.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indicates a dependency (e.g. a remote key management service) could not
	// be reached or refused the operation.
	ErrUnavailable = errors.New("unavailable")

	// ErrInternal indicates an unexpected failure inside the library itself.
	ErrInternal = errors.New("internal error")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is like Wrap but formats the message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
