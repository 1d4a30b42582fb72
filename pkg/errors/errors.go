package errors

import (
	"errors"
	"fmt"
)

// Common application errors with proper types for error handling

var (
	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream indicates a registry or geography API call failed
	ErrUpstream = errors.New("upstream failure")
)

// NotFoundError creates a not found error with context
func NotFoundError(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// InvalidInputError creates an invalid input error with context
func InvalidInputError(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrInvalidInput)
}

// UpstreamError creates an upstream error for a named service operation
func UpstreamError(service, operation string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s %s: %w", service, operation, ErrUpstream)
	}
	return fmt.Errorf("%s %s: %w: %w", service, operation, ErrUpstream, cause)
}

// UpstreamStatusError creates an upstream error for a non-2xx response
func UpstreamStatusError(service, operation string, status int) error {
	return fmt.Errorf("%s %s returned status %d: %w", service, operation, status, ErrUpstream)
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}
