package session

import (
	"errors"
	"fmt"
)

// Common error types for the session machine.
var (
	// ErrNotStudying indicates the operation needs an active session.
	// API layer should map this to HTTP 409 Conflict.
	ErrNotStudying = errors.New("no session in progress")

	// ErrSuperseded is returned by a load that finished after a newer Start,
	// Resume or Finish. Its result was discarded.
	ErrSuperseded = errors.New("session request superseded by a newer one")

	// ErrItemMissing indicates the current item vanished from the item store.
	// The machine skipped past it; the session is still usable.
	ErrItemMissing = errors.New("current item no longer exists")
)

// ServiceError wraps failures of the session machine with the operation that
// failed, so callers can use errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "start", "answer")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
