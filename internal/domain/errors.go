// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or input fails validation.
	// This is usually wrapped with a more specific error.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or empty.
	ErrInvalidID = fmt.Errorf("%w: invalid ID", ErrValidation)

	// ErrInvalidQuality is returned when a quality score is outside [0,5].
	ErrInvalidQuality = fmt.Errorf("%w: quality score must be between 0 and 5", ErrValidation)

	// ErrInvalidStatus is returned when a status value is not one of the known statuses.
	ErrInvalidStatus = fmt.Errorf("%w: invalid item status", ErrValidation)
)
