package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrInvalidSession  = errors.New("invalid session")
	ErrNegativeSpan    = fmt.Errorf("%w: end before begin", ErrInvalidSession)
	ErrMissingBoundary = fmt.Errorf("%w: missing begin or end", ErrInvalidSession)

	ErrValidation = errors.New("validation failed")
)

// ValidationError is a field-scoped validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
