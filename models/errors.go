package models

import (
	"errors"
	"fmt"
)

// Domain error sentinels. Handlers map these to HTTP status codes:
// ValidationError -> 400, ErrNotFound -> 404, ErrInvalidTransition -> 409.
var (
	ErrNotFound          = errors.New("collection not found")
	ErrInvalidTransition = errors.New("transition not allowed from current status")
)

// ValidationError reports a malformed or missing creation field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
