package cms

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across stores and services.
var (
	// ErrNotFound is returned when a keyed lookup, update or delete misses.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on a unique-key collision.
	ErrConflict = errors.New("unique key conflict")
	// ErrInvalidState is returned when an operation is attempted against an
	// entity in the wrong lifecycle state.
	ErrInvalidState = errors.New("invalid state")
)

// ValidationError describes malformed caller input. Its message is suitable
// for direct display.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
