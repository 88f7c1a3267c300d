package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers absent messages and identities, and messages the caller may not see.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may see a message but not change it.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a row vanished between read and write. Callers may retry.
	ErrConflict = errors.New("conflict")
)

// ValidationError reports bad input. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
