package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrValidationFailed = errors.New("validation failed")
	// ErrConflict is returned when a unique key (username, email, saved
	// article, follow) is already taken.
	ErrConflict = errors.New("already exists")
)

// ValidationError names the offending field. Message is safe to show to
// API clients verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap makes errors.Is(err, ErrValidationFailed) hold for every
// ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
