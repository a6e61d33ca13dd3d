// Package article serves the read side of the article store (feed listing,
// categories, outlets) and the recategorize maintenance path.
package article

import "errors"

var (
	// ErrInvalidCategory is returned when a categorizer produces an empty label.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidFilter is returned for filter values that cannot match anything.
	ErrInvalidFilter = errors.New("invalid filter")
)
