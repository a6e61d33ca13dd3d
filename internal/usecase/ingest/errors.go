package ingest

import "errors"

var (
	// ErrStorage wraps any store failure during a cycle. Nothing from the
	// failed cycle is persisted.
	ErrStorage = errors.New("article store failure")

	// ErrNoAdapters is returned when the service was built without sources.
	ErrNoAdapters = errors.New("no source adapters configured")
)
