package search

import "errors"

var (
	// ErrIndexSync wraps any failure while rebuilding the index.
	ErrIndexSync = errors.New("search index sync failed")

	// ErrQueryTooShort is returned for queries under MinQueryLength runes.
	ErrQueryTooShort = errors.New("search query too short")
)
