package fetcher

import "errors"

var (
	ErrInvalidURL        = errors.New("invalid article url")
	ErrPrivateIP         = errors.New("article url resolves to a private address")
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrTimeout           = errors.New("content fetch timed out")
	ErrBodyTooLarge      = errors.New("article body exceeds size limit")
	ErrReadabilityFailed = errors.New("no readable content")
)
