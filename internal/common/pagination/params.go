package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

// ParseQueryParams reads ?page= and ?limit=. Missing values take the
// configured defaults; malformed or out-of-range values are errors.
func ParseQueryParams(r *http.Request, cfg Config) (Params, error) {
	p := Params{Page: cfg.DefaultPage, Limit: cfg.DefaultLimit}
	q := r.URL.Query()

	if s := q.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return p, fmt.Errorf("invalid query parameter: page must be a positive integer")
		}
		p.Page = page
	}
	limit, err := parseLimit(q.Get("limit"), cfg)
	if err != nil {
		return p, err
	}
	if limit > 0 {
		p.Limit = limit
	}
	return p, nil
}

// ParseSkipLimit reads ?skip= and ?limit= for offset-style listings.
func ParseSkipLimit(r *http.Request, cfg Config) (offset, limit int, err error) {
	q := r.URL.Query()
	if s := q.Get("skip"); s != "" {
		offset, err = strconv.Atoi(s)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid query parameter: skip must be a non-negative integer")
		}
	}
	limit, err = parseLimit(q.Get("limit"), cfg)
	if err != nil {
		return 0, 0, err
	}
	if limit == 0 {
		limit = cfg.DefaultLimit
	}
	return offset, limit, nil
}

func parseLimit(s string, cfg Config) (int, error) {
	if s == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(s)
	if err != nil || limit < 1 || limit > cfg.MaxLimit {
		return 0, fmt.Errorf("invalid query parameter: limit must be between 1 and %d", cfg.MaxLimit)
	}
	return limit, nil
}
