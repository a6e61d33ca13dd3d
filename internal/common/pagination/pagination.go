// Package pagination parses page/limit and skip/limit query parameters and
// builds the metadata block returned with paged listings.
package pagination

// Params is a 1-based page request.
type Params struct {
	Page  int
	Limit int
}

// Offset converts the page into a row offset.
func (p Params) Offset() int {
	return CalculateOffset(p.Page, p.Limit)
}

// WithDefaults fills zero values and clamps Limit to cfg.MaxLimit.
func (p Params) WithDefaults(cfg Config) Params {
	if p.Page <= 0 {
		p.Page = cfg.DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = cfg.DefaultLimit
	}
	if p.Limit > cfg.MaxLimit {
		p.Limit = cfg.MaxLimit
	}
	return p
}

// Metadata accompanies every paged response.
type Metadata struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

func NewMetadata(p Params, total int64) Metadata {
	return Metadata{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: CalculateTotalPages(total, p.Limit),
	}
}

// Response wraps one page of items.
type Response[T any] struct {
	Data       []T      `json:"data"`
	Pagination Metadata `json:"pagination"`
}

func NewResponse[T any](data []T, meta Metadata) Response[T] {
	if data == nil {
		data = []T{}
	}
	return Response[T]{Data: data, Pagination: meta}
}

// CalculateOffset maps a 1-based page to a row offset.
func CalculateOffset(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}

// CalculateTotalPages is a ceiling division that never returns less than 1.
func CalculateTotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
