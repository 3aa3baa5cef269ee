package domain

// Page size bounds for list queries.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest selects one 1-indexed page of a list query.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest builds a PageRequest from raw query values. Non-positive
// values fall back to page 1 and DefaultPageLimit; the limit is capped at
// MaxPageLimit.
func NewPageRequest(page, limit int) PageRequest {
	p := PageRequest{Page: 1, Limit: DefaultPageLimit}
	if page >= 1 {
		p.Page = page
	}
	if limit >= 1 {
		p.Limit = min(limit, MaxPageLimit)
	}
	return p
}

// Offset is the SQL OFFSET for the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of results and the total across all pages.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
