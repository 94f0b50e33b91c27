package shared

import "math"

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// PageRequest carries LIMIT/OFFSET values for list queries.
type PageRequest struct {
	Limit  int
	Offset int
}

// NewPageRequest converts 1-based page numbers into a bounded LIMIT/OFFSET
// pair. Page sizes outside 1..200 fall back to 20.
func NewPageRequest(page, perPage int) PageRequest {
	if perPage <= 0 || perPage > 200 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	return PageRequest{Limit: perPage, Offset: (page - 1) * perPage}
}
