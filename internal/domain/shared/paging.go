package shared

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a 1-based page number and a size clamped to MaxPageSize
type PageRequest struct {
	Page     int
	PageSize int
}

// NewPageRequest fixes out-of-range input instead of rejecting it:
// page 0 becomes 1, size 0 becomes DefaultPageSize, size 500 becomes MaxPageSize.
func NewPageRequest(page, pageSize int) PageRequest {
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return PageRequest{Page: max(page, 1), PageSize: pageSize}
}

func (p PageRequest) Offset() int {
	return (max(p.Page, 1) - 1) * p.PageSize
}

// Paginated is the items of one page plus the totals list endpoints return in meta
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	size := int64(max(pageSize, 1))
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + size - 1) / size),
	}
}
