package analytics

// DefaultPageSize matches the console's table page size
const DefaultPageSize = 10

// Page is one slice of a list-shaped view
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PageCount returns ceil(total / pageSize)
func PageCount(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Paginate returns the 1-based page of items. Pages outside [1, TotalPages]
// yield an empty Items slice rather than an error.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	p := Page[T]{
		Items:      []T{},
		Page:       page,
		PageSize:   pageSize,
		Total:      len(items),
		TotalPages: PageCount(len(items), pageSize),
	}
	if page < 1 || page > p.TotalPages {
		return p
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))
	p.Items = make([]T, end-start)
	copy(p.Items, items[start:end])
	return p
}
