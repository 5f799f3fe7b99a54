package common

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination fills in TotalPages from the item count.
func NewPagination(page, perPage, total int) Pagination {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Pagination{Page: page, PerPage: perPage, TotalItems: total, TotalPages: pages}
}
