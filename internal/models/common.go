package models

// Pagination carries list paging metadata in responses.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalCount int  `json:"total_count"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPagination derives the page count and neighbour flags from the total
// and page size.
func NewPagination(page, size, total int) *Pagination {
	pages := 0
	if size > 0 {
		pages = total / size
		if total%size != 0 {
			pages++
		}
	}
	return &Pagination{
		Page:       page,
		PageSize:   size,
		TotalCount: total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}
