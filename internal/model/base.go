package model

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Offset returns the row offset for the page, defaulting to the first page.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the page size clamped to [1, 100], defaulting to 50.
func (p Pagination) Limit() int {
	switch {
	case p.PageSize <= 0:
		return 50
	case p.PageSize > 100:
		return 100
	default:
		return p.PageSize
	}
}
