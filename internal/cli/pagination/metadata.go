package pagination

// Meta describes a paginated result set.
type Meta struct {
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// NewMeta builds metadata for params over totalCount items. Offset mode is
// mapped onto pages of Limit items; no limit means a single page.
func NewMeta(params Params, totalCount int) Meta {
	offset, pageSize := params.OffsetLimit()
	if pageSize == 0 {
		pageSize = totalCount
	}

	currentPage := 1
	totalPages := 0
	if pageSize > 0 {
		currentPage = offset/pageSize + 1
		totalPages = (totalCount + pageSize - 1) / pageSize
	}

	return Meta{
		CurrentPage: currentPage,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalItems:  totalCount,
		HasPrevious: currentPage > 1,
		HasNext:     currentPage < totalPages,
	}
}
