package viewer

// ItemsPerPage is the fixed page size of the table.
const ItemsPerPage = 10

// Pagination is the paging state of a controller. Indexes and page counts
// are derived from the result size on demand.
type Pagination struct {
	CurrentPage  int
	ItemsPerPage int
}

// StartIndex is the zero-based index of the first record on the page.
func (p Pagination) StartIndex() int {
	return (p.CurrentPage - 1) * p.ItemsPerPage
}

// EndIndex is the exclusive end index of the page for a result of count records.
func (p Pagination) EndIndex(count int) int {
	return min(p.StartIndex()+p.ItemsPerPage, count)
}

// TotalPages returns ceil(count / ItemsPerPage).
func (p Pagination) TotalPages(count int) int {
	if count <= 0 || p.ItemsPerPage <= 0 {
		return 0
	}
	return (count + p.ItemsPerPage - 1) / p.ItemsPerPage
}

// Valid reports whether target is a page that exists for count records.
func (p Pagination) Valid(target, count int) bool {
	return target >= 1 && target <= p.TotalPages(count)
}

// PaginationSummary is what the pagination controls display.
type PaginationSummary struct {
	Visible      bool `json:"visible"`       // more than one page of records
	ShowingStart int  `json:"showing_start"` // 1-based
	ShowingEnd   int  `json:"showing_end"`
	Total        int  `json:"total"`
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	PrevDisabled bool `json:"prev_disabled"`
	NextDisabled bool `json:"next_disabled"`
}

// Summary computes the pagination controls for a result of count records.
func (p Pagination) Summary(count int) PaginationSummary {
	end := p.EndIndex(count)
	start := p.StartIndex() + 1
	if count == 0 {
		start = 0
	}
	return PaginationSummary{
		Visible:      count > p.ItemsPerPage,
		ShowingStart: start,
		ShowingEnd:   end,
		Total:        count,
		CurrentPage:  p.CurrentPage,
		TotalPages:   p.TotalPages(count),
		PrevDisabled: p.CurrentPage == 1,
		NextDisabled: end >= count,
	}
}
