package domain

const DefaultPerPage = 10

var allowedPerPage = map[int]bool{10: true, 20: true, 30: true, 40: true, 50: true}

// NormalizePerPage falls back to DefaultPerPage for any size outside 10..50 step 10.
func NormalizePerPage(perPage int) int {
	if allowedPerPage[perPage] {
		return perPage
	}
	return DefaultPerPage
}

func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
}

// NewPagination builds page metadata for a page holding count items out of total.
func NewPagination(page, perPage int, total int64, count int) *Pagination {
	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}

	p := &Pagination{
		CurrentPage: page,
		LastPage:    lastPage,
		Total:       total,
		PerPage:     perPage,
	}
	if count > 0 {
		from := (page-1)*perPage + 1
		to := from + count - 1
		p.From = &from
		p.To = &to
	}
	return p
}

type Page[T any] struct {
	Data []T `json:"data"`
	Pagination
}

func NewPage[T any](data []T, pagination *Pagination) *Page[T] {
	if data == nil {
		data = []T{}
	}
	return &Page[T]{Data: data, Pagination: *pagination}
}

// PageOffset is the number of items before page. Pages past the end map to
// total so a huge page number cannot overflow the multiplication.
func PageOffset(page, perPage int, total int64) int {
	if int64(page-1) > total/int64(perPage) {
		return int(total)
	}
	return (page - 1) * perPage
}

// Paginate slices an in-memory list. The total is the length of items.
func Paginate[T any](items []T, page, perPage int) *Page[T] {
	page = NormalizePage(page)
	perPage = NormalizePerPage(perPage)

	total := len(items)
	start := PageOffset(page, perPage, int64(total))
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	pageItems := items[start:end]
	return NewPage(pageItems, NewPagination(page, perPage, int64(total), len(pageItems)))
}

// ListQuery is the shared listing input for roles, permissions and users.
type ListQuery struct {
	Filter  string `json:"filter" form:"filter"`
	Search  string `json:"search" form:"search"`
	PerPage int    `json:"per_page" form:"per_page"`
	Page    int    `json:"page" form:"page"`
}

func (q *ListQuery) Normalize() {
	q.PerPage = NormalizePerPage(q.PerPage)
	q.Page = NormalizePage(q.Page)
}
