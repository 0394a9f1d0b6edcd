package service

// Pagination defaults shared by the read-side listings.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*pageSize well inside a Postgres bigint OFFSET.
	MaxPage = 1_000_000
)

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize clamps the request to valid values, using fallback as the page
// size when none was given.
func (r PageRequest) Normalize(fallback int) PageRequest {
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Page > MaxPage {
		r.Page = MaxPage
	}
	if r.PageSize < 1 {
		r.PageSize = fallback
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	return r
}

// Page is one page of a listing together with its totals.
type Page[T any] struct {
	Items       []T
	TotalItems  int
	PageSize    int
	CurrentPage int
}

// NewPage builds a Page for a normalized request.
func NewPage[T any](items []T, total int, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		TotalItems:  total,
		PageSize:    req.PageSize,
		CurrentPage: req.Page,
	}
}

// ItemCount is the number of items on this page.
func (p Page[T]) ItemCount() int {
	return len(p.Items)
}

// TotalPages is ceil(TotalItems / PageSize).
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalItems + p.PageSize - 1) / p.PageSize
}
