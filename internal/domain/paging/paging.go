// Package paging holds the page request/result pair used by listing
// operations.
package paging

const (
	DefaultSize = 20
	MaxSize     = 100
)

// Params selects a 1-based page of Size items.
type Params struct {
	Page int
	Size int
}

// Normalize clamps out-of-range values to the defaults.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Size
}

// Limit returns the page size after normalization.
func (p Params) Limit() int {
	return p.Normalize().Size
}

// Result is one page of items together with the unpaged total.
type Result[T any] struct {
	Items []T
	Total int
	Page  int
	Size  int
}

// NewResult assembles a Result for the normalized params.
func NewResult[T any](items []T, total int, p Params) Result[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	return Result[T]{Items: items, Total: total, Page: p.Page, Size: p.Size}
}

// TotalPages returns the number of pages needed for Total items.
func (r Result[T]) TotalPages() int {
	if r.Size == 0 {
		return 0
	}
	return (r.Total + r.Size - 1) / r.Size
}
