package entities

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is a zero-based page index plus a page size.
type PageRequest struct {
	Page int
	Size int
}

func NewPageRequest(page, size int) PageRequest {
	return PageRequest{Page: page, Size: size}.Normalize()
}

func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	// keeps Offset from overflowing
	if p.Page > math.MaxInt/p.Size {
		p.Page = math.MaxInt / p.Size
	}
	return p
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type Page[T any] struct {
	Items []T
	Page  int
	Size  int
	Total int
}

// Paginate slices an already filtered and ordered list.
func Paginate[T any](items []T, req PageRequest) Page[T] {
	req = req.Normalize()
	out := Page[T]{Items: []T{}, Page: req.Page, Size: req.Size, Total: len(items)}
	start := req.Offset()
	if start >= len(items) {
		return out
	}
	end := start + req.Size
	if end > len(items) {
		end = len(items)
	}
	out.Items = append(out.Items, items[start:end]...)
	return out
}
