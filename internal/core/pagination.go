// AngelaMos | 2026
// pagination.go

package core

import "math"

// LastPage asks for whatever the final page is at query time.
const LastPage = -1

type PageRequest struct {
	Page    int
	PerPage int
}

func NewPageRequest(page, perPage int) PageRequest {
	if page < 1 && page != LastPage {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	// Page*PerPage must fit in an int. Anything past that is past the end.
	if maxPage := math.MaxInt / perPage; page > maxPage {
		page = maxPage
	}
	return PageRequest{Page: page, PerPage: perPage}
}

// Resolve replaces the LastPage sentinel using the total counted by the
// same query that will fetch the page.
func (p PageRequest) Resolve(total int) PageRequest {
	if p.Page != LastPage {
		return p
	}
	p.Page = 1
	if total > 0 {
		p.Page = (total-1)/p.PerPage + 1
	}
	return p
}

func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

func (p PageRequest) Limit() int {
	return p.PerPage
}

type Page[T any] struct {
	Items   []T
	Page    int
	PerPage int
	Total   int
}

func NewPage[T any](items []T, req PageRequest, total int) Page[T] {
	req = req.Resolve(total)
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:   items,
		Page:    req.Page,
		PerPage: req.PerPage,
		Total:   total,
	}
}

func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}

func (p Page[T]) HasNext() bool {
	return p.Page < p.Pages()
}

func (p Page[T]) PrevNum() int {
	if !p.HasPrev() {
		return 0
	}
	return p.Page - 1
}

func (p Page[T]) NextNum() int {
	if !p.HasNext() {
		return 0
	}
	return p.Page + 1
}

func (p Page[T]) Pages() int {
	if p.PerPage < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// IterPages yields page numbers for navigation widgets. A zero marks a gap.
func (p Page[T]) IterPages() []int {
	const (
		leftEdge     = 2
		leftCurrent  = 2
		rightCurrent = 5
		rightEdge    = 2
	)

	pages := p.Pages()
	out := make([]int, 0, pages)
	last := 0
	for num := 1; num <= pages; num++ {
		if num <= leftEdge ||
			(num > p.Page-leftCurrent-1 && num < p.Page+rightCurrent) ||
			num > pages-rightEdge {
			if last+1 != num {
				out = append(out, 0)
			}
			out = append(out, num)
			last = num
		}
	}
	return out
}
