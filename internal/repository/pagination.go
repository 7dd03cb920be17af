package repository

import "math"

// Page selects a 1-based page of Size rows.
type Page struct {
	Number int
	Size   int
}

// Offset saturates at math.MaxInt instead of wrapping, so an absurd page
// yields no rows rather than the first page.
func (p Page) Offset() int {
	if p.Number < 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	if p.Size <= 0 {
		return -1
	}
	return p.Size
}
