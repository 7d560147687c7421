// Package paging computes offset/limit windows and page-number buttons for
// list screens.
package paging

// DefaultSize is used when a non-positive page size is requested.
const DefaultSize = 10

// WindowSize is the maximum number of page buttons shown at once.
const WindowSize = 5

// Page is the pagination state for one list request.
type Page struct {
	Current    int   // 1-based, clamped into range
	Size       int   // records per page; the backend limit
	Offset     int   // the backend start
	Total      int   // total record count
	TotalPages int   // ceil(Total / Size)
	Window     []int // consecutive page numbers centered on Current
}

// Compute derives the page state for a total record count.
func Compute(total, size, current int) Page {
	if size <= 0 {
		size = DefaultSize
	}
	if total < 0 {
		total = 0
	}
	pages := (total + size - 1) / size
	if current > pages {
		current = pages
	}
	if current < 1 {
		current = 1
	}
	return Page{
		Current:    current,
		Size:       size,
		Offset:     (current - 1) * size,
		Total:      total,
		TotalPages: pages,
		Window:     window(current, pages),
	}
}

// At returns the request window for a page before the total is known.
func At(size, current int) Page {
	if size <= 0 {
		size = DefaultSize
	}
	if current < 1 {
		current = 1
	}
	return Page{Current: current, Size: size, Offset: (current - 1) * size}
}

func window(current, pages int) []int {
	if pages == 0 {
		return nil
	}
	start := current - WindowSize/2
	if start < 1 {
		start = 1
	}
	end := start + WindowSize - 1
	if end > pages {
		end = pages
		start = max(1, end-WindowSize+1)
	}
	out := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	return out
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Current > 1 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Current < p.TotalPages }
