package search

import "math"

// PagingMode is where the requested page is cut out of the hit list.
type PagingMode int

const (
	// ClientPaging fetches up to the row cap in one call and windows the
	// visible hits locally.
	ClientPaging PagingMode = iota
	// EnginePaging asks the engine for the requested page only.
	EnginePaging
)

func (m PagingMode) String() string {
	if m == EnginePaging {
		return "engine"
	}
	return "client"
}

// Window is a half open range [Start, End) of hits.
type Window struct {
	Start int
	End   int
}

// ComputeWindow returns the hits to materialize for a page. Without a
// page, a page size or any hit the window covers every hit.
func ComputeWindow(totalHits, page, pageSize int) Window {
	if pageSize > 0 && page > 0 && totalHits > 0 {
		if page-1 > totalHits/pageSize {
			return Window{Start: totalHits, End: totalHits}
		}
		start := clamp(pageSize*(page-1), 0, totalHits)
		n := totalHits - start
		if pageSize < n {
			n = pageSize
		}
		return Window{Start: start, End: start + n}
	}
	if totalHits < 0 {
		totalHits = 0
	}
	return Window{Start: 0, End: totalHits}
}

// RowRange returns the offset and row count to request from the engine.
func RowRange(mode PagingMode, req Request, rowCap int) (from, size int) {
	if mode == EnginePaging && req.Paginated() {
		if req.Page-1 > math.MaxInt/req.PageSize {
			return math.MaxInt, req.PageSize
		}
		return req.PageSize * (req.Page - 1), req.PageSize
	}
	return 0, rowCap
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
