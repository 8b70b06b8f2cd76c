package search_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goto/vfsearch/core/search"
)

func TestComputeWindow(t *testing.T) {
	type testCase struct {
		Description string
		Total       int
		Page        int
		PageSize    int
		Expected    search.Window
	}
	var testCases = []testCase{
		{Description: "first page", Total: 25, Page: 1, PageSize: 10, Expected: search.Window{Start: 0, End: 10}},
		{Description: "last partial page", Total: 25, Page: 3, PageSize: 10, Expected: search.Window{Start: 20, End: 25}},
		{Description: "page past the end", Total: 25, Page: 9, PageSize: 10, Expected: search.Window{Start: 25, End: 25}},
		{Description: "no page returns everything", Total: 25, Page: 0, PageSize: 10, Expected: search.Window{Start: 0, End: 25}},
		{Description: "no page size returns everything", Total: 25, Page: 2, PageSize: 0, Expected: search.Window{Start: 0, End: 25}},
		{Description: "negative page size returns everything", Total: 7, Page: 2, PageSize: -3, Expected: search.Window{Start: 0, End: 7}},
		{Description: "no hits", Total: 0, Page: 1, PageSize: 10, Expected: search.Window{Start: 0, End: 0}},
		{Description: "huge page size", Total: 100, Page: 2, PageSize: math.MaxInt, Expected: search.Window{Start: 100, End: 100}},
		{Description: "huge page size on the first page", Total: 100, Page: 1, PageSize: math.MaxInt, Expected: search.Window{Start: 0, End: 100}},
		{Description: "huge page number", Total: 100, Page: math.MaxInt, PageSize: 3, Expected: search.Window{Start: 100, End: 100}},
	}

	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			assert.Equal(t, tc.Expected, search.ComputeWindow(tc.Total, tc.Page, tc.PageSize))
		})
	}
}

func TestComputeWindowBounds(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for page := 1; page <= 6; page++ {
			for size := 1; size <= 12; size++ {
				w := search.ComputeWindow(total, page, size)
				if !(0 <= w.Start && w.Start <= w.End && w.End <= total && w.End-w.Start <= size) {
					t.Fatalf("window %+v out of bounds for total=%d page=%d size=%d", w, total, page, size)
				}
			}
		}
	}
}

func TestRowRange(t *testing.T) {
	req := search.Request{Page: 3, PageSize: 10}

	from, size := search.RowRange(search.EnginePaging, req, 1000)
	assert.Equal(t, 20, from)
	assert.Equal(t, 10, size)

	from, size = search.RowRange(search.ClientPaging, req, 1000)
	assert.Equal(t, 0, from)
	assert.Equal(t, 1000, size)

	from, size = search.RowRange(search.EnginePaging, search.Request{}, 500)
	assert.Equal(t, 0, from)
	assert.Equal(t, 500, size)

	from, size = search.RowRange(search.EnginePaging, search.Request{Page: math.MaxInt, PageSize: 10}, 1000)
	assert.GreaterOrEqual(t, from, 0)
	assert.Equal(t, 10, size)
}
