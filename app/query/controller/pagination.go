package controller

import (
	"net/http"
	"strconv"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// SortOrder is the direction operations are listed in.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// pageSpec pages over operation sequence indexes. After, when set, is the
// exclusive index the page continues from.
type pageSpec struct {
	Limit int
	After *uint64
	Sort  SortOrder
}

func parsePageSpec(r *http.Request) (pageSpec, error) {
	qs := r.URL.Query()
	p := pageSpec{Limit: defaultLimit, Sort: SortOrderDesc}

	if v := qs.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return pageSpec{}, errInvalidLimit
		}
		p.Limit = min(n, maxLimit)
	}
	if v := qs.Get("cursor"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return pageSpec{}, errInvalidCursor
		}
		p.After = &n
	}
	switch SortOrder(qs.Get("sort")) {
	case "", SortOrderDesc:
	case SortOrderAsc:
		p.Sort = SortOrderAsc
	default:
		return pageSpec{}, errInvalidSort
	}
	return p, nil
}

// admits reports whether an operation index lies past the cursor.
func (p pageSpec) admits(index uint64) bool {
	switch {
	case p.After == nil:
		return true
	case p.Sort == SortOrderAsc:
		return index > *p.After
	default:
		return index < *p.After
	}
}

// page cuts rows to the limit, returning the cursor of the next page when
// more rows exist. rows must already be in page order.
func page[T any](p pageSpec, rows []T, index func(T) uint64) ([]T, *uint64) {
	if len(rows) <= p.Limit {
		return rows, nil
	}
	rows = rows[:p.Limit]
	next := index(rows[len(rows)-1])
	return rows, &next
}

var (
	errInvalidLimit  = &parseError{msg: "invalid limit"}
	errInvalidCursor = &parseError{msg: "invalid cursor"}
	errInvalidSort   = &parseError{msg: "invalid sort, must be 'asc' or 'desc'"}
)

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }
