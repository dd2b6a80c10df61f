package paging

import (
	"fmt"
	"strings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 1000

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Params holds offset pagination and ordering parameters
type Params struct {
	Limit     int    `json:"limit" form:"limit"`
	Offset    int    `json:"offset" form:"offset"`
	SortBy    string `json:"sort_by" form:"sort_by"`
	SortOrder string `json:"sort_order" form:"sort_order"`
}

// Result holds the pagination result
type Result[T any] struct {
	Items       []T   `json:"items"`
	Total       int64 `json:"total"`
	Limit       int   `json:"limit"`
	Offset      int   `json:"offset"`
	HasNextPage bool  `json:"has_next"`
}

// NormalizeParams clamps limit and offset and resolves the sort field against
// the allowed set; unknown fields fall back to defaultSort.
func NormalizeParams(params Params, defaultSort string, allowedSort ...string) Params {
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	if params.Limit > MaxLimit {
		params.Limit = MaxLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	sortBy := strings.ToLower(strings.TrimSpace(params.SortBy))
	params.SortBy = defaultSort
	for _, s := range allowedSort {
		if sortBy == s {
			params.SortBy = s
			break
		}
	}

	if strings.EqualFold(params.SortOrder, SortAsc) {
		params.SortOrder = SortAsc
	} else {
		params.SortOrder = SortDesc
	}
	return params
}

// PagingFunc loads one page of items along with the unpaged total
type PagingFunc[T any] func(limit, offset int) (items []T, total int64, err error)

// Paginate applies pagination using the provided PagingFunc
func Paginate[T any](params Params, fn PagingFunc[T]) (*Result[T], error) {
	items, total, err := fn(params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("pagination error: %w", err)
	}
	if items == nil {
		items = make([]T, 0)
	}
	return &Result[T]{
		Items:       items,
		Total:       total,
		Limit:       params.Limit,
		Offset:      params.Offset,
		HasNextPage: int64(params.Offset+len(items)) < total,
	}, nil
}
