package services

import "math"

// maxPage bounds the page number so the row offset cannot overflow.
const maxPage = math.MaxInt32

// Page is the list envelope shared by paginated endpoints.
type Page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

func newPage[T any](items []T, page, perPage, total int) Page[T] {
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, CurrentPage: page, LastPage: lastPage, PerPage: perPage, Total: total}
}

func pageOffset(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	return page, (page - 1) * perPage
}
