package service

import "lukeblog/internal/models"

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

// NewPagination clamps page and size to at least 1.
func NewPagination(page, size int) Pagination {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	return Pagination{Page: page, Size: size}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Size
}

// NumPages is at least 1 so an empty listing still has a first page.
func (p Pagination) NumPages() int {
	if p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

func (p Pagination) HasNext() bool {
	return p.Page < p.NumPages()
}

func (p Pagination) HasPrevious() bool {
	return p.Page > 1
}

func (p Pagination) NextPage() int {
	return p.Page + 1
}

func (p Pagination) PreviousPage() int {
	return p.Page - 1
}

// Check rejects pages past the end of the listing.
func (p Pagination) Check() error {
	if p.Page > p.NumPages() {
		return models.NewNotFoundError("Page", p.Page)
	}
	return nil
}
