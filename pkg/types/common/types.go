// Package common holds the wire envelopes shared by the HTTP API and its
// Go client.
package common

import (
	"fmt"
)

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Paging bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NewPagination computes the page metadata for total items.
func NewPagination(page, pageSize, total int) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	pages := 0
	if total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}

// Validate checks the request side of a pagination.
func (p Pagination) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be >= 1")
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d", MaxPageSize)
	}
	return nil
}

// Offset returns the index of the first item on the page.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Paginate slices items to the page p and returns it with the metadata.
func Paginate[T any](items []T, page, pageSize int) ([]T, Pagination) {
	p := NewPagination(page, pageSize, len(items))
	start := p.Offset()
	if start >= len(items) {
		return []T{}, p
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], p
}

// ErrorDetail is the structured error body.  The API key middleware writes
// it bare; handlers nest it in ErrorResponse.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the success envelope.
type APIResponse[T any] struct {
	Success    bool        `json:"success"`
	Data       T           `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewSuccessResponse wraps data.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{Success: true, Data: data}
}

// NewPaginatedResponse wraps one page of data.
func NewPaginatedResponse[T any](data T, p Pagination) APIResponse[T] {
	return APIResponse[T]{Success: true, Data: data, Pagination: &p}
}

// NewErrorResponse builds a failure envelope.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

//Personal.AI order the ending
