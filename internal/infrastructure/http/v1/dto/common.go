// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import "factura/internal/domain"

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps a domain list result with fn.
func NewListResponse[T any, R any](res domain.ListResult[T], fn func(T) R) ListResponse {
	items := make([]R, 0, len(res.Items))
	for _, item := range res.Items {
		items = append(items, fn(item))
	}
	return ListResponse{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// IDResponse for create operations.
type IDResponse struct {
	ID int64 `json:"id"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
