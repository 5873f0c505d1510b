// Package domain provides the contracts shared by catalog and document services.
package domain

import (
	"context"

	"factura/internal/core/entity"
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches the key or the description column (ILIKE)
	Search string

	// OrderBy specifies sorting (e.g., "codimpuesto", "-precio")
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 50}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// CatalogRepository defines storage for key-addressed catalog records.
type CatalogRepository[T entity.Keyed[K], K comparable] interface {
	// Get returns apperror.NotFound when no record has the key.
	Get(ctx context.Context, key K) (T, error)

	// Save inserts or replaces the record with the same key.
	Save(ctx context.Context, e T) error

	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	Delete(ctx context.Context, key K) error
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeSave       HookEvent = "before_save"
	AfterSave        HookEvent = "after_save"
	BeforeDelete     HookEvent = "before_delete"
	AfterRecalculate HookEvent = "after_recalculate"
	AfterGenerate    HookEvent = "after_generate"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes hooks in registration order and stops at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}
