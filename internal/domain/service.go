package domain

import (
	"context"
	"fmt"

	"factura/internal/core/apperror"
	"factura/internal/core/entity"
	"factura/internal/core/tx"
	"factura/pkg/logger"
)

// CatalogService provides validation, hooks and transactions around a
// CatalogRepository. Taxes, products, counterparties, companies and series
// all go through it.
type CatalogService[T entity.Keyed[K], K comparable] struct {
	repo      CatalogRepository[T, K]
	txManager tx.Manager
	hooks     *HookRegistry[T]

	// entityName for error messages
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Keyed[K], K comparable] struct {
	Repo       CatalogRepository[T, K]
	TxManager  tx.Manager
	EntityName string
}

func NewCatalogService[T entity.Keyed[K], K comparable](cfg CatalogServiceConfig[T, K]) *CatalogService[T, K] {
	txm := cfg.TxManager
	if txm == nil {
		txm = tx.Nop{}
	}
	return &CatalogService[T, K]{
		repo:       cfg.Repo,
		txManager:  txm,
		hooks:      NewHookRegistry[T](),
		entityName: cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T, K]) Hooks() *HookRegistry[T] {
	return s.hooks
}

func (s *CatalogService[T, K]) normalizeValidationErr(err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T, K]) normalizeGetErr(err error, key K) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, key)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("key", key)
}

// Save validates and upserts e.
func (s *CatalogService[T, K]) Save(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}

	if err := s.hooks.Run(ctx, BeforeSave, e); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Save(ctx, e); err != nil {
			return fmt.Errorf("save %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The record is already stored; after-save failures are only logged.
	if err := s.hooks.Run(ctx, AfterSave, e); err != nil {
		logger.Warn(ctx, "after-save hook failed", "entity", s.entityName, "key", e.Key(), "error", err)
	}
	return nil
}

// Get retrieves a record by key.
func (s *CatalogService[T, K]) Get(ctx context.Context, key K) (T, error) {
	e, err := s.repo.Get(ctx, key)
	if err != nil {
		return e, s.normalizeGetErr(err, key)
	}
	return e, nil
}

// Delete removes a record by key.
func (s *CatalogService[T, K]) Delete(ctx context.Context, key K) error {
	e, err := s.repo.Get(ctx, key)
	if err != nil {
		return s.normalizeGetErr(err, key)
	}
	if err := s.hooks.Run(ctx, BeforeDelete, e); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, key)
	})
}

// List retrieves records with filtering.
func (s *CatalogService[T, K]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultListFilter().Limit
	}
	return s.repo.List(ctx, filter)
}
