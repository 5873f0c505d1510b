// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"factura/internal/core/apperror"
	"factura/internal/core/entity"
	"factura/internal/domain"
	"factura/internal/infrastructure/storage/postgres"
)

// TableSpec describes how a catalog maps onto its table.
type TableSpec struct {
	Table string
	// Key is the primary key column.
	Key string
	// Search columns are matched with ILIKE by List.
	Search []string
	// Order is the default ORDER BY column.
	Order string
}

// BaseCatalogRepo provides upsert-style CRUD for key-addressed catalogs.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T entity.Keyed[K], K comparable] struct {
	txm        *postgres.TxManager
	spec       TableSpec
	selectCols []string
	newFn      func() T
}

func NewBaseCatalogRepo[T entity.Keyed[K], K comparable](
	txm *postgres.TxManager,
	spec TableSpec,
	selectCols []string,
	newFn func() T,
) *BaseCatalogRepo[T, K] {
	if spec.Order == "" {
		spec.Order = spec.Key
	}
	return &BaseCatalogRepo[T, K]{
		txm:        txm,
		spec:       spec,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *BaseCatalogRepo[T, K]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseCatalogRepo[T, K]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *BaseCatalogRepo[T, K]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.spec.Table)
}

// Get retrieves a record by key.
func (r *BaseCatalogRepo[T, K]) Get(ctx context.Context, key K) (T, error) {
	q := r.baseSelect().Where(squirrel.Eq{r.spec.Key: key}).Limit(1)
	e, err := r.FindOne(ctx, q)
	if apperror.IsNotFound(err) {
		return e, apperror.NewNotFound(r.spec.Table, key)
	}
	return e, err
}

// Save inserts e or overwrites the row with the same key.
func (r *BaseCatalogRepo[T, K]) Save(ctx context.Context, e T) error {
	sql, args, err := r.buildUpsert(e)
	if err != nil {
		return err
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", r.spec.Table, err)
	}
	return nil
}

func (r *BaseCatalogRepo[T, K]) buildUpsert(e T) (string, []any, error) {
	data := postgres.StructToMap(e)
	if len(data) == 0 {
		return "", nil, fmt.Errorf("no db tags found in entity")
	}

	cols := make([]string, 0, len(r.selectCols))
	vals := make([]any, 0, len(r.selectCols))
	updates := make([]string, 0, len(r.selectCols))
	for _, col := range r.selectCols {
		v, ok := data[col]
		if !ok {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, v)
		if col != r.spec.Key {
			updates = append(updates, col+" = EXCLUDED."+col)
		}
	}

	suffix := fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", r.spec.Key)
	if len(updates) > 0 {
		suffix = fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", r.spec.Key, strings.Join(updates, ", "))
	}

	sql, args, err := r.Builder().
		Insert(r.spec.Table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build upsert: %w", err)
	}
	return sql, args, nil
}

// List retrieves records with search and pagination.
func (r *BaseCatalogRepo[T, K]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q, countQ, err := r.buildList(filter)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}
	return result, nil
}

// buildList returns the page query and its count query.
func (r *BaseCatalogRepo[T, K]) buildList(filter domain.ListFilter) (squirrel.SelectBuilder, squirrel.SelectBuilder, error) {
	q := r.baseSelect()

	if filter.Search != "" && len(r.spec.Search) > 0 {
		pattern := "%" + filter.Search + "%"
		or := make(squirrel.Or, 0, len(r.spec.Search))
		for _, col := range r.spec.Search {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return q, countQ, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q, countQ, nil
}

// All returns every record in default order.
func (r *BaseCatalogRepo[T, K]) All(ctx context.Context) ([]T, error) {
	sql, args, err := r.baseSelect().OrderBy(r.spec.Order).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var items []T
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list all %s: %w", r.spec.Table, err)
	}
	return items, nil
}

// Delete removes a record. Rows still referenced by documents are a conflict.
func (r *BaseCatalogRepo[T, K]) Delete(ctx context.Context, key K) error {
	sql, args, err := r.Builder().
		Delete(r.spec.Table).
		Where(squirrel.Eq{r.spec.Key: key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewConflict("record is referenced by other records").
				WithDetail("entity", r.spec.Table).
				WithDetail("key", key).
				WithCause(err)
		}
		return fmt.Errorf("execute delete %s: %w", r.spec.Table, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.spec.Table, key)
	}
	return nil
}

// FindOne executes a SELECT query and returns a single record.
func (r *BaseCatalogRepo[T, K]) FindOne(ctx context.Context, q squirrel.SelectBuilder) (T, error) {
	e := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound(r.spec.Table, "matching query")
		}
		return e, fmt.Errorf("find one in %s: %w", r.spec.Table, err)
	}
	return e, nil
}

func (r *BaseCatalogRepo[T, K]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return r.spec.Order + " ASC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	for _, col := range r.selectCols {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
}
