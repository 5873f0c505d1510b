// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"factura/internal/domain/registers/stock"
	"factura/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "reg_stock_movements"
	stockBalancesTable  = "reg_stock_balances"
)

var movementColumns = []string{
	"id", "document_kind", "document_id", "line_id",
	"codalmacen", "referencia", "quantity", "period", "created_at",
}

const upsertBalanceSQL = `
	INSERT INTO reg_stock_balances (codalmacen, referencia, quantity, last_movement_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (codalmacen, referencia) DO UPDATE SET
		quantity = reg_stock_balances.quantity + EXCLUDED.quantity,
		last_movement_at = GREATEST(reg_stock_balances.last_movement_at, EXCLUDED.last_movement_at)`

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	batch   *postgres.BatchWriter
	builder squirrel.StatementBuilderType
}

func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		batch:   postgres.NewBatchWriter(txm),
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovements copies movements in and upserts the affected balances,
// in the caller's transaction or a new one.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.batch.CopyFromSlice(ctx, stockMovementsTable, movementColumns, movementRows(movements)); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		if err := r.batch.ExecuteBatch(ctx, balanceUpserts(movements)); err != nil {
			return fmt.Errorf("update balances: %w", err)
		}
		return nil
	})
}

func movementRows(movements []stock.Movement) [][]any {
	rows := make([][]any, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, []any{
			m.ID, m.DocumentKind, m.DocumentID, m.LineID,
			m.Warehouse, m.Reference, int64(m.Quantity), m.Period, m.CreatedAt,
		})
	}
	return rows
}

func balanceUpserts(movements []stock.Movement) []postgres.BatchQuery {
	queries := make([]postgres.BatchQuery, 0, len(movements))
	for _, m := range movements {
		queries = append(queries, postgres.BatchQuery{
			SQL:  upsertBalanceSQL,
			Args: []any{m.Warehouse, m.Reference, int64(m.Quantity), m.CreatedAt},
		})
	}
	return queries
}

func (r *StockRepo) GetMovementsByDocument(ctx context.Context, kind string, docID int64) ([]stock.Movement, error) {
	sql, args, err := r.builder.
		Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"document_kind": kind, "document_id": docID}).
		OrderBy("created_at", "line_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

func (r *StockRepo) GetBalance(ctx context.Context, warehouse, reference string) (stock.Balance, error) {
	sql, args, err := r.balanceSelect().
		Where(squirrel.Eq{"codalmacen": warehouse, "referencia": reference}).
		Limit(1).
		ToSql()
	if err != nil {
		return stock.Balance{}, fmt.Errorf("build query: %w", err)
	}

	var balance stock.Balance
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return stock.Balance{Warehouse: warehouse, Reference: reference}, nil
		}
		return balance, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (r *StockRepo) GetBalancesByWarehouse(ctx context.Context, warehouse string, excludeZero bool) ([]stock.Balance, error) {
	q := r.balanceSelect().
		Where(squirrel.Eq{"codalmacen": warehouse}).
		OrderBy("referencia")
	if excludeZero {
		q = q.Where(squirrel.NotEq{"quantity": 0})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []stock.Balance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return balances, nil
}

func (r *StockRepo) balanceSelect() squirrel.SelectBuilder {
	return r.builder.
		Select("codalmacen", "referencia", "quantity", "last_movement_at").
		From(stockBalancesTable)
}

var _ stock.Repository = (*StockRepo)(nil)
