package register_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factura/internal/core/id"
	"factura/internal/core/types"
	"factura/internal/domain/registers/stock"
)

func TestMovementRows(t *testing.T) {
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	m := stock.Movement{
		ID:           id.New(),
		DocumentKind: "customer-delivery-note",
		DocumentID:   3,
		LineID:       9,
		Warehouse:    "ALG",
		Reference:    "P1",
		Quantity:     types.NewQuantityFromFloat64(-2.5),
		Period:       now,
		CreatedAt:    now,
	}

	rows := movementRows([]stock.Movement{m})
	require.Len(t, rows, 1)
	require.Len(t, rows[0], len(movementColumns))
	assert.Equal(t, int64(-25000), rows[0][6])
	assert.Equal(t, "ALG", rows[0][4])

	q := balanceUpserts([]stock.Movement{m, m})
	require.Len(t, q, 2)
	assert.Contains(t, q[0].SQL, "ON CONFLICT (codalmacen, referencia)")
	assert.Equal(t, []any{"ALG", "P1", int64(-25000), now}, q[0].Args)
}

func TestBalanceQueries(t *testing.T) {
	r := NewStockRepo(nil)

	sql, args, err := r.balanceSelect().
		Where(map[string]any{"codalmacen": "ALG"}).
		ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT codalmacen, referencia, quantity, last_movement_at FROM reg_stock_balances WHERE codalmacen = $1", sql)
	assert.Equal(t, []any{"ALG"}, args)
}
