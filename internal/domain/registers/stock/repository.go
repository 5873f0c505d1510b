// Package stock provides the stock register fed by generated document lines.
package stock

import (
	"context"
)

// Repository defines operations for the stock register.
type Repository interface {
	// CreateMovements inserts movements and adds their quantities to balances.
	CreateMovements(ctx context.Context, movements []Movement) error

	// GetMovementsByDocument returns movements of one document, oldest first.
	GetMovementsByDocument(ctx context.Context, kind string, docID int64) ([]Movement, error)

	// GetBalance returns a zero balance when nothing was ever moved.
	GetBalance(ctx context.Context, warehouse, reference string) (Balance, error)

	// GetBalancesByWarehouse returns balances of a warehouse, optionally without zeros.
	GetBalancesByWarehouse(ctx context.Context, warehouse string, excludeZero bool) ([]Balance, error)
}
