package tax

import (
	"context"

	"factura/internal/domain"
)

// Repository defines data access for taxes.
type Repository interface {
	domain.CatalogRepository[*Tax, string]

	// All returns every tax. Order is unspecified; callers sort.
	All(ctx context.Context) ([]*Tax, error)
}
