package organization

import (
	"context"

	"factura/internal/domain"
)

// Repository defines the interface for company storage.
type Repository interface {
	domain.CatalogRepository[*Company, int64]

	GetDefault(ctx context.Context) (*Company, error)
}
