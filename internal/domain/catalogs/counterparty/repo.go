package counterparty

import "factura/internal/domain"

// Repository defines the interface for Counterparty persistence.
type Repository interface {
	domain.CatalogRepository[*Counterparty, string]
}
