package product

import "factura/internal/domain"

// Repository defines data access for products.
type Repository interface {
	domain.CatalogRepository[*Product, string]
}
