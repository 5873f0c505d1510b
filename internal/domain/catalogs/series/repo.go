package series

import "factura/internal/domain"

type Repository interface {
	domain.CatalogRepository[*Series, string]
}
