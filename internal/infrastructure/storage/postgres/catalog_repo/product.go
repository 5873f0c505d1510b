package catalog_repo

import (
	"factura/internal/domain/catalogs/product"
	"factura/internal/infrastructure/storage/postgres"
)

// ProductRepo implements product.Repository on table productos.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product, string]
}

func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*product.Product, string](
			txm,
			TableSpec{Table: "productos", Key: "referencia", Search: []string{"referencia", "descripcion"}},
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

var _ product.Repository = (*ProductRepo)(nil)
