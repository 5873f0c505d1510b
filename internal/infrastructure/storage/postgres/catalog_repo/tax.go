package catalog_repo

import (
	"factura/internal/domain/catalogs/tax"
	"factura/internal/infrastructure/storage/postgres"
)

// TaxRepo implements tax.Repository on table impuestos.
type TaxRepo struct {
	*BaseCatalogRepo[*tax.Tax, string]
}

func NewTaxRepo(txm *postgres.TxManager) *TaxRepo {
	return &TaxRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*tax.Tax, string](
			txm,
			TableSpec{Table: "impuestos", Key: "codimpuesto", Search: []string{"codimpuesto", "descripcion"}},
			postgres.ExtractDBColumns[tax.Tax](),
			func() *tax.Tax { return &tax.Tax{} },
		),
	}
}

var _ tax.Repository = (*TaxRepo)(nil)
