package catalog_repo

import (
	"factura/internal/domain/catalogs/series"
	"factura/internal/infrastructure/storage/postgres"
)

// SeriesRepo implements series.Repository on table series.
type SeriesRepo struct {
	*BaseCatalogRepo[*series.Series, string]
}

func NewSeriesRepo(txm *postgres.TxManager) *SeriesRepo {
	return &SeriesRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*series.Series, string](
			txm,
			TableSpec{Table: "series", Key: "codserie", Search: []string{"codserie", "descripcion"}},
			postgres.ExtractDBColumns[series.Series](),
			func() *series.Series { return &series.Series{} },
		),
	}
}

var _ series.Repository = (*SeriesRepo)(nil)
