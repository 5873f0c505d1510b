package catalog_repo

import (
	"factura/internal/domain/catalogs/counterparty"
	"factura/internal/infrastructure/storage/postgres"
)

// CounterpartyRepo implements counterparty.Repository on table sujetos.
type CounterpartyRepo struct {
	*BaseCatalogRepo[*counterparty.Counterparty, string]
}

func NewCounterpartyRepo(txm *postgres.TxManager) *CounterpartyRepo {
	return &CounterpartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*counterparty.Counterparty, string](
			txm,
			TableSpec{Table: "sujetos", Key: "codigo", Search: []string{"codigo", "nombre", "cifnif"}},
			postgres.ExtractDBColumns[counterparty.Counterparty](),
			func() *counterparty.Counterparty { return &counterparty.Counterparty{} },
		),
	}
}

var _ counterparty.Repository = (*CounterpartyRepo)(nil)
