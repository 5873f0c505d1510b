package catalog_repo

import (
	"context"

	"factura/internal/core/apperror"
	"factura/internal/domain/catalogs/organization"
	"factura/internal/infrastructure/storage/postgres"
)

// CompanyRepo implements organization.Repository on table empresas.
type CompanyRepo struct {
	*BaseCatalogRepo[*organization.Company, int64]
}

func NewCompanyRepo(txm *postgres.TxManager) *CompanyRepo {
	return &CompanyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*organization.Company, int64](
			txm,
			TableSpec{Table: "empresas", Key: "idempresa", Search: []string{"nombre"}},
			postgres.ExtractDBColumns[organization.Company](),
			func() *organization.Company { return &organization.Company{} },
		),
	}
}

// GetDefault returns the company flagged default, or the one with the lowest id.
func (r *CompanyRepo) GetDefault(ctx context.Context) (*organization.Company, error) {
	q := r.baseSelect().
		OrderBy("isdefault DESC", "idempresa ASC").
		Limit(1)

	c, err := r.FindOne(ctx, q)
	if apperror.IsNotFound(err) {
		return nil, apperror.NewNotFound("company", "default")
	}
	return c, err
}

var _ organization.Repository = (*CompanyRepo)(nil)
