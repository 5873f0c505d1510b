package organization

import (
	"context"

	"factura/internal/core/tx"
	"factura/internal/domain"
)

// Service provides business logic for the company catalog.
type Service struct {
	*domain.CatalogService[*Company, int64]
	repo Repository
}

func NewService(repo Repository, txm tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Company, int64]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "company",
	})
	return &Service{CatalogService: base, repo: repo}
}

// GetDefault retrieves the default company.
func (s *Service) GetDefault(ctx context.Context) (*Company, error) {
	return s.repo.GetDefault(ctx)
}
