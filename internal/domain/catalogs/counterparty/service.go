package counterparty

import (
	"context"

	"factura/internal/core/apperror"
	"factura/internal/core/tx"
	"factura/internal/domain"
)

// Service provides business logic for the counterparty catalog.
type Service struct {
	*domain.CatalogService[*Counterparty, string]
}

func NewService(repo Repository, txm tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Counterparty, string]{
		Repo:       repo,
		TxManager:  txm,
		EntityName: "counterparty",
	})
	return &Service{CatalogService: base}
}

// GetCustomer returns the counterparty only if it can be sold to.
func (s *Service) GetCustomer(ctx context.Context, code string) (*Counterparty, error) {
	c, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !c.IsCustomer() {
		return nil, apperror.NewNotFound("customer", code)
	}
	return c, nil
}

// GetSupplier returns the counterparty only if it can be bought from.
func (s *Service) GetSupplier(ctx context.Context, code string) (*Counterparty, error) {
	c, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !c.IsSupplier() {
		return nil, apperror.NewNotFound("supplier", code)
	}
	return c, nil
}
