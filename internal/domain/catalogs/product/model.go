// Package product provides the product catalog used to fill lines typed by reference.
package product

import (
	"context"
	"strings"

	"factura/internal/core/apperror"
)

// Product is a sellable or purchasable item.
type Product struct {
	Reference   string  `db:"referencia" json:"referencia"`
	Description string  `db:"descripcion" json:"descripcion"`
	Price       float64 `db:"precio" json:"precio"`
	// TaxCode is empty when the product uses the default tax.
	TaxCode string `db:"codimpuesto" json:"codimpuesto"`
	// NoStock disables stock movements for services and similar items.
	NoStock bool `db:"nostock" json:"nostock"`
}

func (p *Product) Key() string { return p.Reference }

func (p *Product) Validate(ctx context.Context) error {
	if strings.TrimSpace(p.Reference) == "" {
		return apperror.NewValidation("product reference is required").WithDetail("field", "referencia")
	}
	if p.Price < 0 {
		return apperror.NewValidation("price cannot be negative").WithDetail("field", "precio")
	}
	return nil
}
