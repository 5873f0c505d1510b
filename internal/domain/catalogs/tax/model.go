// Package tax provides the tax catalog: VAT rate and equivalence surcharge per tax code.
package tax

import (
	"context"
	"strings"

	"factura/internal/core/apperror"
)

// Tax is one configured tax rate.
type Tax struct {
	Code        string  `db:"codimpuesto" json:"codimpuesto"`
	Description string  `db:"descripcion" json:"descripcion"`
	IVA         float64 `db:"iva" json:"iva"`
	Recargo     float64 `db:"recargo" json:"recargo"`
	// IsDefault marks the tax applied to lines that carry no rate of their own.
	IsDefault bool `db:"isdefault" json:"isdefault"`
}

func (t *Tax) Key() string { return t.Code }

func (t *Tax) Validate(ctx context.Context) error {
	if strings.TrimSpace(t.Code) == "" {
		return apperror.NewValidation("tax code is required").WithDetail("field", "codimpuesto")
	}
	if t.IVA < 0 || t.IVA > 100 {
		return apperror.NewValidation("iva must be between 0 and 100").
			WithDetail("field", "iva").
			WithDetail("value", t.IVA)
	}
	if t.Recargo < 0 || t.Recargo > 100 {
		return apperror.NewValidation("recargo must be between 0 and 100").
			WithDetail("field", "recargo").
			WithDetail("value", t.Recargo)
	}
	return nil
}
