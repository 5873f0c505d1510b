// Package organization provides the companies that issue and receive documents.
package organization

import (
	"context"
	"strings"

	"factura/internal/core/apperror"
)

// Company is a legal entity documents are booked under.
type Company struct {
	ID   int64  `db:"idempresa" json:"idempresa"`
	Name string `db:"nombre" json:"nombre"`

	// RecEquivalencia means the company itself is under the equivalence
	// surcharge regime, so purchases carry surcharge.
	RecEquivalencia bool `db:"recequivalencia" json:"recequivalencia"`

	// DefaultWarehouse is used by new documents with no warehouse.
	DefaultWarehouse string `db:"codalmacen" json:"codalmacen"`

	// IsDefault marks the company used when a document names none.
	IsDefault bool `db:"isdefault" json:"isdefault"`
}

func (c *Company) Key() int64 { return c.ID }

func (c *Company) Validate(ctx context.Context) error {
	if c.ID <= 0 {
		return apperror.NewValidation("company id must be positive").WithDetail("field", "idempresa")
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "nombre")
	}
	return nil
}
