// Package counterparty provides customers and suppliers: the subject of a business document.
package counterparty

import (
	"context"
	"regexp"
	"strings"

	"factura/internal/core/apperror"
)

var (
	whitespaceRE = regexp.MustCompile(`\s`)
	taxIDRE      = regexp.MustCompile(`^[A-Z0-9]{8,12}$`)
	emailRE      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// CounterpartyType defines the type of counterparty.
type CounterpartyType string

const (
	TypeCustomer CounterpartyType = "customer"
	TypeSupplier CounterpartyType = "supplier"
	TypeBoth     CounterpartyType = "both"
)

// Counterparty is a customer or supplier.
type Counterparty struct {
	Code string           `db:"codigo" json:"codigo"`
	Name string           `db:"nombre" json:"nombre"`
	Type CounterpartyType `db:"type" json:"type"`

	// TaxID (CIF/NIF)
	TaxID *string `db:"cifnif" json:"cifnif,omitempty"`
	Email *string `db:"email" json:"email,omitempty"`

	// IRPF is the default withholding rate for new documents of this subject.
	IRPF float64 `db:"irpf" json:"irpf"`

	// Recargo enables the equivalence surcharge on sales to this customer.
	Recargo bool `db:"recargo" json:"recargo"`
}

func NewCounterparty(code, name string, cpType CounterpartyType) *Counterparty {
	return &Counterparty{Code: code, Name: name, Type: cpType}
}

func (c *Counterparty) Key() string { return c.Code }

// Validate implements entity.Validatable interface.
func (c *Counterparty) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Code) == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "codigo")
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "nombre")
	}

	if !isValidCounterpartyType(c.Type) {
		return apperror.NewValidation("invalid counterparty type").
			WithDetail("field", "type").
			WithDetail("value", string(c.Type))
	}

	if c.IRPF < 0 || c.IRPF > 100 {
		return apperror.NewValidation("irpf must be between 0 and 100").WithDetail("field", "irpf")
	}

	if c.TaxID != nil && *c.TaxID != "" {
		cleaned := strings.ToUpper(whitespaceRE.ReplaceAllString(*c.TaxID, ""))
		if !taxIDRE.MatchString(cleaned) {
			return apperror.NewValidation("invalid tax id format").WithDetail("field", "cifnif")
		}
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}

func (c *Counterparty) IsCustomer() bool {
	return c.Type == TypeCustomer || c.Type == TypeBoth
}

func (c *Counterparty) IsSupplier() bool {
	return c.Type == TypeSupplier || c.Type == TypeBoth
}

func isValidCounterpartyType(t CounterpartyType) bool {
	switch t {
	case TypeCustomer, TypeSupplier, TypeBoth:
		return true
	}
	return false
}
