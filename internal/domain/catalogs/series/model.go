// Package series provides document series. A series can mark its documents VAT exempt.
package series

import (
	"context"
	"strings"

	"factura/internal/core/apperror"
)

type Series struct {
	Code        string `db:"codserie" json:"codserie"`
	Description string `db:"descripcion" json:"descripcion"`
	// SinIVA makes every document of the series VAT, surcharge and withholding free.
	SinIVA bool `db:"siniva" json:"siniva"`
}

func (s *Series) Key() string { return s.Code }

func (s *Series) Validate(ctx context.Context) error {
	if strings.TrimSpace(s.Code) == "" {
		return apperror.NewValidation("series code is required").WithDetail("field", "codserie")
	}
	return nil
}
