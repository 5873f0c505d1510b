package totals

import (
	"context"

	"factura/internal/core/diag"
	"factura/internal/domain/catalogs/product"
	"factura/internal/domain/documents/business"
)

// TaxContext is resolved once per recalculation and applied to every line.
type TaxContext struct {
	// Exempt comes from the series (siniva).
	Exempt bool
	// ApplySurcharge is the subject's equivalence surcharge flag
	// (customer for sales, company for purchases).
	ApplySurcharge bool
	// IRPF is the withholding rate for lines that carry none.
	IRPF float64
}

// Normalizer turns raw form lines into fully computed lines.
type Normalizer struct {
	products product.Repository
}

func NewNormalizer(products product.Repository) *Normalizer {
	return &Normalizer{products: products}
}

// Normalize computes a line from form input.
//
//  1. reference without description: product data fills description,
//     quantity 1, price and tax.
//  2. otherwise, with no explicit VAT rate: the typed tax code, or the
//     default tax, sets VAT and surcharge.
//  3. withholding: the typed value when non-empty, else tc.IRPF.
//  4. derived amounts.
//  5. exemption zeroes every rate.
//
// Product and tax misses are recorded in col and never abort.
func (n *Normalizer) Normalize(ctx context.Context, taxes *TaxTable, tc TaxContext, in business.FormLine, col *diag.Collector) (business.Line, error) {
	line := in.Line()

	if line.Reference != "" && line.Description == "" {
		if err := n.fillFromProduct(ctx, taxes, tc, &line, col); err != nil {
			return line, err
		}
	} else if in.IsEmpty(business.FieldIVA) {
		rate, err := taxes.Resolve(line.TaxCode, "", false, col)
		if err != nil {
			return line, err
		}
		applyRate(&line, rate, tc)
	}

	if in.IsEmpty(business.FieldIRPF) {
		line.IRPF = tc.IRPF
	}

	line.ApplyAmounts()

	if tc.Exempt {
		line.Exempt()
	}
	return line, nil
}

func (n *Normalizer) fillFromProduct(ctx context.Context, taxes *TaxTable, tc TaxContext, line *business.Line, col *diag.Collector) error {
	p, err := n.products.Get(ctx, line.Reference)
	if err != nil || p == nil {
		col.Warning("product not found", "referencia", line.Reference)
		return nil
	}

	line.Description = p.Description
	line.Quantity = 1
	line.UnitPrice = p.Price

	rate, err := taxes.Resolve("", p.TaxCode, false, col)
	if err != nil {
		return err
	}
	applyRate(line, rate, tc)
	return nil
}

// applyRate sets code and VAT; surcharge only when the subject is under the
// equivalence regime, otherwise the line keeps its own value.
func applyRate(line *business.Line, rate Rate, tc TaxContext) {
	line.TaxCode = rate.Code
	line.IVA = rate.IVA
	if tc.ApplySurcharge {
		line.Recargo = rate.Recargo
	}
}

// Refresh recomputes a stored line. Stored tax fields are kept; only the
// derived amounts and the exemption are reapplied.
func (n *Normalizer) Refresh(tc TaxContext, line business.Line) business.Line {
	line.ApplyAmounts()
	if tc.Exempt {
		line.Exempt()
	}
	return line
}
