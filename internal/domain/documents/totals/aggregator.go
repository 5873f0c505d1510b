package totals

import (
	"factura/internal/core/types"
	"factura/internal/domain/documents/business"
)

// Subtotal is one tax group of a document.
type Subtotal struct {
	// Key is the tax code, or "{iva}-{recargo}" for lines without one.
	Key     string  `json:"key"`
	IVA     float64 `json:"iva"`
	Recargo float64 `json:"recargo"`

	IRPF         float64 `json:"irpf"`
	Net          float64 `json:"neto"`
	TotalIVA     float64 `json:"totaliva"`
	TotalRecargo float64 `json:"totalrecargo"`
	TotalIRPF    float64 `json:"totalirpf"`
}

// Subtotals keeps buckets in first-seen order.
type Subtotals []Subtotal

// Get returns the bucket with key.
func (s Subtotals) Get(key string) (Subtotal, bool) {
	for _, b := range s {
		if b.Key == key {
			return b, true
		}
	}
	return Subtotal{}, false
}

// GroupKey returns the bucket key of a line.
func GroupKey(l business.Line) string {
	if l.TaxCode != "" {
		return l.TaxCode
	}
	return types.FormatRate(l.IVA) + "-" + types.FormatRate(l.Recargo)
}

// Aggregate groups lines by tax and sums amounts per group.
//
// Withholding is document-wide: the highest line rate and the summed
// withholding amount are both put on the first bucket only, every other
// bucket reports 0. Each bucket is rounded to precision on its own.
func Aggregate(lines []business.Line, precision int) Subtotals {
	var (
		out       Subtotals
		index     = make(map[string]int)
		maxIRPF   float64
		totalIRPF float64
	)

	for _, l := range lines {
		key := GroupKey(l)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Subtotal{Key: key, IVA: l.IVA, Recargo: l.Recargo})
		}

		b := &out[i]
		b.Net += l.LineTotal
		b.TotalIVA += l.LineTotal * l.IVA / 100
		b.TotalRecargo += l.LineTotal * l.Recargo / 100

		if l.IRPF > maxIRPF {
			maxIRPF = l.IRPF
		}
		totalIRPF += l.LineTotal * l.IRPF / 100
	}

	if len(out) > 0 {
		out[0].IRPF = maxIRPF
		out[0].TotalIRPF = totalIRPF
	}

	for i := range out {
		b := &out[i]
		b.Net = types.Round(b.Net, precision)
		b.TotalIVA = types.Round(b.TotalIVA, precision)
		b.TotalRecargo = types.Round(b.TotalRecargo, precision)
		b.TotalIRPF = types.Round(b.TotalIRPF, precision)
	}
	return out
}
