package totals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factura/internal/core/diag"
	"factura/internal/domain/documents/business"
)

func TestNormalizer_Normalize(t *testing.T) {
	f := newFixture()
	table := NewTaxResolver(f.taxes, PolicyZero).Snapshot(context.Background(), nil)
	n := NewNormalizer(f.products)

	tests := []struct {
		name string
		tc   TaxContext
		in   business.FormLine
		want business.Line
	}{
		{
			name: "product without surcharge keeps typed recargo",
			in:   business.FormLine{"referencia": "P1", "recargo": "3"},
			want: business.Line{
				Reference: "P1", Description: "Coffee beans", Quantity: 1, UnitPrice: 12.5,
				TaxCode: "IVA10", IVA: 10, Recargo: 3, PriceBeforeDiscount: 12.5, LineTotal: 12.5,
			},
		},
		{
			name: "product without tax code uses default",
			tc:   TaxContext{ApplySurcharge: true, IRPF: 15},
			in:   business.FormLine{"referencia": "P2"},
			want: business.Line{
				Reference: "P2", Description: "Consulting hour", Quantity: 1, UnitPrice: 60,
				TaxCode: "IVA21", IVA: 21, Recargo: 5.2, IRPF: 15, PriceBeforeDiscount: 60, LineTotal: 60,
			},
		},
		{
			name: "reference with description keeps typed values",
			in:   business.FormLine{"referencia": "P1", "descripcion": "Custom", "cantidad": "3", "pvpunitario": "2", "iva": "4"},
			want: business.Line{
				Reference: "P1", Description: "Custom", Quantity: 3, UnitPrice: 2,
				IVA: 4, PriceBeforeDiscount: 6, LineTotal: 6,
			},
		},
		{
			name: "typed tax code resolved when iva is zero",
			in:   business.FormLine{"descripcion": "Book", "cantidad": 1, "pvpunitario": 20, "iva": "0", "codimpuesto": "IVA4"},
			want: business.Line{
				Description: "Book", Quantity: 1, UnitPrice: 20,
				TaxCode: "IVA4", IVA: 4, PriceBeforeDiscount: 20, LineTotal: 20,
			},
		},
		{
			name: "typed irpf wins over context",
			tc:   TaxContext{IRPF: 15},
			in:   business.FormLine{"descripcion": "x", "cantidad": 1, "pvpunitario": 10, "iva": 21, "irpf": "7"},
			want: business.Line{
				Description: "x", Quantity: 1, UnitPrice: 10,
				IVA: 21, IRPF: 7, PriceBeforeDiscount: 10, LineTotal: 10,
			},
		},
		{
			name: "malformed numbers read as zero",
			in:   business.FormLine{"descripcion": "x", "cantidad": "abc", "pvpunitario": 10, "iva": 21},
			want: business.Line{Description: "x", UnitPrice: 10, IVA: 21},
		},
		{
			name: "exempt clears every rate",
			tc:   TaxContext{Exempt: true, ApplySurcharge: true, IRPF: 15},
			in:   business.FormLine{"descripcion": "x", "cantidad": 2, "pvpunitario": 10, "dtopor": 50},
			want: business.Line{
				Description: "x", Quantity: 2, UnitPrice: 10, Discount: 50,
				TaxCode: "IVA21", PriceBeforeDiscount: 20, LineTotal: 10,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(context.Background(), table, tt.tc, tt.in, diag.New())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_UnknownProduct(t *testing.T) {
	f := newFixture()
	table := NewTaxResolver(f.taxes, PolicyZero).Snapshot(context.Background(), nil)
	col := diag.New()

	got, err := NewNormalizer(f.products).Normalize(context.Background(), table, TaxContext{},
		business.FormLine{"referencia": "GHOST", "cantidad": 2, "pvpunitario": 3}, col)
	require.NoError(t, err)

	assert.Empty(t, got.Description)
	assert.Equal(t, 6.0, got.LineTotal)
	assert.Equal(t, 1, col.Len())
}

func TestNormalizer_Refresh(t *testing.T) {
	n := NewNormalizer(nil)
	in := business.Line{Description: "x", TaxCode: "IVA21", IVA: 21, Recargo: 5.2, IRPF: 15, Quantity: 4, UnitPrice: 2.5, Discount: 20}

	got := n.Refresh(TaxContext{IRPF: 1}, in)
	assert.Equal(t, 21.0, got.IVA)
	assert.Equal(t, 15.0, got.IRPF)
	assert.Equal(t, 10.0, got.PriceBeforeDiscount)
	assert.Equal(t, 8.0, got.LineTotal)

	got = n.Refresh(TaxContext{Exempt: true}, in)
	assert.Zero(t, got.IVA)
	assert.Zero(t, got.Recargo)
	assert.Zero(t, got.IRPF)
	assert.Equal(t, 8.0, got.LineTotal)
}
