package totals

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factura/internal/core/apperror"
	"factura/internal/core/diag"
	"factura/internal/domain/catalogs/tax"
	"factura/internal/infrastructure/storage/memory"
)

func TestTaxTable_Resolve(t *testing.T) {
	f := newFixture()
	col := diag.New()
	table := NewTaxResolver(f.taxes, PolicyZero).Snapshot(context.Background(), col)

	tests := []struct {
		name        string
		lineCode    string
		productCode string
		exempt      bool
		want        Rate
		warnings    int
	}{
		{"line code", "IVA10", "IVA4", false, Rate{"IVA10", 10, 1.4}, 0},
		{"product code", "", "IVA4", false, Rate{"IVA4", 4, 0.5}, 0},
		{"default", "", "", false, Rate{"IVA21", 21, 5.2}, 0},
		{"unknown code", "NOPE", "", false, Rate{Code: "NOPE"}, 1},
		{"exempt keeps code", "IVA10", "", true, Rate{Code: "IVA10"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := diag.New()
			got, err := table.Resolve(tt.lineCode, tt.productCode, tt.exempt, col)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.warnings, col.Len())
		})
	}
}

func TestTaxTable_DefaultIsFirstByCode(t *testing.T) {
	taxes := memory.NewTaxes(
		&tax.Tax{Code: "Z", IVA: 1, IsDefault: true},
		&tax.Tax{Code: "B", IVA: 2, IsDefault: true},
		&tax.Tax{Code: "A", IVA: 3},
	)
	table := NewTaxResolver(taxes, PolicyZero).Snapshot(context.Background(), nil)

	x, ok := table.Default()
	require.True(t, ok)
	assert.Equal(t, "B", x.Code)
}

func TestTaxTable_NoDefault(t *testing.T) {
	taxes := memory.NewTaxes(&tax.Tax{Code: "A", IVA: 3})

	col := diag.New()
	rate, err := NewTaxResolver(taxes, PolicyZero).Snapshot(context.Background(), col).ResolveDefault(col)
	require.NoError(t, err)
	assert.Equal(t, Rate{}, rate)
	assert.True(t, col.Has(diag.LevelWarning))

	_, err = NewTaxResolver(taxes, PolicyStrict).Snapshot(context.Background(), nil).ResolveDefault(nil)
	assert.True(t, apperror.IsNoDefaultTax(err))
}

func TestTaxResolver_SnapshotFailure(t *testing.T) {
	taxes := memory.NewTaxes(&tax.Tax{Code: "A", IVA: 3, IsDefault: true})
	taxes.Err = errors.New("connection refused")

	col := diag.New()
	table := NewTaxResolver(taxes, PolicyZero).Snapshot(context.Background(), col)

	assert.True(t, col.Has(diag.LevelError))
	_, ok := table.Default()
	assert.False(t, ok)
}

func TestNewTaxResolver_UnknownPolicyFallsBackToZero(t *testing.T) {
	r := NewTaxResolver(memory.NewTaxes(), DefaultTaxPolicy("bogus"))
	assert.Equal(t, PolicyZero, r.policy)
}
