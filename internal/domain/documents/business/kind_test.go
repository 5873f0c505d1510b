package business

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factura/internal/core/numerator"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Customer-Invoice ")
	require.NoError(t, err)
	assert.Equal(t, CustomerInvoice, k)

	_, err = ParseKind("credit-note")
	assert.Error(t, err)
}

func TestKinds_Consistent(t *testing.T) {
	require.Len(t, Kinds(), 8)
	for _, k := range Kinds() {
		info := k.Info()
		assert.True(t, k.Valid(), k)
		assert.NotEmpty(t, info.Table, k)
		assert.NotEmpty(t, info.LineTable, k)
		assert.NotEmpty(t, info.IDColumn, k)
		assert.Len(t, info.Prefix, 3, k)
	}
}

func TestKind_Direction(t *testing.T) {
	assert.True(t, CustomerOrder.IsSales())
	assert.Equal(t, "codcliente", CustomerOrder.SubjectColumn())
	assert.False(t, SupplierOrder.IsSales())
	assert.Equal(t, "codproveedor", SupplierOrder.SubjectColumn())
}

func TestKind_MovesStock(t *testing.T) {
	tests := []struct {
		kind Kind
		sign int
	}{
		{CustomerEstimation, 0},
		{CustomerOrder, 0},
		{CustomerDeliveryNote, -1},
		{CustomerInvoice, -1},
		{SupplierEstimation, 0},
		{SupplierOrder, 0},
		{SupplierDeliveryNote, 1},
		{SupplierInvoice, 1},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.sign, tt.kind.Info().StockSign)
			assert.Equal(t, tt.sign, tt.kind.StockEffect())
			assert.Equal(t, tt.sign != 0, tt.kind.MovesStock())
		})
	}
}

func TestKind_GeneratedStockEffect(t *testing.T) {
	tests := []struct {
		from, to Kind
		want     int
	}{
		{CustomerOrder, CustomerDeliveryNote, -1},
		{CustomerEstimation, CustomerInvoice, -1},
		{CustomerDeliveryNote, CustomerInvoice, 0},
		{CustomerEstimation, CustomerOrder, 0},
		{SupplierOrder, SupplierDeliveryNote, 1},
		{SupplierDeliveryNote, SupplierInvoice, 0},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.to.GeneratedStockEffect(tt.from))
		})
	}
}

func TestKind_CanConvertTo(t *testing.T) {
	tests := []struct {
		from, to Kind
		want     bool
	}{
		{CustomerEstimation, CustomerOrder, true},
		{CustomerEstimation, CustomerInvoice, true},
		{CustomerInvoice, CustomerEstimation, true},
		{SupplierOrder, SupplierDeliveryNote, true},
		{CustomerOrder, CustomerOrder, false},
		{CustomerOrder, SupplierOrder, false},
		{Kind("bogus"), CustomerOrder, false},
		{CustomerOrder, Kind(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanConvertTo(tt.to))
		})
	}
}

func TestKind_Numbering(t *testing.T) {
	cfg, opts := CustomerInvoice.Numbering("A")
	assert.Equal(t, "FAC", cfg.Prefix)
	assert.Equal(t, "A", cfg.Series)
	assert.Equal(t, numerator.StrategyStrict, opts.Strategy)

	cfg, opts = SupplierEstimation.Numbering("")
	assert.Equal(t, "PPR", cfg.Prefix)
	assert.Equal(t, numerator.StrategyCached, opts.Strategy)
	assert.Equal(t, int64(50), opts.RangeSize)
}
