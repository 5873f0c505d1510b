package document_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factura/internal/domain"
	"factura/internal/domain/documents/business"
)

func mustLayout(t *testing.T, kind business.Kind) layout {
	t.Helper()
	l, err := layoutFor(kind)
	require.NoError(t, err)
	return l
}

func TestLayoutFor_Unknown(t *testing.T) {
	_, err := layoutFor("credit-note")
	assert.Error(t, err)
}

func TestHeaderSelect_Aliases(t *testing.T) {
	cols := mustLayout(t, business.CustomerInvoice).headerSelect()
	assert.Equal(t, "idfactura AS id", cols[0])
	assert.Contains(t, cols, "codcliente AS codsujeto")
	assert.Contains(t, cols, "total")

	cols = mustLayout(t, business.SupplierOrder).headerSelect()
	assert.Equal(t, "idpedido AS id", cols[0])
	assert.Contains(t, cols, "codproveedor AS codsujeto")
}

func TestLinesQuery(t *testing.T) {
	sql, args, err := linesQuery(mustLayout(t, business.CustomerDeliveryNote), 9).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "SELECT idlinea, idalbaran AS iddocumento, orden, referencia,"))
	assert.True(t, strings.HasSuffix(sql, "FROM lineasalbaranescli WHERE idalbaran = $1 ORDER BY orden, idlinea"))
	assert.Equal(t, []any{int64(9)}, args)
}

func TestInsertHeader(t *testing.T) {
	doc := &business.Document{
		ID:          77,
		Kind:        business.SupplierInvoice,
		Code:        "FPR-A-2026-00001",
		SubjectCode: "S1",
		Total:       10,
	}
	sql, args, err := insertHeader(mustLayout(t, business.SupplierInvoice), doc).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "INSERT INTO facturasprov (codigo,numero,codserie,fecha,hora,"))
	assert.Contains(t, sql, ",codproveedor,")
	assert.NotContains(t, sql, "idfactura,")
	assert.True(t, strings.HasSuffix(sql, "RETURNING idfactura"))
	assert.Len(t, args, 18)
	assert.Equal(t, "FPR-A-2026-00001", args[0])
	assert.NotContains(t, args, int64(77))
}

func TestInsertLine(t *testing.T) {
	line := &business.Line{ID: 5, DocumentID: 3, Order: 1, Description: "Beans", IVA: 21, StockEffect: -1}
	sql, args, err := insertLine(mustLayout(t, business.CustomerEstimation), line).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "INSERT INTO lineaspresupuestoscli (idpresupuesto,orden,referencia,"))
	assert.True(t, strings.HasSuffix(sql, "RETURNING idlinea"))
	assert.Contains(t, sql, ",pvptotal,actualizastock)")
	assert.Len(t, args, 14)
	assert.Equal(t, int64(3), args[0])
	assert.Equal(t, -1, args[13])
}

func TestUpdateTotals(t *testing.T) {
	doc := &business.Document{ID: 4, Kind: business.CustomerOrder, IRPF: 15, Net: 100, TotalIVA: 21, TotalIRPF: 15, Total: 106}
	sql, args, err := updateTotals(mustLayout(t, business.CustomerOrder), doc).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE pedidoscli SET irpf = $1, neto = $2, totaliva = $3, totalrecargo = $4, totalirpf = $5, total = $6 WHERE idpedido = $7",
		sql)
	assert.Equal(t, []any{15.0, 100.0, 21.0, 0.0, 15.0, 106.0, int64(4)}, args)
}

func TestListQueries(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := mustLayout(t, business.CustomerInvoice)

	q, countQ, err := listQueries(l, business.ListFilter{
		ListFilter:  domain.ListFilter{Search: "FAC", OrderBy: "-total", Limit: 20},
		SubjectCode: "C1",
		SeriesCode:  "A",
		DateFrom:    &from,
	})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM facturascli WHERE codigo ILIKE $1 AND codcliente = $2 AND codserie = $3 AND fecha >= $4")
	assert.True(t, strings.HasSuffix(sql, "ORDER BY total DESC LIMIT 20"))
	assert.Equal(t, []any{"%FAC%", "C1", "A", from}, args)

	countSQL, _, err := countQ.ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(countSQL, "SELECT COUNT(*) FROM (SELECT idfactura AS id"))
}

func TestOrderBy(t *testing.T) {
	l := mustLayout(t, business.SupplierDeliveryNote)

	got, err := orderBy(l, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"fecha DESC", "idalbaran DESC"}, got)

	got, err = orderBy(l, "codsujeto")
	require.NoError(t, err)
	assert.Equal(t, []string{"codproveedor ASC"}, got)

	_, err = orderBy(l, "1; DROP TABLE albaranesprov")
	assert.Error(t, err)
}
