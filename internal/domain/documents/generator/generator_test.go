package generator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factura/internal/core/apperror"
	"factura/internal/core/numerator"
	"factura/internal/domain/audit"
	"factura/internal/domain/catalogs/product"
	"factura/internal/domain/documents/business"
	"factura/internal/domain/registers/stock"
	"factura/internal/infrastructure/storage/memory"
)

type env struct {
	docs   *memory.Documents
	stock  *memory.Stock
	txm    *memory.TxManager
	audit  *audit.MemoryRecorder
	gen    *Generator
	period time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		docs:  memory.NewDocuments(),
		stock: memory.NewStock(),
		audit: &audit.MemoryRecorder{},
	}
	e.txm = memory.NewTxManager(e.docs, e.stock)

	products := memory.NewProducts(
		&product.Product{Reference: "P1", Description: "Beans", Price: 10},
		&product.Product{Reference: "SRV", Description: "Service", Price: 50, NoStock: true},
	)
	e.gen = New(Config{
		Repo:      e.docs,
		TxManager: e.txm,
		Numerator: &numerator.MockGenerator{
			GetNextNumberFunc: func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
				e.period = period
				return cfg.Prefix + "-" + cfg.Series + "-2026-00007", nil
			},
		},
		Stock: stock.NewService(e.stock, products),
		Audit: e.audit,
	})
	e.gen.now = func() time.Time { return time.Date(2026, 5, 1, 16, 45, 0, 0, time.UTC) }
	return e
}

func prototype() *business.Document {
	return &business.Document{
		ID:             12,
		Kind:           business.CustomerOrder,
		Code:           "PED-A-2026-00003",
		Number:         "00003",
		SeriesCode:     "A",
		Date:           time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Time:           "08:00:00",
		CurrencyCode:   "EUR",
		ConversionRate: 1,
		WarehouseCode:  "ALG",
		CompanyID:      1,
		PaymentCode:    "CONT",
		SubjectCode:    "C1",
		StateID:        3,
		Net:            120,
		TotalIVA:       25.2,
		Total:          145.2,
		Lines: []business.Line{
			{ID: 100, DocumentID: 12, Order: 1, Reference: "P1", Description: "Beans", Quantity: 2, UnitPrice: 10, IVA: 21, PriceBeforeDiscount: 20, LineTotal: 20},
			{ID: 101, DocumentID: 12, Order: 2, Reference: "SRV", Description: "Service", Quantity: 2, UnitPrice: 50, IVA: 21, PriceBeforeDiscount: 100, LineTotal: 100},
			{ID: 102, DocumentID: 12, Order: 3, Description: "Free text", IVA: 21},
		},
	}
}

func TestGenerate_CopiesHeaderAndLines(t *testing.T) {
	e := newEnv(t)
	src := prototype()

	doc, err := e.gen.Generate(context.Background(), src, business.CustomerDeliveryNote)
	require.NoError(t, err)

	assert.NotZero(t, doc.ID)
	assert.Equal(t, business.CustomerDeliveryNote, doc.Kind)
	assert.Equal(t, "ALB-A-2026-00007", doc.Code)
	assert.Equal(t, "00007", doc.Number)

	assert.Zero(t, doc.StateID, "state is not copied")
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), doc.Date)
	assert.Equal(t, "16:45:00", doc.Time)
	assert.Equal(t, doc.Date, e.period)

	assert.Equal(t, src.SeriesCode, doc.SeriesCode)
	assert.Equal(t, src.SubjectCode, doc.SubjectCode)
	assert.Equal(t, src.WarehouseCode, doc.WarehouseCode)
	assert.Equal(t, src.PaymentCode, doc.PaymentCode)
	assert.Equal(t, src.Total, doc.Total)

	stored, err := e.docs.GetLines(context.Background(), business.CustomerDeliveryNote, doc.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, l := range stored {
		assert.Equal(t, doc.ID, l.DocumentID)
		assert.NotEqual(t, src.Lines[i].ID, l.ID)
		assert.Equal(t, src.Lines[i].Description, l.Description)
		assert.Equal(t, src.Lines[i].LineTotal, l.LineTotal)
		assert.Equal(t, -1, l.StockEffect, "order lines leave the warehouse with the delivery note")
	}

	assert.Equal(t, int64(12), src.ID, "prototype untouched")
	assert.Equal(t, business.CustomerOrder, src.Kind)
	assert.Equal(t, int64(3), src.StateID)
}

func TestGenerate_MovesStockForStockedProductsOnly(t *testing.T) {
	e := newEnv(t)

	doc, err := e.gen.Generate(context.Background(), prototype(), business.CustomerDeliveryNote)
	require.NoError(t, err)

	movements, err := e.stock.GetMovementsByDocument(context.Background(), doc.Kind.String(), doc.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, "P1", movements[0].Reference)
	assert.Equal(t, "ALG", movements[0].Warehouse)
	assert.Equal(t, -2.0, movements[0].Quantity.Float64())

	bal, err := e.stock.GetBalance(context.Background(), "ALG", "P1")
	require.NoError(t, err)
	assert.Equal(t, -2.0, bal.Quantity.Float64())
}

func TestGenerate_NoSecondMovementFromDeliveryNote(t *testing.T) {
	e := newEnv(t)
	src := prototype()
	src.Kind = business.CustomerDeliveryNote

	doc, err := e.gen.Generate(context.Background(), src, business.CustomerInvoice)
	require.NoError(t, err)

	movements, err := e.stock.GetMovementsByDocument(context.Background(), doc.Kind.String(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
	for _, l := range doc.Lines {
		assert.Zero(t, l.StockEffect)
	}
}

func TestGenerate_LoadsStoredLines(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	src := prototype()
	lines := src.Lines
	src.Lines = nil
	require.NoError(t, e.docs.Create(ctx, src))
	require.NoError(t, e.docs.ReplaceLines(ctx, src.Kind, src.ID, lines))

	doc, err := e.gen.Generate(ctx, src, business.CustomerInvoice)
	require.NoError(t, err)
	assert.Len(t, doc.Lines, 3)
	assert.Equal(t, "FAC-A-2026-00007", doc.Code)
}

func TestGenerate_InvalidTransition(t *testing.T) {
	tests := []struct {
		name   string
		target business.Kind
	}{
		{"same kind", business.CustomerOrder},
		{"other direction", business.SupplierOrder},
		{"unknown", business.Kind("receipt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			_, err := e.gen.Generate(context.Background(), prototype(), tt.target)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
			assert.Zero(t, e.txm.Commits+e.txm.Rollbacks, "no transaction started")
		})
	}
}

func TestGenerate_LineFailureRollsBack(t *testing.T) {
	e := newEnv(t)
	e.docs.FailInsertLineAfter = 1

	doc, err := e.gen.Generate(context.Background(), prototype(), business.CustomerDeliveryNote)
	require.Error(t, err)
	assert.Nil(t, doc)

	assert.Equal(t, 1, e.txm.Rollbacks)
	assert.Zero(t, e.docs.Count(business.CustomerDeliveryNote))

	bal, err := e.stock.GetBalance(context.Background(), "ALG", "P1")
	require.NoError(t, err)
	assert.True(t, bal.Quantity.IsZero(), "stock of the first line is rolled back")
	assert.Empty(t, e.audit.Entries)
}

func TestGenerate_NumberingFailureRollsBack(t *testing.T) {
	e := newEnv(t)
	e.gen.numerator = &numerator.MockGenerator{
		GetNextNumberFunc: func(context.Context, numerator.Config, *numerator.Options, time.Time) (string, error) {
			return "", errors.New("sequence locked")
		},
	}

	_, err := e.gen.Generate(context.Background(), prototype(), business.CustomerInvoice)
	require.Error(t, err)
	assert.Zero(t, e.docs.Count(business.CustomerInvoice))
}

func TestGenerate_RecordsAudit(t *testing.T) {
	e := newEnv(t)
	src := prototype()

	doc, err := e.gen.Generate(context.Background(), src, business.CustomerInvoice)
	require.NoError(t, err)

	require.Len(t, e.audit.Entries, 1)
	entry := e.audit.Entries[0]
	assert.Equal(t, audit.ActionGenerate, entry.Action)
	assert.Equal(t, doc.ID, entry.EntityID)
	assert.Equal(t, "customer-invoice", entry.EntityType)

	var snapshot business.Document
	require.NoError(t, json.Unmarshal(entry.Changes, &snapshot))
	assert.Equal(t, src.Code, snapshot.Code)
	assert.Len(t, snapshot.Lines, 3)

	assert.JSONEq(t, `{"from_kind":"customer-order","from_id":12}`, string(entry.Metadata))
}

func TestClone(t *testing.T) {
	now := time.Date(2026, 7, 9, 23, 59, 58, 0, time.UTC)
	doc := Clone(prototype(), business.CustomerInvoice, now)

	assert.Zero(t, doc.ID)
	assert.Empty(t, doc.Code)
	assert.Empty(t, doc.Number)
	assert.Nil(t, doc.Lines)
	assert.Equal(t, "23:59:58", doc.Time)
	assert.Equal(t, "CONT", doc.PaymentCode)
}
