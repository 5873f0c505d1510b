package documents

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factura/internal/core/apperror"
	"factura/internal/core/numerator"
	"factura/internal/domain"
	"factura/internal/domain/audit"
	"factura/internal/domain/catalogs/counterparty"
	"factura/internal/domain/catalogs/organization"
	"factura/internal/domain/catalogs/product"
	"factura/internal/domain/catalogs/series"
	"factura/internal/domain/catalogs/tax"
	"factura/internal/domain/documents/business"
	"factura/internal/domain/documents/generator"
	"factura/internal/domain/documents/totals"
	"factura/internal/domain/registers/stock"
	"factura/internal/infrastructure/storage/memory"
)

type recordingMetrics struct {
	mu            sync.Mutex
	recalculated  map[string]int
	generated     int
	generationErr int
}

func (m *recordingMetrics) ObserveRecalculation(kind business.Kind, source string, took time.Duration, diagnostics int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recalculated == nil {
		m.recalculated = make(map[string]int)
	}
	m.recalculated[source]++
}

func (m *recordingMetrics) ObserveGeneration(from, to business.Kind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated++
	if err != nil {
		m.generationErr++
	}
}

type testEnv struct {
	svc      *Service
	docs     *memory.Documents
	stock    *memory.Stock
	products *memory.Products
	txm     *memory.TxManager
	audit   *audit.MemoryRecorder
	metrics *recordingMetrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	products := memory.NewProducts(&product.Product{Reference: "P1", Description: "Beans", Price: 12.5, TaxCode: "IVA10"})
	companies := memory.NewCompanies(&organization.Company{ID: 1, Name: "Main", DefaultWarehouse: "ALG", IsDefault: true})
	calc := totals.NewCalculator(totals.Catalogs{
		Taxes: memory.NewTaxes(
			&tax.Tax{Code: "IVA21", IVA: 21, Recargo: 5.2, IsDefault: true},
			&tax.Tax{Code: "IVA10", IVA: 10, Recargo: 1.4},
		),
		Products:  products,
		Subjects: memory.NewCounterparties(
			&counterparty.Counterparty{Code: "C1", Name: "Customer", Type: counterparty.TypeCustomer},
			&counterparty.Counterparty{Code: "S1", Name: "Supplier", Type: counterparty.TypeSupplier},
		),
		Companies: companies,
		Series:    memory.NewSeries(&series.Series{Code: "A", Description: "General"}),
	}, totals.PolicyZero, 2)

	e := &testEnv{
		docs:     memory.NewDocuments(),
		stock:    memory.NewStock(),
		products: products,
		audit:    &audit.MemoryRecorder{},
		metrics:  &recordingMetrics{},
	}
	e.txm = memory.NewTxManager(e.docs, e.stock)

	seq := 0
	num := &numerator.MockGenerator{
		GetNextNumberFunc: func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			seq++
			return fmt.Sprintf("%s-%s-2026-%05d", cfg.Prefix, cfg.Series, seq), nil
		},
	}

	stockService := stock.NewService(e.stock, products)
	e.svc = NewService(Config{
		Repo:       e.docs,
		Calculator: calc,
		Stock:      stockService,
		Generator: generator.New(generator.Config{
			Repo:      e.docs,
			TxManager: e.txm,
			Numerator: num,
			Stock:     stockService,
			Audit:     e.audit,
		}),
		Numerator: num,
		Headers:   business.NewHeaderResolver(companies),
		TxManager: e.txm,
		Audit:     e.audit,
		Metrics:   e.metrics,
	})
	return e
}

func newOrder() *business.Document {
	return &business.Document{Kind: business.CustomerOrder, SeriesCode: "A", SubjectCode: "C1"}
}

var widgetForm = []business.FormLine{
	{"descripcion": "Widget", "cantidad": 2, "pvpunitario": 100, "dtopor": 10},
	{"referencia": "P1"},
	{"descripcion": ""},
}

func (e *testEnv) create(t *testing.T) *business.Document {
	t.Helper()
	doc := newOrder()
	_, err := e.svc.Create(context.Background(), doc, widgetForm)
	require.NoError(t, err)
	return doc
}

func TestService_Create(t *testing.T) {
	e := newTestEnv(t)
	doc := newOrder()

	res, err := e.svc.Create(context.Background(), doc, widgetForm)
	require.NoError(t, err)

	assert.NotZero(t, doc.ID)
	assert.Equal(t, "PED-A-2026-00001", doc.Code)
	assert.Equal(t, "00001", doc.Number)
	assert.Equal(t, int64(1), doc.CompanyID)
	assert.Equal(t, "ALG", doc.WarehouseCode)
	assert.Equal(t, "EUR", doc.CurrencyCode)

	// 180 at 21% plus 12.5 at 10%
	assert.Equal(t, 192.5, doc.Net)
	assert.Equal(t, 39.05, doc.TotalIVA)
	assert.Equal(t, 231.55, doc.Total)
	assert.Equal(t, doc.Total, res.Total)

	stored, err := e.svc.Get(context.Background(), business.CustomerOrder, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 231.55, stored.Total)
	require.Len(t, stored.Lines, 2)
	assert.Equal(t, "Widget", stored.Lines[0].Description)
	assert.Equal(t, "Beans", stored.Lines[1].Description)
	assert.Equal(t, 2, stored.Lines[1].Order)

	require.Len(t, e.audit.Entries, 1)
	assert.Equal(t, audit.ActionCreate, e.audit.Entries[0].Action)
	assert.Equal(t, 1, e.metrics.recalculated[SourceForm])
}

func TestService_Create_Validation(t *testing.T) {
	e := newTestEnv(t)
	doc := newOrder()
	doc.SubjectCode = ""

	_, err := e.svc.Create(context.Background(), doc, widgetForm)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Zero(t, e.docs.Count(business.CustomerOrder))

	existing := newOrder()
	existing.ID = 4
	_, err = e.svc.Create(context.Background(), existing, widgetForm)
	assert.Error(t, err)
}

func TestService_Create_HookAborts(t *testing.T) {
	e := newTestEnv(t)
	e.svc.Hooks().On(domain.BeforeSave, func(ctx context.Context, d *business.Document) error {
		return apperror.NewBusinessRule("LOCKED", "period is closed")
	})

	_, err := e.svc.Create(context.Background(), newOrder(), widgetForm)
	require.Error(t, err)
	assert.Zero(t, e.docs.Count(business.CustomerOrder))
}

func TestService_Create_LineFailureRollsBack(t *testing.T) {
	e := newTestEnv(t)
	e.docs.FailInsertLineAfter = 1

	_, err := e.svc.Create(context.Background(), newOrder(), widgetForm)
	require.Error(t, err)
	assert.Zero(t, e.docs.Count(business.CustomerOrder))
	assert.Equal(t, 1, e.txm.Rollbacks)
}

func TestService_SaveLines(t *testing.T) {
	e := newTestEnv(t)
	doc := e.create(t)

	res, err := e.svc.SaveLines(context.Background(), doc.Kind, doc.ID, []business.FormLine{
		{"descripcion": "Only line", "cantidad": 1, "pvpunitario": 50, "iva": 21},
	})
	require.NoError(t, err)
	assert.Equal(t, 60.5, res.Total)

	stored, err := e.svc.Get(context.Background(), doc.Kind, doc.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, "Only line", stored.Lines[0].Description)
	assert.Equal(t, 60.5, stored.Total)
	assert.Equal(t, doc.Code, stored.Code)
}

func TestService_SaveLines_FailureKeepsPreviousState(t *testing.T) {
	e := newTestEnv(t)
	doc := e.create(t)
	e.docs.FailInsertLineAfter = 3

	_, err := e.svc.SaveLines(context.Background(), doc.Kind, doc.ID, []business.FormLine{
		{"descripcion": "a", "cantidad": 1, "pvpunitario": 1, "iva": 21},
		{"descripcion": "b", "cantidad": 1, "pvpunitario": 1, "iva": 21},
	})
	require.Error(t, err)

	stored, err := e.svc.Get(context.Background(), doc.Kind, doc.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Lines, 2)
	assert.Equal(t, 231.55, stored.Total)
}

func TestService_SaveLines_NotFound(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.svc.SaveLines(context.Background(), business.CustomerOrder, 404, nil)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_Recalculate(t *testing.T) {
	e := newTestEnv(t)
	doc := e.create(t)

	stale := *doc
	stale.Total = 1
	stale.Net = 1
	require.NoError(t, e.docs.UpdateTotals(context.Background(), &stale))

	res, err := e.svc.Recalculate(context.Background(), doc.Kind, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 231.55, res.Document.Total)
	require.Len(t, res.Subtotals, 2)

	stored, err := e.docs.Get(context.Background(), doc.Kind, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 231.55, stored.Total)
	assert.Equal(t, 192.5, stored.Net)
	assert.Equal(t, 1, e.metrics.recalculated[SourceStored])
}

func TestService_PreviewForm_DoesNotPersist(t *testing.T) {
	e := newTestEnv(t)

	res, err := e.svc.PreviewForm(context.Background(), newOrder(), widgetForm)
	require.NoError(t, err)
	assert.Equal(t, 231.55, res.Total)
	assert.Len(t, res.Lines, 2)
	assert.Zero(t, e.docs.Count(business.CustomerOrder))
	assert.Zero(t, e.txm.Commits)
}

func TestService_Generate(t *testing.T) {
	e := newTestEnv(t)
	doc := e.create(t)

	inv, err := e.svc.Generate(context.Background(), doc.Kind, doc.ID, business.CustomerInvoice)
	require.NoError(t, err)
	assert.Equal(t, business.CustomerInvoice, inv.Kind)
	assert.Equal(t, "FAC-A-2026-00002", inv.Code)
	assert.Len(t, inv.Lines, 2)
	assert.Equal(t, doc.Total, inv.Total)

	bal, err := e.stock.GetBalance(context.Background(), "ALG", "P1")
	require.NoError(t, err)
	assert.Equal(t, -1.0, bal.Quantity.Float64())

	_, err = e.svc.Generate(context.Background(), doc.Kind, doc.ID, business.SupplierInvoice)
	assert.Error(t, err)
	assert.Equal(t, 2, e.metrics.generated)
	assert.Equal(t, 1, e.metrics.generationErr)
}

func TestService_List(t *testing.T) {
	e := newTestEnv(t)
	e.create(t)
	e.create(t)

	res, err := e.svc.List(context.Background(), business.CustomerOrder, business.ListFilter{SubjectCode: "C1"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 50, res.Limit)

	res, err = e.svc.List(context.Background(), business.CustomerOrder, business.ListFilter{SubjectCode: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestService_AfterSaveHookErrorIsNotFatal(t *testing.T) {
	e := newTestEnv(t)
	e.svc.Hooks().On(domain.AfterSave, func(ctx context.Context, d *business.Document) error {
		return errors.New("mailer down")
	})

	_, err := e.svc.Create(context.Background(), newOrder(), widgetForm)
	require.NoError(t, err)
	assert.Equal(t, 1, e.docs.Count(business.CustomerOrder))
}

func (e *testEnv) balance(t *testing.T, reference string) float64 {
	t.Helper()
	bal, err := e.stock.GetBalance(context.Background(), "ALG", reference)
	require.NoError(t, err)
	return bal.Quantity.Float64()
}

func TestService_Create_MovesStockByKind(t *testing.T) {
	tests := []struct {
		kind    business.Kind
		subject string
		want    float64
	}{
		{business.CustomerEstimation, "C1", 0},
		{business.CustomerOrder, "C1", 0},
		{business.CustomerDeliveryNote, "C1", -2},
		{business.CustomerInvoice, "C1", -2},
		{business.SupplierOrder, "S1", 0},
		{business.SupplierDeliveryNote, "S1", 2},
		{business.SupplierInvoice, "S1", 2},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			e := newTestEnv(t)
			doc := &business.Document{Kind: tt.kind, SeriesCode: "A", SubjectCode: tt.subject}

			_, err := e.svc.Create(context.Background(), doc, []business.FormLine{
				{"referencia": "P1", "descripcion": "Beans", "cantidad": 2, "pvpunitario": 12.5},
				{"descripcion": "Handling", "cantidad": 1, "pvpunitario": 5},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.balance(t, "P1"))

			stored, err := e.docs.GetLines(context.Background(), tt.kind, doc.ID)
			require.NoError(t, err)
			for _, l := range stored {
				assert.Equal(t, tt.kind.StockEffect(), l.StockEffect)
			}
		})
	}
}

func TestService_Create_StockFailureRollsBack(t *testing.T) {
	e := newTestEnv(t)
	e.products.Err = errors.New("connection reset")
	doc := &business.Document{Kind: business.CustomerDeliveryNote, SeriesCode: "A", SubjectCode: "C1"}

	_, err := e.svc.Create(context.Background(), doc, []business.FormLine{
		{"referencia": "P1", "descripcion": "Beans", "cantidad": 1, "pvpunitario": 1},
	})
	assert.ErrorContains(t, err, "connection reset")
	assert.Zero(t, e.docs.Count(business.CustomerDeliveryNote))
	assert.Equal(t, 1, e.txm.Rollbacks)
}

func TestService_SaveLines_ReplacesStockOfGeneratedDeliveryNote(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	order := e.create(t)

	note, err := e.svc.Generate(ctx, order.Kind, order.ID, business.CustomerDeliveryNote)
	require.NoError(t, err)
	require.Equal(t, -1.0, e.balance(t, "P1"))

	_, err = e.svc.SaveLines(ctx, note.Kind, note.ID, []business.FormLine{
		{"referencia": "P1", "descripcion": "Beans", "cantidad": 3, "pvpunitario": 12.5},
	})
	require.NoError(t, err)
	assert.Equal(t, -3.0, e.balance(t, "P1"))

	movements, err := e.stock.GetMovementsByDocument(ctx, note.Kind.String(), note.ID)
	require.NoError(t, err)
	var quantities []float64
	for _, m := range movements {
		quantities = append(quantities, m.Quantity.Float64())
	}
	assert.Equal(t, []float64{-1, 1, -3}, quantities)

	_, err = e.svc.SaveLines(ctx, note.Kind, note.ID, []business.FormLine{
		{"descripcion": "Only text", "cantidad": 1, "pvpunitario": 5},
	})
	require.NoError(t, err)
	assert.Zero(t, e.balance(t, "P1"))
}

func TestService_SaveLines_InvoiceFromDeliveryNoteMovesNothing(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	order := e.create(t)

	note, err := e.svc.Generate(ctx, order.Kind, order.ID, business.CustomerDeliveryNote)
	require.NoError(t, err)
	inv, err := e.svc.Generate(ctx, note.Kind, note.ID, business.CustomerInvoice)
	require.NoError(t, err)

	_, err = e.svc.SaveLines(ctx, inv.Kind, inv.ID, []business.FormLine{
		{"referencia": "P1", "descripcion": "Beans", "cantidad": 5, "pvpunitario": 12.5},
	})
	require.NoError(t, err)
	assert.Equal(t, -1.0, e.balance(t, "P1"), "only the delivery note moved stock")

	lines, err := e.docs.GetLines(ctx, inv.Kind, inv.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Zero(t, lines[0].StockEffect)

	movements, err := e.stock.GetMovementsByDocument(ctx, inv.Kind.String(), inv.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestService_SaveLines_DirectInvoiceMovesStock(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	doc := &business.Document{Kind: business.SupplierInvoice, SeriesCode: "A", SubjectCode: "S1"}

	_, err := e.svc.Create(ctx, doc, []business.FormLine{{"referencia": "P1", "descripcion": "Beans", "cantidad": 4, "pvpunitario": 12.5}})
	require.NoError(t, err)
	require.Equal(t, 4.0, e.balance(t, "P1"))

	_, err = e.svc.SaveLines(ctx, doc.Kind, doc.ID, []business.FormLine{{"referencia": "P1", "descripcion": "Beans", "cantidad": 1, "pvpunitario": 12.5}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.balance(t, "P1"))
}
