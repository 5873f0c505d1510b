package totals

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"factura/internal/core/diag"
	"factura/internal/core/types"
	"factura/internal/domain/catalogs/counterparty"
	"factura/internal/domain/catalogs/organization"
	"factura/internal/domain/catalogs/product"
	"factura/internal/domain/catalogs/series"
	"factura/internal/domain/catalogs/tax"
	"factura/internal/domain/documents/business"
)

var tracer = otel.Tracer("factura/totals")

// Catalogs groups the lookups a recalculation reads from.
type Catalogs struct {
	Taxes     tax.Repository
	Products  product.Repository
	Subjects  counterparty.Repository
	Companies organization.Repository
	Series    series.Repository
}

// Calculator recomputes lines and aggregate totals of a document.
type Calculator struct {
	catalogs   Catalogs
	taxes      *TaxResolver
	normalizer *Normalizer
	precision  int
}

// NewCalculator builds a calculator rounding to precision decimal places.
func NewCalculator(catalogs Catalogs, policy DefaultTaxPolicy, precision int) *Calculator {
	if precision < 0 {
		precision = types.DefaultPrecision
	}
	return &Calculator{
		catalogs:   catalogs,
		taxes:      NewTaxResolver(catalogs.Taxes, policy),
		normalizer: NewNormalizer(catalogs.Products),
		precision:  precision,
	}
}

func (c *Calculator) Precision() int { return c.precision }

// Result is the outcome of a recalculation. Document is the same pointer
// passed in, with its aggregate fields rewritten.
type Result struct {
	Document    *business.Document `json:"-"`
	Lines       []business.Line    `json:"lines"`
	Subtotals   Subtotals          `json:"subtotals"`
	Diagnostics []diag.Entry       `json:"diagnostics,omitempty"`
}

// FormResult is what an edit form gets back: the new total and the computed lines.
type FormResult struct {
	Total float64         `json:"total"`
	Lines []business.Line `json:"lines"`

	Result *Result `json:"-"`
}

// Recalculate recomputes doc from already stored lines.
//
// Lookup failures never abort; they are returned as diagnostics. The only
// error is apperror.CodeNoDefaultTax under PolicyStrict, and only form
// lines ever need the default tax, so with stored lines this does not fail.
func (c *Calculator) Recalculate(ctx context.Context, doc *business.Document, lines []business.Line) (*Result, error) {
	ctx, span := c.startSpan(ctx, "totals.recalculate", doc, len(lines))
	defer span.End()

	col := diag.New()
	tc := c.clearTotals(ctx, doc, col)

	computed := make([]business.Line, 0, len(lines))
	for _, l := range lines {
		if l.IsEmpty() {
			continue
		}
		computed = append(computed, c.normalizer.Refresh(tc, l))
	}

	return c.finish(doc, computed, col), nil
}

// RecalculateForm recomputes doc from submitted form lines without storing anything.
func (c *Calculator) RecalculateForm(ctx context.Context, doc *business.Document, form []business.FormLine) (*FormResult, error) {
	ctx, span := c.startSpan(ctx, "totals.recalculate_form", doc, len(form))
	defer span.End()

	col := diag.New()
	tc := c.clearTotals(ctx, doc, col)
	taxes := c.taxes.Snapshot(ctx, col)

	computed := make([]business.Line, 0, len(form))
	for _, fl := range form {
		if fl.IsBlankRow() {
			continue
		}
		line, err := c.normalizer.Normalize(ctx, taxes, tc, fl, col)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		line.DocumentID = doc.ID
		line.Order = len(computed) + 1
		computed = append(computed, line)
	}

	res := c.finish(doc, computed, col)
	return &FormResult{Total: doc.Total, Lines: res.Lines, Result: res}, nil
}

// clearTotals zeroes the aggregates and resolves the tax context.
// The previous withholding rate is kept as the fallback for lines without one.
func (c *Calculator) clearTotals(ctx context.Context, doc *business.Document, col *diag.Collector) TaxContext {
	tc := TaxContext{IRPF: doc.IRPF}
	doc.ClearTotals()

	if s, err := c.catalogs.Series.Get(ctx, doc.SeriesCode); err != nil || s == nil {
		col.Warning("series not found", "codserie", doc.SeriesCode)
	} else {
		tc.Exempt = s.SinIVA
	}

	if doc.Exists() {
		return tc
	}

	subject, err := c.catalogs.Subjects.Get(ctx, doc.SubjectCode)
	if err != nil || subject == nil {
		col.Warning("subject not found", doc.Kind.SubjectColumn(), doc.SubjectCode)
	} else {
		tc.IRPF = subject.IRPF
		if doc.Kind.IsSales() {
			tc.ApplySurcharge = subject.Recargo
		}
	}

	if !doc.Kind.IsSales() {
		company, err := c.catalogs.Companies.Get(ctx, doc.CompanyID)
		if err != nil || company == nil {
			col.Warning("company not found", "idempresa", doc.CompanyID)
		} else {
			tc.ApplySurcharge = company.RecEquivalencia
		}
	}
	return tc
}

// finish aggregates lines and writes the totals onto doc.
func (c *Calculator) finish(doc *business.Document, lines []business.Line, col *diag.Collector) *Result {
	checkLineAmounts(lines, col)
	subtotals := Aggregate(lines, c.precision)

	for _, b := range subtotals {
		if b.IRPF > doc.IRPF {
			doc.IRPF = b.IRPF
		}
		doc.Net += b.Net
		doc.TotalIVA += b.TotalIVA
		doc.TotalRecargo += b.TotalRecargo
		doc.TotalIRPF += b.TotalIRPF
	}

	doc.Net = types.Round(doc.Net, c.precision)
	doc.TotalIVA = types.Round(doc.TotalIVA, c.precision)
	doc.TotalRecargo = types.Round(doc.TotalRecargo, c.precision)
	doc.TotalIRPF = types.Round(doc.TotalIRPF, c.precision)
	total := doc.Net + doc.TotalIVA + doc.TotalRecargo - doc.TotalIRPF
	if !types.IsFinite(total) {
		col.Error("document total out of range", "neto", doc.Net, "totaliva", doc.TotalIVA)
	}
	doc.Total = types.Round(total, c.precision)
	doc.Lines = lines

	return &Result{
		Document:    doc,
		Lines:       lines,
		Subtotals:   subtotals,
		Diagnostics: col.Entries(),
	}
}

func (c *Calculator) startSpan(ctx context.Context, name string, doc *business.Document, lines int) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("doc.kind", doc.Kind.String()),
		attribute.Int64("doc.id", doc.ID),
		attribute.Int("doc.lines", lines),
	))
}

// checkLineAmounts zeroes lines whose amounts overflowed and records an error
// for each. Amounts that still overflow once summed are reported as well;
// rounding turns them into 0.
func checkLineAmounts(lines []business.Line, col *diag.Collector) {
	var net, iva, recargo, irpf float64
	for i := range lines {
		l := &lines[i]
		if !types.IsFinite(l.PriceBeforeDiscount) || !types.IsFinite(l.LineTotal) ||
			!types.IsFinite(l.LineTotal*l.IVA) || !types.IsFinite(l.LineTotal*l.Recargo) ||
			!types.IsFinite(l.LineTotal*l.IRPF) {
			col.Error("line amount out of range", "linea", l.Order, "referencia", l.Reference)
			l.PriceBeforeDiscount = 0
			l.LineTotal = 0
			continue
		}
		net += l.LineTotal
		iva += l.LineTotal * l.IVA / 100
		recargo += l.LineTotal * l.Recargo / 100
		irpf += l.LineTotal * l.IRPF / 100
	}
	if !types.IsFinite(net) || !types.IsFinite(iva) || !types.IsFinite(recargo) || !types.IsFinite(irpf) {
		col.Error("document amounts out of range", "lineas", len(lines))
	}
}
