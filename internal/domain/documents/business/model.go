// Package business defines business documents (estimations, orders, delivery
// notes and invoices, for sales and purchases) and their lines.
package business

import (
	"context"
	"strings"
	"time"

	"factura/internal/core/apperror"
)

// Document is the header of a business document.
//
// Aggregate fields (Net, TotalIVA, TotalRecargo, TotalIRPF, Total and IRPF)
// are written only by the totals calculator.
type Document struct {
	ID   int64 `db:"id" json:"id"`
	Kind Kind  `db:"-" json:"kind"`

	Code       string    `db:"codigo" json:"codigo"`
	Number     string    `db:"numero" json:"numero"`
	SeriesCode string    `db:"codserie" json:"codserie"`
	Date       time.Time `db:"fecha" json:"fecha"`
	// Time is HH:MM:SS.
	Time string `db:"hora" json:"hora"`

	CurrencyCode   string  `db:"coddivisa" json:"coddivisa"`
	ConversionRate float64 `db:"tasaconv" json:"tasaconv"`
	WarehouseCode  string  `db:"codalmacen" json:"codalmacen"`
	CompanyID      int64   `db:"idempresa" json:"idempresa"`
	PaymentCode    string  `db:"codpago" json:"codpago"`

	// SubjectCode is the customer code for sales, the supplier code for purchases.
	SubjectCode string `db:"codsujeto" json:"codsujeto"`

	StateID int64 `db:"idestado" json:"idestado"`

	IRPF         float64 `db:"irpf" json:"irpf"`
	Net          float64 `db:"neto" json:"neto"`
	TotalIVA     float64 `db:"totaliva" json:"totaliva"`
	TotalRecargo float64 `db:"totalrecargo" json:"totalrecargo"`
	TotalIRPF    float64 `db:"totalirpf" json:"totalirpf"`
	Total        float64 `db:"total" json:"total"`

	Lines []Line `db:"-" json:"lines,omitempty"`
}

// Exists reports whether the document has been stored.
func (d *Document) Exists() bool { return d.ID != 0 }

// ClearTotals zeroes every aggregate field.
func (d *Document) ClearTotals() {
	d.IRPF = 0
	d.Net = 0
	d.TotalIVA = 0
	d.TotalRecargo = 0
	d.TotalIRPF = 0
	d.Total = 0
}

// Validate checks header invariants.
func (d *Document) Validate(ctx context.Context) error {
	if !d.Kind.Valid() {
		return apperror.NewValidation("unknown document kind").WithDetail("kind", string(d.Kind))
	}
	if strings.TrimSpace(d.SubjectCode) == "" {
		return apperror.NewValidation("subject is required").WithDetail("field", d.Kind.SubjectColumn())
	}
	if strings.TrimSpace(d.SeriesCode) == "" {
		return apperror.NewValidation("series is required").WithDetail("field", "codserie")
	}
	if d.ConversionRate < 0 {
		return apperror.NewValidation("conversion rate cannot be negative").WithDetail("field", "tasaconv")
	}
	if d.Time != "" {
		if _, err := time.Parse(time.TimeOnly, d.Time); err != nil {
			return apperror.NewValidation("invalid time").WithDetail("field", "hora")
		}
	}
	return nil
}

// StampNow sets date and time to the current moment.
func (d *Document) StampNow(now time.Time) {
	d.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	d.Time = now.Format(time.TimeOnly)
}

// Line is one row of a business document.
type Line struct {
	ID         int64 `db:"idlinea" json:"idlinea"`
	DocumentID int64 `db:"iddocumento" json:"iddocumento"`
	Order      int   `db:"orden" json:"orden"`

	Reference   string  `db:"referencia" json:"referencia"`
	Description string  `db:"descripcion" json:"descripcion"`
	Quantity    float64 `db:"cantidad" json:"cantidad"`
	UnitPrice   float64 `db:"pvpunitario" json:"pvpunitario"`
	Discount    float64 `db:"dtopor" json:"dtopor"`

	TaxCode string  `db:"codimpuesto" json:"codimpuesto"`
	IVA     float64 `db:"iva" json:"iva"`
	Recargo float64 `db:"recargo" json:"recargo"`
	IRPF    float64 `db:"irpf" json:"irpf"`

	// PriceBeforeDiscount = UnitPrice * Quantity
	PriceBeforeDiscount float64 `db:"pvpsindto" json:"pvpsindto"`
	// LineTotal = PriceBeforeDiscount * (100 - Discount) / 100
	LineTotal float64 `db:"pvptotal" json:"pvptotal"`

	// StockEffect is -1 when the line takes goods out, +1 when it brings them
	// in, 0 when it does not move stock. Lines generated from a document that
	// already moved the goods carry 0.
	StockEffect int `db:"actualizastock" json:"actualizastock"`
}

// IsEmpty reports a placeholder row: no reference and no description.
func (l *Line) IsEmpty() bool {
	return strings.TrimSpace(l.Reference) == "" && strings.TrimSpace(l.Description) == ""
}

// ApplyAmounts derives PriceBeforeDiscount and LineTotal from the inputs.
func (l *Line) ApplyAmounts() {
	l.PriceBeforeDiscount = l.UnitPrice * l.Quantity
	l.LineTotal = l.PriceBeforeDiscount * (100 - l.Discount) / 100
}

// Exempt zeroes every tax rate of the line.
func (l *Line) Exempt() {
	l.IVA = 0
	l.Recargo = 0
	l.IRPF = 0
}

// CloneFor returns a copy of l owned by docID, with no identity of its own.
func (l Line) CloneFor(docID int64) Line {
	l.ID = 0
	l.DocumentID = docID
	return l
}
