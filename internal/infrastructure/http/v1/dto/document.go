package dto

import (
	"time"

	"factura/internal/core/apperror"
	"factura/internal/core/diag"
	"factura/internal/domain/documents/business"
	"factura/internal/domain/documents/totals"
)

// DocumentHeaderRequest carries the header fields a client may set.
// Aggregates, code and number are never accepted from clients.
type DocumentHeaderRequest struct {
	SeriesCode     string  `json:"codserie"`
	SubjectCode    string  `json:"codsujeto"`
	Date           string  `json:"fecha"`
	Time           string  `json:"hora"`
	CurrencyCode   string  `json:"coddivisa"`
	ConversionRate float64 `json:"tasaconv"`
	WarehouseCode  string  `json:"codalmacen"`
	CompanyID      int64   `json:"idempresa"`
	PaymentCode    string  `json:"codpago"`
	StateID        int64   `json:"idestado"`
}

// ToDocument builds an unsaved document of kind. Date is YYYY-MM-DD.
func (r DocumentHeaderRequest) ToDocument(kind business.Kind) (*business.Document, error) {
	doc := &business.Document{
		Kind:           kind,
		SeriesCode:     r.SeriesCode,
		SubjectCode:    r.SubjectCode,
		Time:           r.Time,
		CurrencyCode:   r.CurrencyCode,
		ConversionRate: r.ConversionRate,
		WarehouseCode:  r.WarehouseCode,
		CompanyID:      r.CompanyID,
		PaymentCode:    r.PaymentCode,
		StateID:        r.StateID,
	}
	if r.Date != "" {
		d, err := time.Parse(time.DateOnly, r.Date)
		if err != nil {
			return nil, apperror.NewValidation("invalid date").WithDetail("field", "fecha")
		}
		doc.Date = d
	}
	return doc, nil
}

// CreateDocumentRequest creates a document with its lines in one call.
type CreateDocumentRequest struct {
	DocumentHeaderRequest
	Lines []business.FormLine `json:"lines"`
}

// RecalculateFormRequest previews totals for form lines. With ID set the
// stored header is used and the other header fields are ignored.
type RecalculateFormRequest struct {
	DocumentHeaderRequest
	ID    int64               `json:"id"`
	Lines []business.FormLine `json:"lines"`
}

// SaveLinesRequest replaces the lines of a stored document.
type SaveLinesRequest struct {
	Lines []business.FormLine `json:"lines"`
}

// GenerateRequest converts a stored document into another kind.
type GenerateRequest struct {
	Target string `json:"target" binding:"required"`
}

// CreatedDocumentResponse is returned by document creation.
type CreatedDocumentResponse struct {
	Document    *business.Document `json:"document"`
	Total       float64            `json:"total"`
	Lines       []business.Line    `json:"lines"`
	Diagnostics []diag.Entry       `json:"diagnostics,omitempty"`
}

func FromCreated(doc *business.Document, res *totals.FormResult) CreatedDocumentResponse {
	out := CreatedDocumentResponse{Document: doc, Total: res.Total, Lines: res.Lines}
	if res.Result != nil {
		out.Diagnostics = res.Result.Diagnostics
	}
	return out
}

// RecalculateResponse is returned by a stored recalculation.
type RecalculateResponse struct {
	Document    *business.Document `json:"document"`
	Subtotals   totals.Subtotals   `json:"subtotals"`
	Diagnostics []diag.Entry       `json:"diagnostics,omitempty"`
}

func FromResult(res *totals.Result) RecalculateResponse {
	doc := res.Document
	if doc != nil {
		doc.Lines = res.Lines
	}
	return RecalculateResponse{Document: doc, Subtotals: res.Subtotals, Diagnostics: res.Diagnostics}
}

// DocumentSummary is one row of a document list.
type DocumentSummary struct {
	ID          int64     `json:"id"`
	Code        string    `json:"codigo"`
	SeriesCode  string    `json:"codserie"`
	SubjectCode string    `json:"codsujeto"`
	Date        time.Time `json:"fecha"`
	Total       float64   `json:"total"`
}

func FromDocumentSummary(d *business.Document) DocumentSummary {
	return DocumentSummary{
		ID:          d.ID,
		Code:        d.Code,
		SeriesCode:  d.SeriesCode,
		SubjectCode: d.SubjectCode,
		Date:        d.Date,
		Total:       d.Total,
	}
}
