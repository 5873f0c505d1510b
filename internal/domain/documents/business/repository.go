package business

import (
	"context"
	"time"

	"factura/internal/domain"
)

// Repository defines storage for business documents of every kind.
type Repository interface {
	// Get returns the header only. apperror.NotFound when missing.
	Get(ctx context.Context, kind Kind, docID int64) (*Document, error)

	// GetLines returns lines ordered by orden, idlinea.
	GetLines(ctx context.Context, kind Kind, docID int64) ([]Line, error)

	// Create inserts the header and assigns doc.ID.
	Create(ctx context.Context, doc *Document) error

	// Update rewrites every header column, aggregates included.
	Update(ctx context.Context, doc *Document) error

	// UpdateTotals writes only the aggregate fields.
	UpdateTotals(ctx context.Context, doc *Document) error

	// InsertLine inserts one line and assigns line.ID.
	InsertLine(ctx context.Context, kind Kind, line *Line) error

	// ReplaceLines deletes every line of the document and inserts lines.
	ReplaceLines(ctx context.Context, kind Kind, docID int64, lines []Line) error

	List(ctx context.Context, kind Kind, filter ListFilter) (domain.ListResult[*Document], error)
}

// ListFilter for filtering documents.
type ListFilter struct {
	domain.ListFilter

	SubjectCode string
	SeriesCode  string
	DateFrom    *time.Time
	DateTo      *time.Time
}
