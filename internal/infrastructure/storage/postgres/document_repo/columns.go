package document_repo

import (
	"fmt"

	"factura/internal/domain/documents/business"
	"factura/internal/infrastructure/storage/postgres"
)

// Field names shared by every kind are mapped onto the kind's own columns:
// "id" and "iddocumento" become the kind's id column, "codsujeto" becomes
// codcliente or codproveedor.
const (
	fieldID       = "id"
	fieldSubject  = "codsujeto"
	fieldDocument = "iddocumento"
	fieldLineID   = "idlinea"
)

var (
	headerFields = postgres.ExtractDBColumns[business.Document]()
	lineFields   = postgres.ExtractDBColumns[business.Line]()
)

// layout is the physical table layout of one kind.
type layout struct {
	kind      business.Kind
	table     string
	lineTable string
	idColumn  string
	subject   string
}

func layoutFor(kind business.Kind) (layout, error) {
	if !kind.Valid() {
		return layout{}, fmt.Errorf("unknown document kind %q", kind)
	}
	info := kind.Info()
	return layout{
		kind:      kind,
		table:     info.Table,
		lineTable: info.LineTable,
		idColumn:  info.IDColumn,
		subject:   kind.SubjectColumn(),
	}, nil
}

func (l layout) headerColumn(field string) string {
	switch field {
	case fieldID:
		return l.idColumn
	case fieldSubject:
		return l.subject
	}
	return field
}

func (l layout) lineColumn(field string) string {
	if field == fieldDocument {
		return l.idColumn
	}
	return field
}

// headerSelect returns select expressions aliased back to the struct tags.
func (l layout) headerSelect() []string {
	cols := make([]string, 0, len(headerFields))
	for _, f := range headerFields {
		cols = append(cols, alias(l.headerColumn(f), f))
	}
	return cols
}

func (l layout) lineSelect() []string {
	cols := make([]string, 0, len(lineFields))
	for _, f := range lineFields {
		cols = append(cols, alias(l.lineColumn(f), f))
	}
	return cols
}

// headerValues returns writable columns and values of doc; the id is never written.
func (l layout) headerValues(doc *business.Document) ([]string, []any) {
	data := postgres.StructToMap(doc)
	cols := make([]string, 0, len(headerFields))
	vals := make([]any, 0, len(headerFields))
	for _, f := range headerFields {
		if f == fieldID {
			continue
		}
		cols = append(cols, l.headerColumn(f))
		vals = append(vals, data[f])
	}
	return cols, vals
}

func (l layout) lineValues(line *business.Line) ([]string, []any) {
	data := postgres.StructToMap(line)
	cols := make([]string, 0, len(lineFields))
	vals := make([]any, 0, len(lineFields))
	for _, f := range lineFields {
		if f == fieldLineID {
			continue
		}
		cols = append(cols, l.lineColumn(f))
		vals = append(vals, data[f])
	}
	return cols, vals
}

func alias(column, field string) string {
	if column == field {
		return column
	}
	return column + " AS " + field
}
