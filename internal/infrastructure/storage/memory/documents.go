package memory

import (
	"context"
	"sort"
	"sync"

	"factura/internal/core/apperror"
	"factura/internal/domain"
	"factura/internal/domain/documents/business"
)

type docKey struct {
	kind business.Kind
	id   int64
}

// Documents is an in-memory business.Repository. Copies are stored, so
// callers cannot mutate stored state by accident.
type Documents struct {
	mu     sync.Mutex
	nextID int64
	lineID int64
	docs   map[docKey]business.Document
	lines  map[docKey][]business.Line

	// FailInsertLineAfter makes InsertLine fail once that many lines were inserted.
	// Zero disables it.
	FailInsertLineAfter int
	inserted            int
}

func NewDocuments() *Documents {
	return &Documents{
		docs:  make(map[docKey]business.Document),
		lines: make(map[docKey][]business.Line),
	}
}

func (r *Documents) Get(ctx context.Context, kind business.Kind, docID int64) (*business.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[docKey{kind, docID}]
	if !ok {
		return nil, apperror.NewNotFound(kind.String(), docID)
	}
	d.Lines = nil
	return &d, nil
}

func (r *Documents) GetLines(ctx context.Context, kind business.Kind, docID int64) ([]business.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.lines[docKey{kind, docID}]
	out := make([]business.Line, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Documents) Create(ctx context.Context, doc *business.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	doc.ID = r.nextID
	stored := *doc
	stored.Lines = nil
	r.docs[docKey{doc.Kind, doc.ID}] = stored
	return nil
}

func (r *Documents) Update(ctx context.Context, doc *business.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := docKey{doc.Kind, doc.ID}
	if _, ok := r.docs[k]; !ok {
		return apperror.NewNotFound(doc.Kind.String(), doc.ID)
	}
	stored := *doc
	stored.Lines = nil
	r.docs[k] = stored
	return nil
}

func (r *Documents) UpdateTotals(ctx context.Context, doc *business.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := docKey{doc.Kind, doc.ID}
	stored, ok := r.docs[k]
	if !ok {
		return apperror.NewNotFound(doc.Kind.String(), doc.ID)
	}
	stored.IRPF = doc.IRPF
	stored.Net = doc.Net
	stored.TotalIVA = doc.TotalIVA
	stored.TotalRecargo = doc.TotalRecargo
	stored.TotalIRPF = doc.TotalIRPF
	stored.Total = doc.Total
	r.docs[k] = stored
	return nil
}

func (r *Documents) InsertLine(ctx context.Context, kind business.Kind, line *business.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailInsertLineAfter > 0 && r.inserted >= r.FailInsertLineAfter {
		return apperror.NewInternal(nil).WithDetail("reason", "line insert failed")
	}
	r.inserted++
	r.lineID++
	line.ID = r.lineID
	k := docKey{kind, line.DocumentID}
	r.lines[k] = append(r.lines[k], *line)
	return nil
}

func (r *Documents) ReplaceLines(ctx context.Context, kind business.Kind, docID int64, lines []business.Line) error {
	r.mu.Lock()
	k := docKey{kind, docID}
	delete(r.lines, k)
	r.mu.Unlock()

	for i := range lines {
		lines[i].DocumentID = docID
		if err := r.InsertLine(ctx, kind, &lines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Documents) List(ctx context.Context, kind business.Kind, filter business.ListFilter) (domain.ListResult[*business.Document], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*business.Document
	for k, d := range r.docs {
		if k.kind != kind {
			continue
		}
		if filter.SubjectCode != "" && d.SubjectCode != filter.SubjectCode {
			continue
		}
		if filter.SeriesCode != "" && d.SeriesCode != filter.SeriesCode {
			continue
		}
		d := d
		items = append(items, &d)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return domain.ListResult[*business.Document]{
		Items:      items,
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// Count returns the number of stored documents of kind.
func (r *Documents) Count(kind business.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.docs {
		if k.kind == kind {
			n++
		}
	}
	return n
}

var _ business.Repository = (*Documents)(nil)
