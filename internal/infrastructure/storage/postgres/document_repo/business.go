// Package document_repo provides the PostgreSQL business.Repository.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"factura/internal/core/apperror"
	"factura/internal/domain"
	"factura/internal/domain/documents/business"
	"factura/internal/infrastructure/storage/postgres"
)

// BusinessRepo stores every document kind in its own header and line tables.
type BusinessRepo struct {
	txm *postgres.TxManager
}

func NewBusinessRepo(txm *postgres.TxManager) *BusinessRepo {
	return &BusinessRepo{txm: txm}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BusinessRepo) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

func (r *BusinessRepo) Get(ctx context.Context, kind business.Kind, docID int64) (*business.Document, error) {
	l, err := layoutFor(kind)
	if err != nil {
		return nil, err
	}

	sql, args, err := builder().
		Select(l.headerSelect()...).
		From(l.table).
		Where(squirrel.Eq{l.idColumn: docID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	doc := &business.Document{}
	if err := pgxscan.Get(ctx, r.querier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(kind.String(), docID)
		}
		return nil, fmt.Errorf("get %s: %w", l.table, err)
	}
	doc.Kind = kind
	return doc, nil
}

func (r *BusinessRepo) GetLines(ctx context.Context, kind business.Kind, docID int64) ([]business.Line, error) {
	l, err := layoutFor(kind)
	if err != nil {
		return nil, err
	}

	sql, args, err := linesQuery(l, docID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []business.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines %s: %w", l.lineTable, err)
	}
	return lines, nil
}

func linesQuery(l layout, docID int64) squirrel.SelectBuilder {
	return builder().
		Select(l.lineSelect()...).
		From(l.lineTable).
		Where(squirrel.Eq{l.idColumn: docID}).
		OrderBy("orden", "idlinea")
}

func (r *BusinessRepo) Create(ctx context.Context, doc *business.Document) error {
	l, err := layoutFor(doc.Kind)
	if err != nil {
		return err
	}

	sql, args, err := insertHeader(l, doc).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&doc.ID); err != nil {
		return fmt.Errorf("insert %s: %w", l.table, err)
	}
	return nil
}

func insertHeader(l layout, doc *business.Document) squirrel.InsertBuilder {
	cols, vals := l.headerValues(doc)
	return builder().
		Insert(l.table).
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING " + l.idColumn)
}

func (r *BusinessRepo) Update(ctx context.Context, doc *business.Document) error {
	l, err := layoutFor(doc.Kind)
	if err != nil {
		return err
	}

	cols, vals := l.headerValues(doc)
	q := builder().Update(l.table).Where(squirrel.Eq{l.idColumn: doc.ID})
	for i, col := range cols {
		q = q.Set(col, vals[i])
	}
	return r.execUpdate(ctx, l, doc.ID, q)
}

// UpdateTotals writes only the fields owned by the totals calculator.
func (r *BusinessRepo) UpdateTotals(ctx context.Context, doc *business.Document) error {
	l, err := layoutFor(doc.Kind)
	if err != nil {
		return err
	}
	return r.execUpdate(ctx, l, doc.ID, updateTotals(l, doc))
}

func updateTotals(l layout, doc *business.Document) squirrel.UpdateBuilder {
	return builder().
		Update(l.table).
		Set("irpf", doc.IRPF).
		Set("neto", doc.Net).
		Set("totaliva", doc.TotalIVA).
		Set("totalrecargo", doc.TotalRecargo).
		Set("totalirpf", doc.TotalIRPF).
		Set("total", doc.Total).
		Where(squirrel.Eq{l.idColumn: doc.ID})
}

func (r *BusinessRepo) execUpdate(ctx context.Context, l layout, docID int64, q squirrel.UpdateBuilder) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", l.table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(l.kind.String(), docID)
	}
	return nil
}

func (r *BusinessRepo) InsertLine(ctx context.Context, kind business.Kind, line *business.Line) error {
	l, err := layoutFor(kind)
	if err != nil {
		return err
	}

	sql, args, err := insertLine(l, line).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&line.ID); err != nil {
		return fmt.Errorf("insert %s: %w", l.lineTable, err)
	}
	return nil
}

func insertLine(l layout, line *business.Line) squirrel.InsertBuilder {
	cols, vals := l.lineValues(line)
	return builder().
		Insert(l.lineTable).
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING idlinea")
}

// ReplaceLines must run inside a transaction; the delete and the inserts
// are not atomic otherwise.
func (r *BusinessRepo) ReplaceLines(ctx context.Context, kind business.Kind, docID int64, lines []business.Line) error {
	l, err := layoutFor(kind)
	if err != nil {
		return err
	}

	sql, args, err := builder().
		Delete(l.lineTable).
		Where(squirrel.Eq{l.idColumn: docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete %s: %w", l.lineTable, err)
	}

	for i := range lines {
		lines[i].DocumentID = docID
		if err := r.InsertLine(ctx, kind, &lines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *BusinessRepo) List(ctx context.Context, kind business.Kind, filter business.ListFilter) (domain.ListResult[*business.Document], error) {
	result := domain.ListResult[*business.Document]{Limit: filter.Limit, Offset: filter.Offset}

	l, err := layoutFor(kind)
	if err != nil {
		return result, err
	}

	q, countQ, err := listQueries(l, filter)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", l.table, err)
	}
	for _, d := range result.Items {
		d.Kind = kind
	}
	return result, nil
}

func listQueries(l layout, filter business.ListFilter) (squirrel.SelectBuilder, squirrel.SelectBuilder, error) {
	q := builder().Select(l.headerSelect()...).From(l.table)

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"codigo": "%" + filter.Search + "%"})
	}
	if filter.SubjectCode != "" {
		q = q.Where(squirrel.Eq{l.subject: filter.SubjectCode})
	}
	if filter.SeriesCode != "" {
		q = q.Where(squirrel.Eq{"codserie": filter.SeriesCode})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"fecha": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"fecha": *filter.DateTo})
	}

	countQ := builder().Select("COUNT(*)").FromSelect(q, "sub")

	order, err := orderBy(l, filter.OrderBy)
	if err != nil {
		return q, countQ, err
	}
	q = q.OrderBy(order...)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q, countQ, nil
}

// orderBy accepts a header field name, "-" prefixed for descending order.
// Default is newest first.
func orderBy(l layout, s string) ([]string, error) {
	if s == "" {
		return []string{"fecha DESC", l.idColumn + " DESC"}, nil
	}

	direction := "ASC"
	field := strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(s, "-")
	}
	for _, f := range headerFields {
		if f == field {
			return []string{l.headerColumn(f) + " " + direction}, nil
		}
	}
	return nil, apperror.NewValidation("invalid orderBy").WithDetail("orderBy", s)
}

var _ business.Repository = (*BusinessRepo)(nil)
