// Package generator converts a business document into another kind
// (estimation → order → delivery note → invoice).
package generator

import (
	"context"
	"fmt"
	"time"

	"factura/internal/core/apperror"
	"factura/internal/core/numerator"
	"factura/internal/core/tx"
	"factura/internal/domain/audit"
	"factura/internal/domain/documents/business"
	"factura/pkg/logger"
)

// StockUpdater applies the stock effect of one generated line.
type StockUpdater interface {
	ApplyGeneratedLine(ctx context.Context, doc *business.Document, from business.Kind, line business.Line) error
}

// Generator clones documents and their lines into a new kind.
type Generator struct {
	repo      business.Repository
	txManager tx.Manager
	numerator numerator.Generator
	stock     StockUpdater
	audit     audit.Recorder
	now       func() time.Time
}

// Config wires a Generator.
type Config struct {
	Repo      business.Repository
	TxManager tx.Manager
	Numerator numerator.Generator
	Stock     StockUpdater
	Audit     audit.Recorder
}

func New(cfg Config) *Generator {
	g := &Generator{
		repo:      cfg.Repo,
		txManager: cfg.TxManager,
		numerator: cfg.Numerator,
		stock:     cfg.Stock,
		audit:     cfg.Audit,
		now:       time.Now,
	}
	if g.txManager == nil {
		g.txManager = tx.Nop{}
	}
	if g.audit == nil {
		g.audit = audit.Nop{}
	}
	return g
}

// Generate creates a document of kind target from prototype and its lines.
//
// Every header field is copied except state, date and time; identity and
// code are assigned on insert. Lines are copied to the new document one by
// one and each triggers a stock update against the new warehouse. The whole
// operation is one transaction: any failure leaves nothing behind.
//
// prototype.Lines is used when set; otherwise lines are loaded from storage.
func (g *Generator) Generate(ctx context.Context, prototype *business.Document, target business.Kind) (*business.Document, error) {
	if !prototype.Kind.CanConvertTo(target) {
		return nil, apperror.NewInvalidTransition(prototype.Kind.String(), target.String())
	}

	var created *business.Document
	err := g.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		lines := prototype.Lines
		if lines == nil && prototype.Exists() {
			var err error
			lines, err = g.repo.GetLines(ctx, prototype.Kind, prototype.ID)
			if err != nil {
				return fmt.Errorf("load prototype lines: %w", err)
			}
		}

		doc := Clone(prototype, target, g.now())
		if err := g.assignCode(ctx, doc); err != nil {
			return err
		}
		if err := g.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("save header: %w", err)
		}

		effect := target.GeneratedStockEffect(prototype.Kind)
		doc.Lines = make([]business.Line, 0, len(lines))
		for i, src := range lines {
			line := src.CloneFor(doc.ID)
			line.StockEffect = effect
			if err := g.repo.InsertLine(ctx, target, &line); err != nil {
				return fmt.Errorf("save line %d: %w", i+1, err)
			}
			if g.stock != nil {
				if err := g.stock.ApplyGeneratedLine(ctx, doc, prototype.Kind, line); err != nil {
					return fmt.Errorf("update stock for line %d: %w", i+1, err)
				}
			}
			doc.Lines = append(doc.Lines, line)
		}

		if err := g.recordAudit(ctx, prototype, doc); err != nil {
			return err
		}

		created = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "document generated",
		"from_kind", prototype.Kind,
		"from_id", prototype.ID,
		"kind", created.Kind,
		"id", created.ID,
		"codigo", created.Code,
		"lines", len(created.Lines))

	return created, nil
}

// Clone copies a header into a new, unsaved document of kind target.
// idestado, fecha and hora are not carried over: state starts at zero and
// date/time are set to now.
func Clone(prototype *business.Document, target business.Kind, now time.Time) *business.Document {
	doc := *prototype
	doc.ID = 0
	doc.Kind = target
	doc.Code = ""
	doc.Number = ""
	doc.StateID = 0
	doc.StampNow(now)
	doc.Lines = nil
	return &doc
}

func (g *Generator) assignCode(ctx context.Context, doc *business.Document) error {
	if g.numerator == nil {
		return nil
	}
	cfg, opts := doc.Kind.Numbering(doc.SeriesCode)
	code, err := g.numerator.GetNextNumber(ctx, cfg, opts, doc.Date)
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	doc.Code = code
	doc.Number = numerator.SequencePart(code)
	return nil
}

func (g *Generator) recordAudit(ctx context.Context, prototype, doc *business.Document) error {
	entry, err := audit.NewEntry(doc.Kind.String(), doc.ID, audit.ActionGenerate,
		prototype,
		map[string]any{"from_kind": prototype.Kind, "from_id": prototype.ID},
	)
	if err != nil {
		return err
	}
	if err := g.audit.Record(ctx, entry); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}
