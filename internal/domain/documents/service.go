// Package documents provides the business document service: creation,
// line saving, recalculation and conversion between kinds.
package documents

import (
	"context"
	"fmt"
	"time"

	"factura/internal/core/apperror"
	"factura/internal/core/diag"
	"factura/internal/core/numerator"
	"factura/internal/core/tx"
	"factura/internal/domain"
	"factura/internal/domain/audit"
	"factura/internal/domain/documents/business"
	"factura/internal/domain/documents/generator"
	"factura/internal/domain/documents/totals"
	"factura/pkg/logger"
)

// Recalculation sources reported to Metrics.
const (
	SourceStored = "stored"
	SourceForm   = "form"
)

// Metrics receives service-level measurements.
type Metrics interface {
	ObserveRecalculation(kind business.Kind, source string, took time.Duration, diagnostics int)
	ObserveGeneration(from, to business.Kind, err error)
}

// StockRegister applies the stock effect of lines saved on a document.
type StockRegister interface {
	ApplyDocument(ctx context.Context, doc *business.Document, lines []business.Line) error
	ReplaceDocument(ctx context.Context, doc *business.Document, lines []business.Line) error
}

type nopMetrics struct{}

func (nopMetrics) ObserveRecalculation(business.Kind, string, time.Duration, int) {}
func (nopMetrics) ObserveGeneration(business.Kind, business.Kind, error)          {}

// Service provides business operations for documents of every kind.
type Service struct {
	repo       business.Repository
	calculator *totals.Calculator
	generator  *generator.Generator
	numerator  numerator.Generator
	headers    *business.HeaderResolver
	txManager  tx.Manager
	audit      audit.Recorder
	metrics    Metrics
	stock      StockRegister
	hooks      *domain.HookRegistry[*business.Document]
}

// Config wires a Service.
type Config struct {
	Repo       business.Repository
	Calculator *totals.Calculator
	Generator  *generator.Generator
	Numerator  numerator.Generator
	Headers    *business.HeaderResolver
	TxManager  tx.Manager
	Audit      audit.Recorder
	Metrics    Metrics
	// Stock is optional; without it saved lines never move stock.
	Stock StockRegister
}

func NewService(cfg Config) *Service {
	s := &Service{
		repo:       cfg.Repo,
		calculator: cfg.Calculator,
		generator:  cfg.Generator,
		numerator:  cfg.Numerator,
		headers:    cfg.Headers,
		txManager:  cfg.TxManager,
		audit:      cfg.Audit,
		metrics:    cfg.Metrics,
		stock:      cfg.Stock,
		hooks:      domain.NewHookRegistry[*business.Document](),
	}
	if s.txManager == nil {
		s.txManager = tx.Nop{}
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*business.Document] {
	return s.hooks
}

// Get returns a document with its lines.
func (s *Service) Get(ctx context.Context, kind business.Kind, docID int64) (*business.Document, error) {
	doc, err := s.repo.Get(ctx, kind, docID)
	if err != nil {
		return nil, err
	}
	doc.Kind = kind

	lines, err := s.repo.GetLines(ctx, kind, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

// List returns document headers of kind.
func (s *Service) List(ctx context.Context, kind business.Kind, filter business.ListFilter) (domain.ListResult[*business.Document], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	return s.repo.List(ctx, kind, filter)
}

// Create stores a new document with lines computed from form input.
// Numbering, header, lines, totals and the stock effect of stock-moving
// kinds are written in one transaction.
func (s *Service) Create(ctx context.Context, doc *business.Document, form []business.FormLine) (*totals.FormResult, error) {
	if doc.Exists() {
		return nil, apperror.NewValidation("document already exists").WithDetail("id", doc.ID)
	}
	if s.headers != nil {
		s.headers.Resolve(ctx, doc)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.hooks.Run(ctx, domain.BeforeSave, doc); err != nil {
		return nil, err
	}

	res, err := s.recalculateForm(ctx, doc, form)
	if err != nil {
		return nil, err
	}
	setStockEffect(res.Lines, doc.Kind.StockEffect())

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if doc.Code == "" && s.numerator != nil {
			cfg, opts := doc.Kind.Numbering(doc.SeriesCode)
			code, err := s.numerator.GetNextNumber(ctx, cfg, opts, doc.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			doc.Code = code
			doc.Number = numerator.SequencePart(code)
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.ReplaceLines(ctx, doc.Kind, doc.ID, res.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if s.stock != nil {
			if err := s.stock.ApplyDocument(ctx, doc, res.Lines); err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
		}
		return s.recordAudit(ctx, doc, audit.ActionCreate)
	})
	if err != nil {
		return nil, err
	}
	doc.Lines = res.Lines

	if err := s.hooks.Run(ctx, domain.AfterSave, doc); err != nil {
		logger.Warn(ctx, "after-save hook failed", "error", err)
	}

	logger.Info(ctx, "document created",
		"kind", doc.Kind,
		"id", doc.ID,
		"codigo", doc.Code,
		"total", doc.Total)

	return res, nil
}

// PreviewForm recalculates form lines against doc without storing anything.
// doc is used as given; header defaults are filled only when it has no id.
func (s *Service) PreviewForm(ctx context.Context, doc *business.Document, form []business.FormLine) (*totals.FormResult, error) {
	if s.headers != nil && !doc.Exists() {
		s.headers.Resolve(ctx, doc)
	}
	return s.recalculateForm(ctx, doc, form)
}

// SaveLines replaces the lines of a stored document with computed form
// lines and saves the new totals, atomically. New lines keep the stock
// effect of the lines they replace, so a document generated from a
// delivery note still moves nothing; the document's recorded stock is
// then brought in line with the new lines.
func (s *Service) SaveLines(ctx context.Context, kind business.Kind, docID int64, form []business.FormLine) (*totals.FormResult, error) {
	var res *totals.FormResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.Get(ctx, kind, docID)
		if err != nil {
			return err
		}
		doc.Kind = kind

		if err := s.hooks.Run(ctx, domain.BeforeSave, doc); err != nil {
			return err
		}

		prior, err := s.repo.GetLines(ctx, kind, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		res, err = s.recalculateForm(ctx, doc, form)
		if err != nil {
			return err
		}
		setStockEffect(res.Lines, storedStockEffect(kind, prior))

		if err := s.repo.ReplaceLines(ctx, kind, docID, res.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if err := s.repo.UpdateTotals(ctx, doc); err != nil {
			return fmt.Errorf("save totals: %w", err)
		}
		if s.stock != nil {
			if err := s.stock.ReplaceDocument(ctx, doc, res.Lines); err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
		}
		return s.recordAudit(ctx, doc, audit.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterSave, res.Result.Document); err != nil {
		logger.Warn(ctx, "after-save hook failed", "error", err)
	}
	return res, nil
}

// Recalculate recomputes a stored document from its stored lines and saves
// the aggregate fields.
func (s *Service) Recalculate(ctx context.Context, kind business.Kind, docID int64) (*totals.Result, error) {
	var res *totals.Result
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.Get(ctx, kind, docID)
		if err != nil {
			return err
		}

		started := time.Now()
		res, err = s.calculator.Recalculate(ctx, doc, doc.Lines)
		if err != nil {
			return err
		}
		s.metrics.ObserveRecalculation(kind, SourceStored, time.Since(started), len(res.Diagnostics))
		diag.Flush(ctx, res.Diagnostics)

		if err := s.repo.UpdateTotals(ctx, doc); err != nil {
			return fmt.Errorf("save totals: %w", err)
		}
		return s.recordAudit(ctx, doc, audit.ActionRecalculate)
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterRecalculate, res.Document); err != nil {
		logger.Warn(ctx, "after-recalculate hook failed", "error", err)
	}
	return res, nil
}

// Generate converts a stored document into kind target.
func (s *Service) Generate(ctx context.Context, kind business.Kind, docID int64, target business.Kind) (*business.Document, error) {
	proto, err := s.Get(ctx, kind, docID)
	if err != nil {
		return nil, err
	}

	doc, err := s.generator.Generate(ctx, proto, target)
	s.metrics.ObserveGeneration(kind, target, err)
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterGenerate, doc); err != nil {
		logger.Warn(ctx, "after-generate hook failed", "error", err)
	}
	return doc, nil
}

func (s *Service) recalculateForm(ctx context.Context, doc *business.Document, form []business.FormLine) (*totals.FormResult, error) {
	started := time.Now()
	res, err := s.calculator.RecalculateForm(ctx, doc, form)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRecalculation(doc.Kind, SourceForm, time.Since(started), len(res.Result.Diagnostics))
	diag.Flush(ctx, res.Result.Diagnostics)
	return res, nil
}

func (s *Service) recordAudit(ctx context.Context, doc *business.Document, action audit.Action) error {
	entry, err := audit.NewEntry(doc.Kind.String(), doc.ID, action, map[string]any{
		"neto":         doc.Net,
		"totaliva":     doc.TotalIVA,
		"totalrecargo": doc.TotalRecargo,
		"totalirpf":    doc.TotalIRPF,
		"irpf":         doc.IRPF,
		"total":        doc.Total,
	}, nil)
	if err != nil {
		return err
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

func setStockEffect(lines []business.Line, effect int) {
	for i := range lines {
		lines[i].StockEffect = effect
	}
}

// storedStockEffect is the effect carried by the stored lines, or the
// kind's own effect when the document has none.
func storedStockEffect(kind business.Kind, lines []business.Line) int {
	if len(lines) == 0 {
		return kind.StockEffect()
	}
	return lines[0].StockEffect
}
