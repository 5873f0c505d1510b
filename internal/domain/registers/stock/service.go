package stock

import (
	"context"
	"fmt"
	"time"

	"factura/internal/core/apperror"
	"factura/internal/core/id"
	"factura/internal/core/types"
	"factura/internal/domain/catalogs/product"
	"factura/internal/domain/documents/business"
	"factura/pkg/logger"
)

// Service applies stock effects of document lines. Transactions are owned
// by the caller.
type Service struct {
	repo     Repository
	products product.Repository
	now      func() time.Time
}

func NewService(repo Repository, products product.Repository) *Service {
	return &Service{repo: repo, products: products, now: time.Now}
}

// Delta returns the signed quantity a line of quantity qty moves when a
// document of kind to is generated from one of kind from. Goods already
// moved by the source document are not moved twice.
func Delta(from, to business.Kind, qty float64) types.Quantity {
	return effectQuantity(to.GeneratedStockEffect(from), qty)
}

func effectQuantity(effect int, qty float64) types.Quantity {
	if effect == 0 {
		return 0
	}
	return types.NewQuantityFromFloat64(qty * float64(effect))
}

// ApplyGeneratedLine updates stock for one line of doc, generated from a
// document of kind from, against doc's warehouse. Free-text lines and
// products flagged NoStock are skipped.
func (s *Service) ApplyGeneratedLine(ctx context.Context, doc *business.Document, from business.Kind, line business.Line) error {
	m, err := s.movementFor(ctx, doc, line, Delta(from, doc.Kind, line.Quantity))
	if err != nil || m == nil {
		return err
	}
	return s.record(ctx, []Movement{*m})
}

// ApplyDocument records the stock effect of the lines of a new document.
// Each line moves stock by its own StockEffect.
func (s *Service) ApplyDocument(ctx context.Context, doc *business.Document, lines []business.Line) error {
	movements, err := s.lineMovements(ctx, doc, lines)
	if err != nil {
		return err
	}
	return s.record(ctx, movements)
}

// ReplaceDocument makes the document's recorded stock match lines: the net
// quantity moved so far per warehouse and product is reversed, then lines
// are applied. Movements are appended, never deleted.
func (s *Service) ReplaceDocument(ctx context.Context, doc *business.Document, lines []business.Line) error {
	prior, err := s.repo.GetMovementsByDocument(ctx, doc.Kind.String(), doc.ID)
	if err != nil {
		return fmt.Errorf("get movements: %w", err)
	}

	movements := s.reversals(doc, prior)

	applied, err := s.lineMovements(ctx, doc, lines)
	if err != nil {
		return err
	}
	return s.record(ctx, append(movements, applied...))
}

type stockKey struct{ warehouse, reference string }

// reversals returns one movement per warehouse and product cancelling the
// net quantity of prior, in first-seen order.
func (s *Service) reversals(doc *business.Document, prior []Movement) []Movement {
	var (
		order []stockKey
		net   = make(map[stockKey]types.Quantity)
	)
	for _, m := range prior {
		k := stockKey{m.Warehouse, m.Reference}
		if _, ok := net[k]; !ok {
			order = append(order, k)
		}
		net[k] += m.Quantity
	}

	now := s.now().UTC()
	var out []Movement
	for _, k := range order {
		if net[k].IsZero() {
			continue
		}
		out = append(out, Movement{
			ID:           id.New(),
			DocumentKind: doc.Kind.String(),
			DocumentID:   doc.ID,
			Warehouse:    k.warehouse,
			Reference:    k.reference,
			Quantity:     net[k].Neg(),
			Period:       doc.Date,
			CreatedAt:    now,
		})
	}
	return out
}

func (s *Service) lineMovements(ctx context.Context, doc *business.Document, lines []business.Line) ([]Movement, error) {
	var out []Movement
	for i, line := range lines {
		m, err := s.movementFor(ctx, doc, line, effectQuantity(line.StockEffect, line.Quantity))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

// movementFor returns nil when qty is zero, the line has no product or the
// product does not keep stock.
func (s *Service) movementFor(ctx context.Context, doc *business.Document, line business.Line, qty types.Quantity) (*Movement, error) {
	if qty.IsZero() || line.Reference == "" {
		return nil, nil
	}
	if doc.WarehouseCode == "" {
		return nil, apperror.NewValidation("warehouse is required to move stock").
			WithDetail("field", "codalmacen")
	}

	p, err := s.products.Get(ctx, line.Reference)
	if err != nil {
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "stock skipped for unknown product", "referencia", line.Reference)
			return nil, nil
		}
		return nil, fmt.Errorf("get product %s: %w", line.Reference, err)
	}
	if p.NoStock {
		return nil, nil
	}

	return &Movement{
		ID:           id.New(),
		DocumentKind: doc.Kind.String(),
		DocumentID:   doc.ID,
		LineID:       line.ID,
		Warehouse:    doc.WarehouseCode,
		Reference:    line.Reference,
		Quantity:     qty,
		Period:       doc.Date,
		CreatedAt:    s.now().UTC(),
	}, nil
}

func (s *Service) record(ctx context.Context, movements []Movement) error {
	if len(movements) == 0 {
		return nil
	}
	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}
	for _, m := range movements {
		logger.Debug(ctx, "stock moved",
			"codalmacen", m.Warehouse,
			"referencia", m.Reference,
			"quantity", m.Quantity.String(),
		)
	}
	return nil
}

// GetBalance returns the stock of a product in a warehouse.
func (s *Service) GetBalance(ctx context.Context, warehouse, reference string) (Balance, error) {
	return s.repo.GetBalance(ctx, warehouse, reference)
}

// GetWarehouseStock returns all products with stock in a warehouse.
func (s *Service) GetWarehouseStock(ctx context.Context, warehouse string) ([]Balance, error) {
	return s.repo.GetBalancesByWarehouse(ctx, warehouse, true)
}

// GetDocumentMovements returns the movements recorded for a document.
func (s *Service) GetDocumentMovements(ctx context.Context, kind business.Kind, docID int64) ([]Movement, error) {
	return s.repo.GetMovementsByDocument(ctx, kind.String(), docID)
}
