package memory

import (
	"context"
	"sort"
	"sync"

	"factura/internal/domain/registers/stock"
)

type balanceKey struct{ warehouse, reference string }

// Stock is an in-memory stock.Repository.
type Stock struct {
	mu        sync.Mutex
	movements []stock.Movement
	balances  map[balanceKey]stock.Balance
}

func NewStock() *Stock {
	return &Stock{balances: make(map[balanceKey]stock.Balance)}
}

func (r *Stock) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range movements {
		r.movements = append(r.movements, m)
		k := balanceKey{m.Warehouse, m.Reference}
		b := r.balances[k]
		b.Warehouse, b.Reference = m.Warehouse, m.Reference
		b.Quantity += m.Quantity
		at := m.CreatedAt
		b.LastMovementAt = &at
		r.balances[k] = b
	}
	return nil
}

func (r *Stock) GetMovementsByDocument(ctx context.Context, kind string, docID int64) ([]stock.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []stock.Movement
	for _, m := range r.movements {
		if m.DocumentKind == kind && m.DocumentID == docID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *Stock) GetBalance(ctx context.Context, warehouse, reference string) (stock.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.balances[balanceKey{warehouse, reference}]; ok {
		return b, nil
	}
	return stock.Balance{Warehouse: warehouse, Reference: reference}, nil
}

func (r *Stock) GetBalancesByWarehouse(ctx context.Context, warehouse string, excludeZero bool) ([]stock.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []stock.Balance
	for k, b := range r.balances {
		if k.warehouse != warehouse || (excludeZero && b.Quantity.IsZero()) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

// Snapshot implements Snapshotter.
func (r *Stock) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	movements := append([]stock.Movement(nil), r.movements...)
	balances := make(map[balanceKey]stock.Balance, len(r.balances))
	for k, v := range r.balances {
		balances[k] = v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.movements = movements
		r.balances = balances
	}
}

var _ stock.Repository = (*Stock)(nil)
