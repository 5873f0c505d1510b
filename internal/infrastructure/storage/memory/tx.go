package memory

import (
	"context"

	"factura/internal/core/tx"
	"factura/internal/domain/documents/business"
)

// Snapshotter is a store that can save and restore its full state.
type Snapshotter interface {
	Snapshot() func()
}

type txKey struct{}

// TxManager gives in-memory stores all-or-nothing semantics: state is
// snapshotted on the outermost call and restored when fn fails.
type TxManager struct {
	stores []Snapshotter

	Commits   int
	Rollbacks int
}

func NewTxManager(stores ...Snapshotter) *TxManager {
	return &TxManager{stores: stores}
}

func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	restores := make([]func(), 0, len(m.stores))
	for _, s := range m.stores {
		restores = append(restores, s.Snapshot())
	}

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		for _, restore := range restores {
			restore()
		}
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ tx.ReadOnlyManager = (*TxManager)(nil)

// Snapshot implements Snapshotter.
func (r *Documents) Snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	nextID, lineID, inserted := r.nextID, r.lineID, r.inserted
	docs := make(map[docKey]business.Document, len(r.docs))
	for k, v := range r.docs {
		docs[k] = v
	}
	lines := make(map[docKey][]business.Line, len(r.lines))
	for k, v := range r.lines {
		lines[k] = append([]business.Line(nil), v...)
	}

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.nextID, r.lineID, r.inserted = nextID, lineID, inserted
		r.docs = docs
		r.lines = lines
	}
}
