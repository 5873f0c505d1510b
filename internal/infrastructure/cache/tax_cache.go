package cache

import (
	"context"
	"sync"

	"factura/internal/domain"
	"factura/internal/domain/catalogs/tax"
	"factura/pkg/logger"
)

// TaxTable is the payload the impuestos trigger sends.
const TaxTable = "impuestos"

// TaxCache serves tax.Repository.All from memory. The resolver reads the
// whole tax table on every recalculation, so the list is loaded once and
// kept until a write or a notification drops it.
type TaxCache struct {
	repo tax.Repository

	mu     sync.RWMutex
	all    []*tax.Tax
	loaded bool
	// gen is bumped by Invalidate. A load only stores its result when gen
	// did not move while it ran.
	gen uint64
}

func NewTaxCache(repo tax.Repository) *TaxCache {
	return &TaxCache{repo: repo}
}

// Invalidate drops the cached list; the next All reloads it.
func (c *TaxCache) Invalidate() {
	c.mu.Lock()
	c.all = nil
	c.loaded = false
	c.gen++
	c.mu.Unlock()
}

// HandleNotification is an InvalidationListener. An empty payload means
// the listener reconnected and every table is suspect.
func (c *TaxCache) HandleNotification(channel, payload string) {
	if channel != Channel {
		return
	}
	if payload == "" || payload == TaxTable {
		c.Invalidate()
		logger.Debug(context.Background(), "tax cache invalidated", "payload", payload)
	}
}

// All returns copies so callers may sort or mutate freely.
func (c *TaxCache) All(ctx context.Context) ([]*tax.Tax, error) {
	c.mu.RLock()
	if c.loaded {
		out := cloneTaxes(c.all)
		c.mu.RUnlock()
		return out, nil
	}
	gen := c.gen
	c.mu.RUnlock()

	all, err := c.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.all = cloneTaxes(all)
		c.loaded = true
	}
	c.mu.Unlock()

	return cloneTaxes(all), nil
}

// Get looks in the loaded list first and falls back to the repository.
func (c *TaxCache) Get(ctx context.Context, code string) (*tax.Tax, error) {
	c.mu.RLock()
	if c.loaded {
		for _, t := range c.all {
			if t.Code == code {
				cp := *t
				c.mu.RUnlock()
				return &cp, nil
			}
		}
	}
	c.mu.RUnlock()
	return c.repo.Get(ctx, code)
}

func (c *TaxCache) Save(ctx context.Context, t *tax.Tax) error {
	if err := c.repo.Save(ctx, t); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

func (c *TaxCache) Delete(ctx context.Context, code string) error {
	if err := c.repo.Delete(ctx, code); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

func (c *TaxCache) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*tax.Tax], error) {
	return c.repo.List(ctx, filter)
}

func cloneTaxes(in []*tax.Tax) []*tax.Tax {
	out := make([]*tax.Tax, len(in))
	for i, t := range in {
		cp := *t
		out[i] = &cp
	}
	return out
}

var _ tax.Repository = (*TaxCache)(nil)
