// Package memory provides in-memory repositories for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"factura/internal/core/apperror"
	"factura/internal/core/entity"
	"factura/internal/domain"
	"factura/internal/domain/catalogs/counterparty"
	"factura/internal/domain/catalogs/organization"
	"factura/internal/domain/catalogs/product"
	"factura/internal/domain/catalogs/series"
	"factura/internal/domain/catalogs/tax"
)

// Catalog is a map-backed domain.CatalogRepository.
type Catalog[T entity.Keyed[K], K comparable] struct {
	mu    sync.RWMutex
	name  string
	items map[K]T
	order []K

	// Err, when set, is returned by every call.
	Err error
}

func NewCatalog[T entity.Keyed[K], K comparable](name string, items ...T) *Catalog[T, K] {
	c := &Catalog[T, K]{name: name, items: make(map[K]T)}
	for _, it := range items {
		_ = c.Save(context.Background(), it)
	}
	return c
}

func (c *Catalog[T, K]) Get(ctx context.Context, key K) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero T
	if c.Err != nil {
		return zero, c.Err
	}
	it, ok := c.items[key]
	if !ok {
		return zero, apperror.NewNotFound(c.name, key)
	}
	return it, nil
}

func (c *Catalog[T, K]) Save(ctx context.Context, e T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	k := e.Key()
	if _, ok := c.items[k]; !ok {
		c.order = append(c.order, k)
	}
	c.items[k] = e
	return nil
}

func (c *Catalog[T, K]) Delete(ctx context.Context, key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	if _, ok := c.items[key]; !ok {
		return apperror.NewNotFound(c.name, key)
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// List matches Search against the key only.
func (c *Catalog[T, K]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	all, err := c.All(ctx)
	if err != nil {
		return domain.ListResult[T]{}, err
	}
	var matched []T
	for _, it := range all {
		if filter.Search == "" || strings.Contains(strings.ToLower(fmt.Sprint(it.Key())), strings.ToLower(filter.Search)) {
			matched = append(matched, it)
		}
	}
	res := domain.ListResult[T]{TotalCount: int64(len(matched)), Limit: filter.Limit, Offset: filter.Offset}
	if filter.Offset < len(matched) {
		matched = matched[filter.Offset:]
		if filter.Limit > 0 && filter.Limit < len(matched) {
			matched = matched[:filter.Limit]
		}
		res.Items = matched
	}
	return res, nil
}

// All returns items in insertion order.
func (c *Catalog[T, K]) All(ctx context.Context) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]T, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.items[k])
	}
	return out, nil
}

// Taxes is an in-memory tax.Repository.
type Taxes struct{ *Catalog[*tax.Tax, string] }

func NewTaxes(items ...*tax.Tax) *Taxes {
	return &Taxes{NewCatalog[*tax.Tax, string]("tax", items...)}
}

type Products struct{ *Catalog[*product.Product, string] }

func NewProducts(items ...*product.Product) *Products {
	return &Products{NewCatalog[*product.Product, string]("product", items...)}
}

type Counterparties struct{ *Catalog[*counterparty.Counterparty, string] }

func NewCounterparties(items ...*counterparty.Counterparty) *Counterparties {
	return &Counterparties{NewCatalog[*counterparty.Counterparty, string]("counterparty", items...)}
}

type SeriesStore struct{ *Catalog[*series.Series, string] }

func NewSeries(items ...*series.Series) *SeriesStore {
	return &SeriesStore{NewCatalog[*series.Series, string]("series", items...)}
}

// Companies is an in-memory organization.Repository.
type Companies struct{ *Catalog[*organization.Company, int64] }

func NewCompanies(items ...*organization.Company) *Companies {
	return &Companies{NewCatalog[*organization.Company, int64]("company", items...)}
}

// GetDefault returns the company flagged default, or the lowest id.
func (c *Companies) GetDefault(ctx context.Context) (*organization.Company, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	for _, co := range all {
		if co.IsDefault {
			return co, nil
		}
	}
	if len(all) > 0 {
		return all[0], nil
	}
	return nil, apperror.NewNotFound("company", "default")
}

var (
	_ tax.Repository          = (*Taxes)(nil)
	_ product.Repository      = (*Products)(nil)
	_ counterparty.Repository = (*Counterparties)(nil)
	_ series.Repository       = (*SeriesStore)(nil)
	_ organization.Repository = (*Companies)(nil)
)
