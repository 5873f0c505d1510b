// Package totals recalculates business document lines and aggregate totals.
package totals

import (
	"context"
	"fmt"
	"sort"

	"factura/internal/core/apperror"
	"factura/internal/core/diag"
	"factura/internal/domain/catalogs/tax"
)

// DefaultTaxPolicy decides what happens when a line needs the default tax and
// no tax is flagged default.
type DefaultTaxPolicy string

const (
	// PolicyZero applies a 0 rate and records a warning.
	PolicyZero DefaultTaxPolicy = "zero"
	// PolicyStrict fails the recalculation with apperror.CodeNoDefaultTax.
	PolicyStrict DefaultTaxPolicy = "strict"
)

// Rate is a resolved tax: the code it came from and its rates.
type Rate struct {
	Code    string
	IVA     float64
	Recargo float64
}

// TaxResolver turns tax codes into rates.
type TaxResolver struct {
	repo   tax.Repository
	policy DefaultTaxPolicy
}

func NewTaxResolver(repo tax.Repository, policy DefaultTaxPolicy) *TaxResolver {
	if policy != PolicyStrict {
		policy = PolicyZero
	}
	return &TaxResolver{repo: repo, policy: policy}
}

// Snapshot loads every tax once for a recalculation pass. A failed load
// yields an empty table and an error diagnostic.
func (r *TaxResolver) Snapshot(ctx context.Context, col *diag.Collector) *TaxTable {
	all, err := r.repo.All(ctx)
	if err != nil {
		col.Error("taxes could not be loaded", "error", err.Error())
		all = nil
	}
	return newTaxTable(all, r.policy)
}

// TaxTable is a read-only view of the taxes valid for one pass.
type TaxTable struct {
	byCode map[string]*tax.Tax
	sorted []*tax.Tax
	policy DefaultTaxPolicy
}

func newTaxTable(all []*tax.Tax, policy DefaultTaxPolicy) *TaxTable {
	t := &TaxTable{
		byCode: make(map[string]*tax.Tax, len(all)),
		sorted: make([]*tax.Tax, 0, len(all)),
		policy: policy,
	}
	for _, x := range all {
		if x == nil {
			continue
		}
		t.byCode[x.Code] = x
		t.sorted = append(t.sorted, x)
	}
	sort.Slice(t.sorted, func(i, j int) bool { return t.sorted[i].Code < t.sorted[j].Code })
	return t
}

// Default returns the first tax flagged default, in code order.
func (t *TaxTable) Default() (*tax.Tax, bool) {
	for _, x := range t.sorted {
		if x.IsDefault {
			return x, true
		}
	}
	return nil, false
}

// Resolve returns the rate for a line.
//
// The first non-empty code of lineCode and productCode is looked up; an
// unknown code resolves to rate 0 with a warning. With both codes empty the
// default tax applies. exempt forces both rates to 0 while keeping the code.
func (t *TaxTable) Resolve(lineCode, productCode string, exempt bool, col *diag.Collector) (Rate, error) {
	rate, err := t.resolve(lineCode, productCode, col)
	if err != nil {
		return Rate{}, err
	}
	if exempt {
		rate.IVA = 0
		rate.Recargo = 0
	}
	return rate, nil
}

func (t *TaxTable) resolve(lineCode, productCode string, col *diag.Collector) (Rate, error) {
	code := lineCode
	if code == "" {
		code = productCode
	}

	if code != "" {
		x, ok := t.byCode[code]
		if !ok {
			col.Warning("tax not found", "codimpuesto", code)
			return Rate{Code: code}, nil
		}
		return Rate{Code: x.Code, IVA: x.IVA, Recargo: x.Recargo}, nil
	}

	return t.ResolveDefault(col)
}

// ResolveDefault returns the default tax rate, honouring the policy when none is set.
func (t *TaxTable) ResolveDefault(col *diag.Collector) (Rate, error) {
	x, ok := t.Default()
	if ok {
		return Rate{Code: x.Code, IVA: x.IVA, Recargo: x.Recargo}, nil
	}
	if t.policy == PolicyStrict {
		return Rate{}, apperror.NewNoDefaultTax()
	}
	col.Warning("no default tax configured, using rate 0")
	return Rate{}, nil
}

func (r Rate) String() string {
	return fmt.Sprintf("%s(%v/%v)", r.Code, r.IVA, r.Recargo)
}
