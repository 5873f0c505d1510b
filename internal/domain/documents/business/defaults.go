package business

import (
	"context"
	"time"

	"factura/internal/domain/catalogs/organization"
)

// DefaultCurrency is used when neither the document nor the caller names one.
const DefaultCurrency = "EUR"

// HeaderResolver fills header fields the caller left empty.
type HeaderResolver struct {
	companies organization.Repository
	now       func() time.Time
}

func NewHeaderResolver(companies organization.Repository) *HeaderResolver {
	return &HeaderResolver{companies: companies, now: time.Now}
}

// Resolve applies, in order: explicit value, company default, system default.
// Company lookups that fail leave the fields untouched.
func (r *HeaderResolver) Resolve(ctx context.Context, doc *Document) {
	if doc.Date.IsZero() {
		doc.StampNow(r.now())
	}
	if doc.CurrencyCode == "" {
		doc.CurrencyCode = DefaultCurrency
	}
	if doc.ConversionRate == 0 {
		doc.ConversionRate = 1
	}

	if doc.CompanyID == 0 || doc.WarehouseCode == "" {
		var (
			company *organization.Company
			err     error
		)
		if doc.CompanyID == 0 {
			company, err = r.companies.GetDefault(ctx)
		} else {
			company, err = r.companies.Get(ctx, doc.CompanyID)
		}
		if err != nil || company == nil {
			return
		}
		if doc.CompanyID == 0 {
			doc.CompanyID = company.ID
		}
		if doc.WarehouseCode == "" {
			doc.WarehouseCode = company.DefaultWarehouse
		}
	}
}
