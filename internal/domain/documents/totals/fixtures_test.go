package totals

import (
	"factura/internal/domain/catalogs/counterparty"
	"factura/internal/domain/catalogs/organization"
	"factura/internal/domain/catalogs/product"
	"factura/internal/domain/catalogs/series"
	"factura/internal/domain/catalogs/tax"
	"factura/internal/domain/documents/business"
	"factura/internal/infrastructure/storage/memory"
)

type fixture struct {
	taxes     *memory.Taxes
	products  *memory.Products
	subjects  *memory.Counterparties
	companies *memory.Companies
	series    *memory.SeriesStore
}

func newFixture() *fixture {
	return &fixture{
		taxes: memory.NewTaxes(
			&tax.Tax{Code: "IVA4", IVA: 4, Recargo: 0.5},
			&tax.Tax{Code: "IVA21", IVA: 21, Recargo: 5.2, IsDefault: true},
			&tax.Tax{Code: "IVA10", IVA: 10, Recargo: 1.4},
		),
		products: memory.NewProducts(
			&product.Product{Reference: "P1", Description: "Coffee beans", Price: 12.5, TaxCode: "IVA10"},
			&product.Product{Reference: "P2", Description: "Consulting hour", Price: 60},
		),
		subjects: memory.NewCounterparties(
			&counterparty.Counterparty{Code: "C1", Name: "Plain customer", Type: counterparty.TypeCustomer},
			&counterparty.Counterparty{Code: "C2", Name: "Retailer", Type: counterparty.TypeCustomer, Recargo: true, IRPF: 15},
			&counterparty.Counterparty{Code: "S1", Name: "Supplier", Type: counterparty.TypeSupplier, IRPF: 7, Recargo: true},
		),
		companies: memory.NewCompanies(
			&organization.Company{ID: 1, Name: "Main", RecEquivalencia: true, DefaultWarehouse: "ALG", IsDefault: true},
		),
		series: memory.NewSeries(
			&series.Series{Code: "A", Description: "General"},
			&series.Series{Code: "X", Description: "Exports", SinIVA: true},
		),
	}
}

func (f *fixture) catalogs() Catalogs {
	return Catalogs{
		Taxes:     f.taxes,
		Products:  f.products,
		Subjects:  f.subjects,
		Companies: f.companies,
		Series:    f.series,
	}
}

func (f *fixture) calculator(policy DefaultTaxPolicy) *Calculator {
	return NewCalculator(f.catalogs(), policy, 2)
}

func newSalesDoc(subject string) *business.Document {
	return &business.Document{
		Kind:        business.CustomerInvoice,
		SeriesCode:  "A",
		SubjectCode: subject,
		CompanyID:   1,
	}
}

func storedDoc(seriesCode string, lines ...business.Line) (*business.Document, []business.Line) {
	doc := &business.Document{
		ID:          7,
		Kind:        business.CustomerInvoice,
		SeriesCode:  seriesCode,
		SubjectCode: "C1",
		CompanyID:   1,
	}
	for i := range lines {
		lines[i].DocumentID = doc.ID
		lines[i].Order = i + 1
	}
	return doc, lines
}

func stored(code string, iva, recargo, irpf, qty, price float64) business.Line {
	return business.Line{
		Description: "item",
		TaxCode:     code,
		IVA:         iva,
		Recargo:     recargo,
		IRPF:        irpf,
		Quantity:    qty,
		UnitPrice:   price,
	}
}
