// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"factura/internal/config"
	"factura/internal/core/numerator"
	"factura/internal/domain/catalogs/counterparty"
	"factura/internal/domain/catalogs/organization"
	"factura/internal/domain/catalogs/product"
	"factura/internal/domain/catalogs/series"
	"factura/internal/domain/catalogs/tax"
	"factura/internal/domain/documents"
	"factura/internal/domain/documents/business"
	"factura/internal/domain/documents/generator"
	"factura/internal/domain/documents/totals"
	"factura/internal/domain/registers/stock"
	"factura/internal/infrastructure/storage/postgres"
	"factura/internal/infrastructure/storage/postgres/catalog_repo"
	"factura/internal/infrastructure/storage/postgres/document_repo"
	"factura/internal/infrastructure/storage/postgres/register_repo"
	"factura/migrations"
	"factura/pkg/logger"
	pgnumerator "factura/pkg/numerator"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	if err := postgres.Migrate(migrations.FS, cfg.DatabaseURL); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)
	repos := seedRepos{
		taxes:          catalog_repo.NewTaxRepo(txm),
		products:       catalog_repo.NewProductRepo(txm),
		series:         catalog_repo.NewSeriesRepo(txm),
		counterparties: catalog_repo.NewCounterpartyRepo(txm),
		companies:      catalog_repo.NewCompanyRepo(txm),
	}

	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return seedCatalogs(ctx, repos)
	})
	if err != nil {
		log.Fatalw("failed to seed catalogs", "error", err)
	}
	log.Info("catalogs seeded")

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		numbering := pgnumerator.NewWithProvider(func(ctx context.Context) pgnumerator.Querier {
			return txm.GetQuerier(ctx)
		}, pool)
		if err := seedDemoDocuments(ctx, txm, repos, numbering, cfg); err != nil {
			log.Fatalw("failed to seed demo documents", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

type seedRepos struct {
	taxes          *catalog_repo.TaxRepo
	products       *catalog_repo.ProductRepo
	series         *catalog_repo.SeriesRepo
	counterparties *catalog_repo.CounterpartyRepo
	companies      *catalog_repo.CompanyRepo
}

func seedCatalogs(ctx context.Context, r seedRepos) error {
	taxes := []*tax.Tax{
		{Code: "IVA0", Description: "IVA 0%", IVA: 0, Recargo: 0},
		{Code: "IVA4", Description: "IVA superreducido", IVA: 4, Recargo: 0.5},
		{Code: "IVA10", Description: "IVA reducido", IVA: 10, Recargo: 1.4},
		{Code: "IVA21", Description: "IVA general", IVA: 21, Recargo: 5.2, IsDefault: true},
	}
	for _, t := range taxes {
		if err := r.taxes.Save(ctx, t); err != nil {
			return fmt.Errorf("tax %s: %w", t.Code, err)
		}
	}

	for _, s := range []*series.Series{
		{Code: "A", Description: "General"},
		{Code: "R", Description: "Rectificativas"},
		{Code: "X", Description: "Exportación", SinIVA: true},
	} {
		if err := r.series.Save(ctx, s); err != nil {
			return fmt.Errorf("series %s: %w", s.Code, err)
		}
	}

	if err := r.companies.Save(ctx, &organization.Company{
		ID: 1, Name: "Empresa demo", DefaultWarehouse: "ALG", IsDefault: true,
	}); err != nil {
		return fmt.Errorf("company: %w", err)
	}

	for _, c := range []*counterparty.Counterparty{
		{Code: "1", Name: "Cliente contado", Type: counterparty.TypeCustomer},
		{Code: "2", Name: "Comercio minorista", Type: counterparty.TypeCustomer, Recargo: true},
		{Code: "3", Name: "Asesoría externa", Type: counterparty.TypeSupplier, IRPF: 15},
		{Code: "4", Name: "Distribuciones", Type: counterparty.TypeBoth},
	} {
		if err := r.counterparties.Save(ctx, c); err != nil {
			return fmt.Errorf("counterparty %s: %w", c.Code, err)
		}
	}

	for _, p := range []*product.Product{
		{Reference: "CAFE1KG", Description: "Café en grano 1kg", Price: 14.5, TaxCode: "IVA10"},
		{Reference: "PAN", Description: "Pan de molde", Price: 2.1, TaxCode: "IVA4"},
		{Reference: "TAZA", Description: "Taza cerámica", Price: 6},
		{Reference: "HORA", Description: "Hora de consultoría", Price: 60, NoStock: true},
	} {
		if err := r.products.Save(ctx, p); err != nil {
			return fmt.Errorf("product %s: %w", p.Reference, err)
		}
	}
	return nil
}

// seedDemoDocuments creates a customer estimation and converts it into an order.
func seedDemoDocuments(ctx context.Context, txm *postgres.TxManager, r seedRepos, numbering numerator.Generator, cfg config.Config) error {
	docs := document_repo.NewBusinessRepo(txm)
	stockService := stock.NewService(register_repo.NewStockRepo(txm), r.products)

	svc := documents.NewService(documents.Config{
		Repo: docs,
		Calculator: totals.NewCalculator(totals.Catalogs{
			Taxes:     r.taxes,
			Products:  r.products,
			Subjects:  r.counterparties,
			Companies: r.companies,
			Series:    r.series,
		}, totals.DefaultTaxPolicy(cfg.DefaultTaxPolicy), cfg.DecimalPlaces),
		Generator: generator.New(generator.Config{
			Repo:      docs,
			TxManager: txm,
			Numerator: numbering,
			Stock:     stockService,
		}),
		Numerator: numbering,
		Headers:   business.NewHeaderResolver(r.companies),
		TxManager: txm,
		Stock:     stockService,
	})

	estimation := &business.Document{Kind: business.CustomerEstimation, SeriesCode: "A", SubjectCode: "2"}
	res, err := svc.Create(ctx, estimation, []business.FormLine{
		{"referencia": "CAFE1KG", "cantidad": 3},
		{"referencia": "TAZA", "cantidad": 6, "dtopor": 10},
		{"descripcion": "Portes", "cantidad": 1, "pvpunitario": 8.5},
	})
	if err != nil {
		return fmt.Errorf("create estimation: %w", err)
	}
	logger.Info(ctx, "demo estimation created", "codigo", estimation.Code, "total", res.Total)

	order, err := svc.Generate(ctx, estimation.Kind, estimation.ID, business.CustomerOrder)
	if err != nil {
		return fmt.Errorf("generate order: %w", err)
	}
	logger.Info(ctx, "demo order generated", "codigo", order.Code, "total", order.Total)
	return nil
}
