// Package main is the entry point for the factura API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"factura/internal/config"
	"factura/internal/domain"
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
	"factura/internal/infrastructure/cache"
	v1 "factura/internal/infrastructure/http/v1"
	"factura/internal/infrastructure/metrics"
	"factura/internal/infrastructure/storage/postgres"
	"factura/internal/infrastructure/storage/postgres/catalog_repo"
	"factura/internal/infrastructure/storage/postgres/document_repo"
	"factura/internal/infrastructure/storage/postgres/register_repo"
	"factura/migrations"
	"factura/pkg/logger"
	"factura/pkg/numerator"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting factura server", "env", cfg.Environment, "version", version)

	// --- Database ---
	if cfg.AutoMigrate {
		if err := postgres.Migrate(migrations.FS, cfg.DatabaseURL); err != nil {
			log.Fatalw("failed to migrate database", "error", err)
		}
		log.Info("database schema up to date")
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)

	auditService, err := postgres.NewAuditService(txm)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}
	defer auditService.Close()

	// --- Repositories ---
	var taxRepo tax.Repository = catalog_repo.NewTaxRepo(txm)
	if cfg.CatalogCache {
		taxCache := cache.NewTaxCache(taxRepo)
		listener := cache.NewListener(pool.Pool)
		listener.OnInvalidation(taxCache.HandleNotification)
		listener.Start(ctx)
		defer listener.Stop()
		taxRepo = taxCache
	}
	productRepo := catalog_repo.NewProductRepo(txm)
	seriesRepo := catalog_repo.NewSeriesRepo(txm)
	counterpartyRepo := catalog_repo.NewCounterpartyRepo(txm)
	companyRepo := catalog_repo.NewCompanyRepo(txm)
	documentRepo := document_repo.NewBusinessRepo(txm)
	stockRepo := register_repo.NewStockRepo(txm)

	// Strict numbers follow the document transaction, cached ranges go to the pool.
	numbering := numerator.NewWithProvider(func(ctx context.Context) numerator.Querier {
		return txm.GetQuerier(ctx)
	}, pool)

	// --- Metrics ---
	var (
		docMetrics     documents.Metrics
		metricsHandler http.Handler
		instrument     gin.HandlerFunc
	)
	if cfg.MetricsEnabled {
		collector := metrics.New(prometheus.DefaultRegisterer)
		metrics.RegisterPool(prometheus.DefaultRegisterer, pool.Stats)
		docMetrics = collector
		metricsHandler = promhttp.Handler()
		instrument = collector.GinMiddleware()
	}

	// --- Services ---
	calculator := totals.NewCalculator(totals.Catalogs{
		Taxes:     taxRepo,
		Products:  productRepo,
		Subjects:  counterpartyRepo,
		Companies: companyRepo,
		Series:    seriesRepo,
	}, totals.DefaultTaxPolicy(cfg.DefaultTaxPolicy), cfg.DecimalPlaces)

	stockService := stock.NewService(stockRepo, productRepo)

	gen := generator.New(generator.Config{
		Repo:      documentRepo,
		TxManager: txm,
		Numerator: numbering,
		Stock:     stockService,
		Audit:     auditService,
	})

	documentService := documents.NewService(documents.Config{
		Repo:       documentRepo,
		Calculator: calculator,
		Generator:  gen,
		Numerator:  numbering,
		Headers:    business.NewHeaderResolver(companyRepo),
		TxManager:  txm,
		Audit:      auditService,
		Metrics:    docMetrics,
		Stock:      stockService,
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:    log,
		DB:        pool,
		Version:   version,
		Documents: documentService,
		Stock:     stockRepo,
		Taxes: domain.NewCatalogService(domain.CatalogServiceConfig[*tax.Tax, string]{
			Repo: taxRepo, TxManager: txm, EntityName: "tax",
		}),
		Products: domain.NewCatalogService(domain.CatalogServiceConfig[*product.Product, string]{
			Repo: productRepo, TxManager: txm, EntityName: "product",
		}),
		Series: domain.NewCatalogService(domain.CatalogServiceConfig[*series.Series, string]{
			Repo: seriesRepo, TxManager: txm, EntityName: "series",
		}),
		Counterparties: counterparty.NewService(counterpartyRepo, txm),
		Companies:      organization.NewService(companyRepo, txm),
		Metrics:        metricsHandler,
		Instrument:     instrument,
		Debug:          cfg.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      gzhttp.GzipHandler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	pool.LogStats(ctx)
	log.Info("server stopped")
}
