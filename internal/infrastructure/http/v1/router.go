// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"factura/internal/domain/catalogs/counterparty"
	"factura/internal/domain/catalogs/organization"
	"factura/internal/domain/catalogs/product"
	"factura/internal/domain/catalogs/series"
	"factura/internal/domain/catalogs/tax"
	"factura/internal/domain/registers/stock"
	"factura/internal/infrastructure/http/v1/handlers"
	"factura/internal/infrastructure/http/v1/middleware"
	"factura/pkg/logger"
)

// RouterConfig holds router dependencies. Nil catalog services and a nil
// Stock skip the matching routes.
type RouterConfig struct {
	Logger  *logger.Logger
	DB      handlers.Pinger
	Version string

	Documents handlers.DocumentService
	Stock     stock.Repository

	Taxes          handlers.CatalogService[*tax.Tax, string]
	Products       handlers.CatalogService[*product.Product, string]
	Series         handlers.CatalogService[*series.Series, string]
	Counterparties handlers.CatalogService[*counterparty.Counterparty, string]
	Companies      handlers.CatalogService[*organization.Company, int64]

	// Metrics is served at /metrics when set; Instrument wraps every request.
	Metrics    http.Handler
	Instrument gin.HandlerFunc

	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Instrument != nil {
		router.Use(cfg.Instrument)
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	v1 := router.Group("/api/v1")
	{
		registerDocumentRoutes(v1, cfg)
		registerCatalogRoutes(v1, cfg)
		registerRegisterRoutes(v1, cfg)
	}

	return router
}

func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Documents == nil {
		return
	}
	h := handlers.NewDocumentHandler(handlers.NewBaseHandler(), cfg.Documents)

	docs := rg.Group("/documents/:kind")
	docs.GET("", h.List)
	docs.POST("", h.Create)
	docs.POST("/recalculate", h.RecalculateForm)
	docs.GET("/:id", h.Get)
	docs.PUT("/:id/lines", h.SaveLines)
	docs.POST("/:id/recalculate", h.Recalculate)
	docs.POST("/:id/generate", h.Generate)

	if cfg.Stock != nil {
		sh := handlers.NewStockHandler(handlers.NewBaseHandler(), cfg.Stock)
		docs.GET("/:id/movements", sh.GetMovements)
	}
}

func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	base := handlers.NewBaseHandler()

	if cfg.Taxes != nil {
		RegisterCatalogRoutes(catalogs.Group("/taxes"), handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*tax.Tax, string]{
			Service: cfg.Taxes, EntityName: "tax", New: func() *tax.Tax { return &tax.Tax{} }, ParseKey: handlers.StringKey,
		}))
	}
	if cfg.Products != nil {
		RegisterCatalogRoutes(catalogs.Group("/products"), handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*product.Product, string]{
			Service: cfg.Products, EntityName: "product", New: func() *product.Product { return &product.Product{} }, ParseKey: handlers.StringKey,
		}))
	}
	if cfg.Series != nil {
		RegisterCatalogRoutes(catalogs.Group("/series"), handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*series.Series, string]{
			Service: cfg.Series, EntityName: "series", New: func() *series.Series { return &series.Series{} }, ParseKey: handlers.StringKey,
		}))
	}
	if cfg.Counterparties != nil {
		RegisterCatalogRoutes(catalogs.Group("/counterparties"), handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*counterparty.Counterparty, string]{
			Service: cfg.Counterparties, EntityName: "counterparty", New: func() *counterparty.Counterparty { return &counterparty.Counterparty{} }, ParseKey: handlers.StringKey,
		}))
	}
	if cfg.Companies != nil {
		RegisterCatalogRoutes(catalogs.Group("/companies"), handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*organization.Company, int64]{
			Service: cfg.Companies, EntityName: "company", New: func() *organization.Company { return &organization.Company{} }, ParseKey: handlers.Int64Key,
		}))
	}
}

func registerRegisterRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Stock == nil {
		return
	}
	h := handlers.NewStockHandler(handlers.NewBaseHandler(), cfg.Stock)
	rg.GET("/registers/stock/balances", h.GetBalances)
}
