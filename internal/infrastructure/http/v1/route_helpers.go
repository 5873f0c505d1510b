package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler is implemented by handlers.CatalogHandler.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Save(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterCatalogRoutes registers the standard routes of a key-addressed catalog.
//
// Usage:
//
//	handler := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[*tax.Tax, string]{...})
//	RegisterCatalogRoutes(catalogs.Group("/taxes"), handler)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Save)
	group.GET("/:key", handler.Get)
	group.PUT("/:key", handler.Save)
	group.DELETE("/:key", handler.Delete)
}
