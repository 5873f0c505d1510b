package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"factura/internal/core/apperror"
	"factura/internal/core/entity"
	"factura/internal/domain"
	"factura/internal/infrastructure/http/v1/dto"
)

// CatalogService is the catalog API used by CatalogHandler.
// *domain.CatalogService implements it.
type CatalogService[T entity.Keyed[K], K comparable] interface {
	Get(ctx context.Context, key K) (T, error)
	Save(ctx context.Context, e T) error
	Delete(ctx context.Context, key K) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// CatalogHandler provides generic HTTP handlers for key-addressed catalogs.
type CatalogHandler[T entity.Keyed[K], K comparable] struct {
	*BaseHandler
	service    CatalogService[T, K]
	entityName string
	newFn      func() T
	parseKey   func(string) (K, error)
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T entity.Keyed[K], K comparable] struct {
	Service    CatalogService[T, K]
	EntityName string
	New        func() T
	ParseKey   func(string) (K, error)
}

func NewCatalogHandler[T entity.Keyed[K], K comparable](base *BaseHandler, cfg CatalogHandlerConfig[T, K]) *CatalogHandler[T, K] {
	return &CatalogHandler[T, K]{
		BaseHandler: base,
		service:     cfg.Service,
		entityName:  cfg.EntityName,
		newFn:       cfg.New,
		parseKey:    cfg.ParseKey,
	}
}

// StringKey is the ParseKey of catalogs keyed by code.
func StringKey(s string) (string, error) { return s, nil }

// Int64Key is the ParseKey of catalogs keyed by a numeric id.
func Int64Key(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

// List handles GET /{catalog}
func (h *CatalogHandler[T, K]) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.OrderBy = c.Query("orderBy")
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(res, func(e T) T { return e }))
}

// Get handles GET /{catalog}/:key
func (h *CatalogHandler[T, K]) Get(c *gin.Context) {
	key, ok := h.key(c)
	if !ok {
		return
	}

	e, err := h.service.Get(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Save handles POST /{catalog} and PUT /{catalog}/:key. On PUT the path
// key must match the body.
func (h *CatalogHandler[T, K]) Save(c *gin.Context) {
	e := h.newFn()
	if !h.BindJSON(c, e) {
		return
	}

	if c.Param("key") != "" {
		key, ok := h.key(c)
		if !ok {
			return
		}
		if e.Key() != key {
			h.Error(c, apperror.NewValidation("key in path and body differ").
				WithDetail("entity", h.entityName))
			return
		}
	}

	if err := h.service.Save(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, e)
}

// Delete handles DELETE /{catalog}/:key
func (h *CatalogHandler[T, K]) Delete(c *gin.Context) {
	key, ok := h.key(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), key); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CatalogHandler[T, K]) key(c *gin.Context) (K, bool) {
	key, err := h.parseKey(c.Param("key"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid key").WithDetail("entity", h.entityName))
		return key, false
	}
	return key, true
}
