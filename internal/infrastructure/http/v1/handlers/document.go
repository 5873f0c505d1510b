package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"factura/internal/core/apperror"
	"factura/internal/domain"
	"factura/internal/domain/documents/business"
	"factura/internal/domain/documents/totals"
	"factura/internal/infrastructure/http/v1/dto"
)

// DocumentService is the document API used by DocumentHandler.
// *documents.Service implements it.
type DocumentService interface {
	Get(ctx context.Context, kind business.Kind, docID int64) (*business.Document, error)
	List(ctx context.Context, kind business.Kind, filter business.ListFilter) (domain.ListResult[*business.Document], error)
	Create(ctx context.Context, doc *business.Document, form []business.FormLine) (*totals.FormResult, error)
	PreviewForm(ctx context.Context, doc *business.Document, form []business.FormLine) (*totals.FormResult, error)
	SaveLines(ctx context.Context, kind business.Kind, docID int64, form []business.FormLine) (*totals.FormResult, error)
	Recalculate(ctx context.Context, kind business.Kind, docID int64) (*totals.Result, error)
	Generate(ctx context.Context, kind business.Kind, docID int64, target business.Kind) (*business.Document, error)
}

// DocumentHandler serves every business document kind under /documents/:kind.
type DocumentHandler struct {
	*BaseHandler
	service DocumentService
}

func NewDocumentHandler(base *BaseHandler, service DocumentService) *DocumentHandler {
	return &DocumentHandler{BaseHandler: base, service: service}
}

// List handles GET /documents/:kind
func (h *DocumentHandler) List(c *gin.Context) {
	kind, ok := h.ParseKindParam(c)
	if !ok {
		return
	}

	filter := business.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.OrderBy = c.Query("orderBy")
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.SubjectCode = c.Query("codsujeto")
	filter.SeriesCode = c.Query("codserie")
	if !h.parseDateQuery(c, "from", &filter.DateFrom) || !h.parseDateQuery(c, "to", &filter.DateTo) {
		return
	}

	res, err := h.service.List(c.Request.Context(), kind, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(res, dto.FromDocumentSummary))
}

// Get handles GET /documents/:kind/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	kind, ok := h.ParseKindParam(c)
	if !ok {
		return
	}
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Get(c.Request.Context(), kind, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Create handles POST /documents/:kind
func (h *DocumentHandler) Create(c *gin.Context) {
	kind, ok := h.ParseKindParam(c)
	if !ok {
		return
	}

	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := req.ToDocument(kind)
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.Create(c.Request.Context(), doc, req.Lines)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromCreated(doc, res))
}

// SaveLines handles PUT /documents/:kind/:id/lines
func (h *DocumentHandler) SaveLines(c *gin.Context) {
	kind, ok := h.ParseKindParam(c)
	if !ok {
		return
	}
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.SaveLinesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	res, err := h.service.SaveLines(c.Request.Context(), kind, docID, req.Lines)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Recalculate handles POST /documents/:kind/:id/recalculate
func (h *DocumentHandler) Recalculate(c *gin.Context) {
	kind, ok := h.ParseKindParam(c)
	if !ok {
		return
	}
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	res, err := h.service.Recalculate(c.Request.Context(), kind, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromResult(res))
}

// RecalculateForm handles POST /documents/:kind/recalculate and answers
// {"total": n, "lines": [...]} without storing anything.
func (h *DocumentHandler) RecalculateForm(c *gin.Context) {
	kind, ok := h.ParseKindParam(c)
	if !ok {
		return
	}

	var req dto.RecalculateFormRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	var (
		doc *business.Document
		err error
	)
	if req.ID != 0 {
		doc, err = h.service.Get(ctx, kind, req.ID)
	} else {
		doc, err = req.ToDocument(kind)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.PreviewForm(ctx, doc, req.Lines)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// Generate handles POST /documents/:kind/:id/generate
func (h *DocumentHandler) Generate(c *gin.Context) {
	kind, ok := h.ParseKindParam(c)
	if !ok {
		return
	}
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.GenerateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	target, err := business.ParseKind(req.Target)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Generate(c.Request.Context(), kind, docID, target)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) parseDateQuery(c *gin.Context, key string, dst **time.Time) bool {
	v := c.Query(key)
	if v == "" {
		return true
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid date").WithDetail("param", key))
		return false
	}
	*dst = &t
	return true
}
