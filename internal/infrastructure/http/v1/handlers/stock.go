package handlers

import (
	"github.com/gin-gonic/gin"

	"factura/internal/core/apperror"
	"factura/internal/domain/registers/stock"
	"factura/internal/infrastructure/http/v1/dto"
)

// StockHandler handles HTTP requests for the stock register.
type StockHandler struct {
	*BaseHandler
	repo stock.Repository
}

func NewStockHandler(base *BaseHandler, repo stock.Repository) *StockHandler {
	return &StockHandler{BaseHandler: base, repo: repo}
}

// GetBalances handles GET /registers/stock/balances?codalmacen=&referencia=
func (h *StockHandler) GetBalances(c *gin.Context) {
	ctx := c.Request.Context()

	warehouse := c.Query("codalmacen")
	if warehouse == "" {
		h.Error(c, apperror.NewValidation("codalmacen is required"))
		return
	}

	if ref := c.Query("referencia"); ref != "" {
		b, err := h.repo.GetBalance(ctx, warehouse, ref)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, []dto.StockBalanceResponse{dto.FromStockBalance(b)})
		return
	}

	balances, err := h.repo.GetBalancesByWarehouse(ctx, warehouse, c.Query("excludeZero") == "true")
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.StockBalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, dto.FromStockBalance(b))
	}
	h.OK(c, out)
}

// GetMovements handles GET /documents/:kind/:id/movements
func (h *StockHandler) GetMovements(c *gin.Context) {
	kind, ok := h.ParseKindParam(c)
	if !ok {
		return
	}
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	movements, err := h.repo.GetMovementsByDocument(c.Request.Context(), kind.String(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.FromStockMovement(m))
	}
	h.OK(c, out)
}
