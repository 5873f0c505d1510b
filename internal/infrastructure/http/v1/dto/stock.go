package dto

import (
	"time"

	"factura/internal/domain/registers/stock"
)

// StockBalanceResponse represents stock balance in API responses.
type StockBalanceResponse struct {
	Warehouse      string     `json:"codalmacen"`
	Reference      string     `json:"referencia"`
	Quantity       float64    `json:"quantity"`
	LastMovementAt *time.Time `json:"lastMovementAt,omitempty"`
}

func FromStockBalance(b stock.Balance) StockBalanceResponse {
	return StockBalanceResponse{
		Warehouse:      b.Warehouse,
		Reference:      b.Reference,
		Quantity:       b.Quantity.Float64(),
		LastMovementAt: b.LastMovementAt,
	}
}

// StockMovementResponse represents stock movement in API responses.
type StockMovementResponse struct {
	ID           string    `json:"id"`
	DocumentKind string    `json:"documentKind"`
	DocumentID   int64     `json:"documentId"`
	LineID       int64     `json:"lineId"`
	Warehouse    string    `json:"codalmacen"`
	Reference    string    `json:"referencia"`
	Quantity     float64   `json:"quantity"`
	Period       time.Time `json:"period"`
}

func FromStockMovement(m stock.Movement) StockMovementResponse {
	return StockMovementResponse{
		ID:           m.ID.String(),
		DocumentKind: m.DocumentKind,
		DocumentID:   m.DocumentID,
		LineID:       m.LineID,
		Warehouse:    m.Warehouse,
		Reference:    m.Reference,
		Quantity:     m.Quantity.Float64(),
		Period:       m.Period,
	}
}
