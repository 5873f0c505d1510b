package stock

import (
	"time"

	"factura/internal/core/id"
	"factura/internal/core/types"
)

// Movement is one signed change of stock caused by a document line.
type Movement struct {
	ID           id.ID          `db:"id" json:"id"`
	DocumentKind string         `db:"document_kind" json:"documentKind"`
	DocumentID   int64          `db:"document_id" json:"documentId"`
	LineID       int64          `db:"line_id" json:"lineId"`
	Warehouse    string         `db:"codalmacen" json:"codalmacen"`
	Reference    string         `db:"referencia" json:"referencia"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	Period       time.Time      `db:"period" json:"period"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}

// Balance is the running stock of a product in a warehouse.
type Balance struct {
	Warehouse      string         `db:"codalmacen" json:"codalmacen"`
	Reference      string         `db:"referencia" json:"referencia"`
	Quantity       types.Quantity `db:"quantity" json:"quantity"`
	LastMovementAt *time.Time     `db:"last_movement_at" json:"lastMovementAt,omitempty"`
}
