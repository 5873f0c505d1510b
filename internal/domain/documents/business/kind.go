package business

import (
	"strings"

	"factura/internal/core/apperror"
	"factura/internal/core/numerator"
)

// Direction tells whether a document sells to a customer or buys from a supplier.
type Direction string

const (
	DirectionSales    Direction = "sales"
	DirectionPurchase Direction = "purchase"
)

// Stage is the position of a kind in the estimation → invoice chain.
type Stage int

const (
	StageEstimation Stage = iota + 1
	StageOrder
	StageDeliveryNote
	StageInvoice
)

// Kind identifies one of the eight concrete business document types.
type Kind string

const (
	CustomerEstimation   Kind = "customer-estimation"
	CustomerOrder        Kind = "customer-order"
	CustomerDeliveryNote Kind = "customer-delivery-note"
	CustomerInvoice      Kind = "customer-invoice"
	SupplierEstimation   Kind = "supplier-estimation"
	SupplierOrder        Kind = "supplier-order"
	SupplierDeliveryNote Kind = "supplier-delivery-note"
	SupplierInvoice      Kind = "supplier-invoice"
)

// KindInfo describes storage and behaviour of a Kind.
type KindInfo struct {
	Direction Direction
	Stage     Stage

	// Table and LineTable are the header and line tables; IDColumn is the
	// header primary key, also used as the foreign key on lines.
	Table     string
	LineTable string
	IDColumn  string

	// Prefix is the numbering prefix for codes.
	Prefix string

	// StockSign is -1 for kinds that take goods out of a warehouse,
	// +1 for kinds that bring goods in, 0 for kinds that do not move stock.
	StockSign int
}

var kinds = map[Kind]KindInfo{
	CustomerEstimation:   {DirectionSales, StageEstimation, "presupuestoscli", "lineaspresupuestoscli", "idpresupuesto", "PRE", 0},
	CustomerOrder:        {DirectionSales, StageOrder, "pedidoscli", "lineaspedidoscli", "idpedido", "PED", 0},
	CustomerDeliveryNote: {DirectionSales, StageDeliveryNote, "albaranescli", "lineasalbaranescli", "idalbaran", "ALB", -1},
	CustomerInvoice:      {DirectionSales, StageInvoice, "facturascli", "lineasfacturascli", "idfactura", "FAC", -1},
	SupplierEstimation:   {DirectionPurchase, StageEstimation, "presupuestosprov", "lineaspresupuestosprov", "idpresupuesto", "PPR", 0},
	SupplierOrder:        {DirectionPurchase, StageOrder, "pedidosprov", "lineaspedidosprov", "idpedido", "PPE", 0},
	SupplierDeliveryNote: {DirectionPurchase, StageDeliveryNote, "albaranesprov", "lineasalbaranesprov", "idalbaran", "APR", 1},
	SupplierInvoice:      {DirectionPurchase, StageInvoice, "facturasprov", "lineasfacturasprov", "idfactura", "FPR", 1},
}

// Kinds returns every kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		CustomerEstimation, CustomerOrder, CustomerDeliveryNote, CustomerInvoice,
		SupplierEstimation, SupplierOrder, SupplierDeliveryNote, SupplierInvoice,
	}
}

// ParseKind validates a kind name coming from a URL or payload.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kinds[k]; !ok {
		return "", apperror.NewValidation("unknown document kind").WithDetail("kind", s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

func (k Kind) Info() KindInfo { return kinds[k] }

func (k Kind) Direction() Direction { return kinds[k].Direction }

func (k Kind) IsSales() bool { return k.Direction() == DirectionSales }

// SubjectColumn is the header column holding the customer or supplier code.
func (k Kind) SubjectColumn() string {
	if k.IsSales() {
		return "codcliente"
	}
	return "codproveedor"
}

// MovesStock reports whether saving lines of this kind changes warehouse stock.
func (k Kind) MovesStock() bool { return kinds[k].StockSign != 0 }

// StockEffect is the stock effect of lines entered directly on a document of kind k.
func (k Kind) StockEffect() int { return kinds[k].StockSign }

// GeneratedStockEffect is the stock effect of lines generated into kind k
// from a document of kind from. Goods the source already moved are not
// moved twice.
func (k Kind) GeneratedStockEffect(from Kind) int {
	if from.MovesStock() {
		return 0
	}
	return kinds[k].StockSign
}

// CanConvertTo reports whether a document of kind k may be generated into target.
// Conversion stays within one direction and must change the kind.
func (k Kind) CanConvertTo(target Kind) bool {
	if !k.Valid() || !target.Valid() || k == target {
		return false
	}
	return k.Direction() == target.Direction()
}

// Numbering returns the numerator settings for kind within a series.
// Invoices are numbered gaplessly.
func (k Kind) Numbering(series string) (numerator.Config, *numerator.Options) {
	cfg := numerator.DefaultConfig(kinds[k].Prefix)
	cfg.Series = series
	if kinds[k].Stage == StageInvoice {
		return cfg, numerator.StrictOptions()
	}
	return cfg, numerator.CachedOptions()
}

func (k Kind) String() string { return string(k) }
