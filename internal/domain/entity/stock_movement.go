package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento del ledger.
type MovementKind string

const (
	MovementKindReceipt     MovementKind = "RECEIPT"      // entrada por recepción de orden de compra
	MovementKindTransferOut MovementKind = "TRANSFER_OUT" // salida de la bodega origen en un traslado
	MovementKindTransferIn  MovementKind = "TRANSFER_IN"  // entrada a la bodega destino en un traslado
	MovementKindAdjustment  MovementKind = "ADJUSTMENT"   // ajuste con código de razón
	MovementKindSalesIssue  MovementKind = "SALES_ISSUE"  // salida para despachar una orden de venta
)

// IsValid indica si el tipo de movimiento es conocido.
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementKindReceipt, MovementKindTransferOut, MovementKindTransferIn,
		MovementKindAdjustment, MovementKindSalesIssue:
		return true
	}
	return false
}

// StockMovement es un registro inmutable del ledger. Quantity siempre es positiva;
// el signo lo determinan Kind y, para ajustes, ReasonCode.
type StockMovement struct {
	ID              string
	Seq             int64 // orden de creación (asignado al confirmar)
	CompanyID       string
	ProductID       string
	WarehouseID     string
	Kind            MovementKind
	Quantity        decimal.Decimal
	ReferenceID     string // orden de compra, orden de venta, grupo de traslado o texto del ajuste
	ReferenceLineID string // línea de la orden (recepciones y despachos)
	GroupID         string // lote atómico; en traslados es el id del grupo
	ReasonCode      AdjustmentReason
	CreatedAt       time.Time
	CreatedBy       string
}

// IsIncrease indica si el movimiento suma stock.
func (m *StockMovement) IsIncrease() bool {
	switch m.Kind {
	case MovementKindReceipt, MovementKindTransferIn:
		return true
	case MovementKindAdjustment:
		return m.ReasonCode.Increases()
	}
	return false
}

// SignedDelta devuelve la cantidad con signo que el movimiento aplica al nivel de stock.
func (m *StockMovement) SignedDelta() decimal.Decimal {
	if m.IsIncrease() {
		return m.Quantity
	}
	return m.Quantity.Neg()
}

// Key devuelve el par (producto, bodega) afectado.
func (m *StockMovement) Key() StockKey {
	return StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID}
}
