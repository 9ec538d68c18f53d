package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados de una orden de compra según lo recibido.
const (
	PurchaseOrderStatusOpen              = "OPEN"
	PurchaseOrderStatusPartiallyReceived = "PARTIALLY_RECEIVED"
	PurchaseOrderStatusReceived          = "RECEIVED"
)

// PurchaseOrder orden de compra; solo interesan al ledger sus líneas y cantidades.
type PurchaseOrder struct {
	ID          string
	CompanyID   string
	SupplierRef string
	Lines       []*PurchaseOrderLine
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PurchaseOrderLine línea de la orden. QuantityReceived es no decreciente y nunca supera QuantityOrdered.
type PurchaseOrderLine struct {
	ID               string
	PurchaseOrderID  string
	ProductID        string
	QuantityOrdered  decimal.Decimal
	QuantityReceived decimal.Decimal
}

// Pending devuelve lo que falta por recibir (0 si la línea está completa).
func (l *PurchaseOrderLine) Pending() decimal.Decimal {
	p := l.QuantityOrdered.Sub(l.QuantityReceived)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// IsFullyReceived indica si la línea ya se recibió completa.
func (l *PurchaseOrderLine) IsFullyReceived() bool {
	return l.QuantityReceived.GreaterThanOrEqual(l.QuantityOrdered)
}

// Line busca una línea por ID.
func (po *PurchaseOrder) Line(lineID string) *PurchaseOrderLine {
	for _, l := range po.Lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

// Status deriva el estado de la orden a partir de sus líneas.
func (po *PurchaseOrder) Status() string {
	full, touched := true, false
	for _, l := range po.Lines {
		if !l.IsFullyReceived() {
			full = false
		}
		if l.QuantityReceived.IsPositive() {
			touched = true
		}
	}
	switch {
	case full && len(po.Lines) > 0:
		return PurchaseOrderStatusReceived
	case touched:
		return PurchaseOrderStatusPartiallyReceived
	default:
		return PurchaseOrderStatusOpen
	}
}

// Clone copia profunda (las líneas son punteros).
func (po *PurchaseOrder) Clone() *PurchaseOrder {
	if po == nil {
		return nil
	}
	out := *po
	out.Lines = make([]*PurchaseOrderLine, 0, len(po.Lines))
	for _, l := range po.Lines {
		cp := *l
		out.Lines = append(out.Lines, &cp)
	}
	return &out
}
