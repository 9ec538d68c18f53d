package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePurchaseOrderLine línea de una orden de compra nueva.
type CreatePurchaseOrderLine struct {
	ProductID       string          `json:"product_id"`
	QuantityOrdered decimal.Decimal `json:"quantity_ordered"`
}

// CreatePurchaseOrderRequest body para POST /api/purchase-orders.
type CreatePurchaseOrderRequest struct {
	SupplierRef string                    `json:"supplier_ref"`
	Lines       []CreatePurchaseOrderLine `json:"lines"`
}

// ReceiptLineRequest cantidad recibida para una línea. WarehouseID vacío usa el de la cabecera.
type ReceiptLineRequest struct {
	LineID           string          `json:"line_id"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	WarehouseID      string          `json:"warehouse_id,omitempty"`
}

// ReceiptRequest body para POST /api/purchase-orders/:id/receipts.
type ReceiptRequest struct {
	WarehouseID string               `json:"warehouse_id"`
	Lines       []ReceiptLineRequest `json:"lines"`
}

// PurchaseOrderLineResponse línea con lo pedido, lo recibido y lo pendiente.
type PurchaseOrderLineResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	QuantityOrdered  decimal.Decimal `json:"quantity_ordered"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	Pending          decimal.Decimal `json:"pending"`
}

// PurchaseOrderResponse orden de compra con estado derivado.
type PurchaseOrderResponse struct {
	ID          string                      `json:"id"`
	CompanyID   string                      `json:"company_id"`
	SupplierRef string                      `json:"supplier_ref"`
	Status      string                      `json:"status"`
	Lines       []PurchaseOrderLineResponse `json:"lines"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// ReceiptResponse resultado de una recepción.
type ReceiptResponse struct {
	Commit        CommitResponse        `json:"commit"`
	PurchaseOrder PurchaseOrderResponse `json:"purchase_order"`
}
