package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSalesOrderLine línea de una orden de venta nueva.
type CreateSalesOrderLine struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// CreateSalesOrderRequest body para POST /api/sales-orders.
type CreateSalesOrderRequest struct {
	CustomerRef string                 `json:"customer_ref"`
	Lines       []CreateSalesOrderLine `json:"lines"`
}

// TransitionSalesOrderRequest body para POST /api/sales-orders/:id/status.
type TransitionSalesOrderRequest struct {
	Status string `json:"status"`
}

// SalesOrderLineResponse línea de la orden de venta.
type SalesOrderLineResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// SalesOrderResponse orden de venta.
type SalesOrderResponse struct {
	ID          string                   `json:"id"`
	CompanyID   string                   `json:"company_id"`
	CustomerRef string                   `json:"customer_ref"`
	Status      string                   `json:"status"`
	Lines       []SalesOrderLineResponse `json:"lines"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// SalesIssueResponse resultado de despachar el stock de una orden.
type SalesIssueResponse struct {
	Commit     *CommitResponse    `json:"commit,omitempty"`
	SalesOrder SalesOrderResponse `json:"sales_order"`
}
