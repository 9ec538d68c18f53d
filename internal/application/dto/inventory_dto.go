package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID              string          `json:"product_id"`
	SourceWarehouseID      string          `json:"source_warehouse_id"`
	DestinationWarehouseID string          `json:"destination_warehouse_id"`
	Quantity               decimal.Decimal `json:"quantity"`
}

// AdjustmentRequest body para POST /api/inventory/adjustments.
type AdjustmentRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	ReasonCode  string          `json:"reason_code"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reference   string          `json:"reference,omitempty"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID              string          `json:"id"`
	Seq             int64           `json:"seq"`
	ProductID       string          `json:"product_id"`
	WarehouseID     string          `json:"warehouse_id"`
	Kind            string          `json:"kind"`
	Quantity        decimal.Decimal `json:"quantity"`
	SignedDelta     decimal.Decimal `json:"signed_delta"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	ReferenceLineID string          `json:"reference_line_id,omitempty"`
	GroupID         string          `json:"group_id"`
	ReasonCode      string          `json:"reason_code,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	CreatedBy       string          `json:"created_by,omitempty"`
}

// StockLevelResponse nivel de stock de un par (producto, bodega).
type StockLevelResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// CommitResponse resultado de un lote confirmado.
type CommitResponse struct {
	GroupID   string               `json:"group_id"`
	Movements []MovementResponse   `json:"movements"`
	Levels    []StockLevelResponse `json:"levels"`
}

// ProductStockResponse total de un producto con desglose por bodega.
type ProductStockResponse struct {
	ProductID string               `json:"product_id"`
	Total     decimal.Decimal      `json:"total"`
	Levels    []StockLevelResponse `json:"levels"`
}

// MovementListResponse historial paginado de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockLevelListResponse niveles paginados de una bodega.
type StockLevelListResponse struct {
	Items []StockLevelResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// DriftResponse diferencia detectada por la verificación.
type DriftResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Projected   decimal.Decimal `json:"projected"`
	Replayed    decimal.Decimal `json:"replayed"`
}

// VerifyResponse resultado de GET /api/inventory/projection/verify.
type VerifyResponse struct {
	Consistent        bool            `json:"consistent"`
	MovementsReplayed int             `json:"movements_replayed"`
	LastSeq           int64           `json:"last_seq"`
	Drifts            []DriftResponse `json:"drifts"`
}

// RebuildResponse resultado de POST /api/inventory/projection/rebuild.
type RebuildResponse struct {
	MovementsReplayed int   `json:"movements_replayed"`
	LastSeq           int64 `json:"last_seq"`
	Levels            int   `json:"levels"`
	LinesUpdated      int   `json:"po_lines_updated"`
}
