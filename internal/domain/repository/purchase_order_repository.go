package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// PurchaseOrderRepository puerto de persistencia de órdenes de compra.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// GetForUpdate lee la orden serializando contra otras recepciones de la misma orden.
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// SetLineReceived fija la cantidad recibida de una línea (recepción o replay).
	SetLineReceived(ctx context.Context, poID, lineID string, received decimal.Decimal) error
	// ListLines devuelve todas las líneas (orden, línea) para reconstrucción.
	ListLines(ctx context.Context) ([]*entity.PurchaseOrderLine, error)
}
