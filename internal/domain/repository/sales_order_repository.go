package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// SalesOrderRepository puerto de persistencia de órdenes de venta.
type SalesOrderRepository interface {
	Create(ctx context.Context, so *entity.SalesOrder) error
	GetByID(ctx context.Context, id string) (*entity.SalesOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.SalesOrder, error)
	UpdateStatus(ctx context.Context, id string, status entity.SalesOrderStatus) error
}
