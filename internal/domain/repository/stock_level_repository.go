package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// StockLevelRepository puerto de la proyección materializada de stock por (producto, bodega).
// Dentro de una transacción del ledger es el único punto de escritura de niveles.
type StockLevelRepository interface {
	// Get devuelve el nivel actual; si no existe devuelve cantidad 0 y Version 0.
	Get(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error)
	// GetForUpdate igual que Get pero serializa contra otros escritores de la misma llave
	// (bloqueo de fila o versión observada, según el motor).
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error)
	Save(ctx context.Context, level *entity.StockLevel) error
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error)
	ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.StockLevel, error)
	TotalForProduct(ctx context.Context, productID string) (decimal.Decimal, error)
	// ListAll devuelve toda la proyección (verificación contra el log).
	ListAll(ctx context.Context) ([]*entity.StockLevel, error)
	// LockAll bloquea la proyección completa contra escritores concurrentes hasta el fin de la transacción.
	LockAll(ctx context.Context) error
	// ReplaceAll reemplaza la proyección completa (reconstrucción por replay).
	ReplaceAll(ctx context.Context, levels []*entity.StockLevel) error
}
