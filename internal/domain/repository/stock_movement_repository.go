package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// MovementFilter filtros opcionales para listar movimientos. CompanyID vacío no filtra por empresa;
// las lecturas expuestas a una empresa siempre lo fijan.
type MovementFilter struct {
	CompanyID   string
	ProductID   string
	WarehouseID string
	ReferenceID string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// StockMovementRepository puerto del log append-only de movimientos. No existe Update ni Delete.
type StockMovementRepository interface {
	// Append persiste el lote en el orden dado, asignando ID (si falta), Seq y CreatedAt.
	Append(ctx context.Context, movements []*entity.StockMovement) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	// ListAfter devuelve hasta limit movimientos con Seq > afterSeq en orden ascendente (replay).
	ListAfter(ctx context.Context, afterSeq int64, limit int) ([]*entity.StockMovement, error)
}
