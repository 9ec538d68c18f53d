package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// TxRepositories repositorios atados a una misma unidad atómica.
// Todo lo que se escribe a través de ellos se confirma junto o no se confirma.
type TxRepositories struct {
	Movements      repository.StockMovementRepository
	Levels         repository.StockLevelRepository
	PurchaseOrders repository.PurchaseOrderRepository
	SalesOrders    repository.SalesOrderRepository
}

// TxRunner ejecuta fn dentro de una transacción. Si fn devuelve error se descarta todo.
// Un choque con otro escritor se reporta como domain.ErrConflict (reintentable).
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepositories) error) error
}

// Catalog lectura de productos y bodegas. Devuelve (nil, nil) si el registro no existe.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	GetWarehouse(ctx context.Context, id string) (*entity.Warehouse, error)
}

// MovementPublisher notifica lotes ya confirmados. Un fallo no revierte el lote.
type MovementPublisher interface {
	PublishCommitted(ctx context.Context, result *CommitResult) error
}

// StockCardPDFGenerator genera el kardex de un producto en PDF.
type StockCardPDFGenerator interface {
	GenerateStockCardPDF(ctx context.Context, card *StockCard) ([]byte, error)
}

// NoopPublisher descarta los eventos (sin broker configurado).
type NoopPublisher struct{}

// PublishCommitted no hace nada.
func (NoopPublisher) PublishCommitted(context.Context, *CommitResult) error { return nil }
