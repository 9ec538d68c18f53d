package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

// storage repositorios fuera de transacción más el TxRunner del motor elegido.
type storage struct {
	txRunner       inventory.TxRunner
	levels         repository.StockLevelRepository
	movements      repository.StockMovementRepository
	purchaseOrders repository.PurchaseOrderRepository
	salesOrders    repository.SalesOrderRepository
	products       repository.ProductRepository
	warehouses     repository.WarehouseRepository
	close          func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Ledger.Store {
	case config.StoreMemory:
		s := memory.NewStore()
		return &storage{
			txRunner:       s,
			levels:         s.Levels(),
			movements:      s.Movements(),
			purchaseOrders: s.PurchaseOrders(),
			salesOrders:    s.SalesOrders(),
			products:       s.Products(),
			warehouses:     s.Warehouses(),
			close:          func() {},
		}, nil
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrar esquema: %w", err)
		}
		return &storage{
			txRunner:       postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout()),
			levels:         postgres.NewStockLevelRepository(pool),
			movements:      postgres.NewStockMovementRepository(pool),
			purchaseOrders: postgres.NewPurchaseOrderRepository(pool),
			salesOrders:    postgres.NewSalesOrderRepository(pool),
			products:       postgres.NewProductRepository(pool),
			warehouses:     postgres.NewWarehouseRepository(pool),
			close:          pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("LEDGER_STORE desconocido: %q", cfg.Ledger.Store)
}
