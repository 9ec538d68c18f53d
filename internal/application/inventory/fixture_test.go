package inventory_test

import (
	"context"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

const company = "empresa-1"

type fixture struct {
	store       *memory.Store
	catalog     *inventory.RepositoryCatalog
	ledger      *inventory.StockLedger
	transfers   *inventory.TransferCoordinator
	adjustments *inventory.AdjustmentProcessor
	receipts    *inventory.ReceiptReconciler
	fulfillment *inventory.FulfillmentService
	projector   *inventory.StockProjector
}

func newFixture(t *testing.T, opts ...inventory.LedgerOption) *fixture {
	t.Helper()
	store := memory.NewStore()
	catalog := inventory.NewRepositoryCatalog(store.Products(), store.Warehouses())
	base := []inventory.LedgerOption{
		inventory.WithMaxRetries(50),
		inventory.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}
	l := inventory.NewStockLedger(store, store.Levels(), append(base, opts...)...)
	return &fixture{
		store:       store,
		catalog:     catalog,
		ledger:      l,
		transfers:   inventory.NewTransferCoordinator(l, catalog),
		adjustments: inventory.NewAdjustmentProcessor(l, catalog),
		receipts:    inventory.NewReceiptReconciler(l, catalog),
		fulfillment: inventory.NewFulfillmentService(l, catalog),
		projector:   inventory.NewStockProjector(l, store.Levels(), store.Movements(), catalog),
	}
}

func (f *fixture) product(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.store.Products().Create(context.Background(), &entity.Product{
		ID: id, CompanyID: company, SKU: "SKU-" + id, Name: "Producto " + id, UnitType: "UND",
	}))
}

func (f *fixture) warehouse(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.store.Warehouses().Create(context.Background(), &entity.Warehouse{
		ID: id, CompanyID: company, Name: "Bodega " + id, Type: entity.WarehouseTypeMain,
	}))
}

// seed deja qty unidades en (producto, bodega) con un ajuste MANUAL_RECEIPT directo al ledger.
func (f *fixture) seed(t *testing.T, productID, warehouseID string, qty int64) {
	t.Helper()
	_, err := f.ledger.Append(context.Background(), []*entity.StockMovement{{
		CompanyID:   company,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Kind:        entity.MovementKindAdjustment,
		ReasonCode:  entity.ReasonManualReceipt,
		Quantity:    decimal.NewFromInt(qty),
		CreatedBy:   "seed",
	}})
	require.NoError(t, err)
}

func (f *fixture) level(t *testing.T, productID, warehouseID string) string {
	t.Helper()
	q, err := f.ledger.CurrentLevel(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	return q.String()
}

func (f *fixture) movementCount(t *testing.T) int {
	t.Helper()
	list, err := f.store.Movements().List(context.Background(), repository.MovementFilter{})
	require.NoError(t, err)
	return len(list)
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }
