package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

// Cada corrida usa empresa, productos y bodegas nuevos: stock_movements no admite DELETE.
func TestLedger_PostgresConcurrentIssuesNeverOversell(t *testing.T) {
	databaseURL := os.Getenv("INVENTARIO_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set INVENTARIO_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: databaseURL})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))

	companyID := uuid.New().String()
	products := postgres.NewProductRepository(pool)
	warehouses := postgres.NewWarehouseRepository(pool)
	product := &entity.Product{CompanyID: companyID, SKU: "IT-" + uuid.New().String()[:8], Name: "Producto IT", UnitType: "UND"}
	require.NoError(t, products.Create(ctx, product))
	mainWh := &entity.Warehouse{CompanyID: companyID, Name: "Principal", Type: entity.WarehouseTypeMain}
	store := &entity.Warehouse{CompanyID: companyID, Name: "Tienda", Type: entity.WarehouseTypeStore}
	require.NoError(t, warehouses.Create(ctx, mainWh))
	require.NoError(t, warehouses.Create(ctx, store))

	levels := postgres.NewStockLevelRepository(pool)
	ledger := inventory.NewStockLedger(postgres.NewTxRunner(pool, 2*time.Second), levels)
	catalog := inventory.NewRepositoryCatalog(products, warehouses)
	adjustments := inventory.NewAdjustmentProcessor(ledger, catalog)
	transfers := inventory.NewTransferCoordinator(ledger, catalog)

	_, err = adjustments.SubmitAdjustment(ctx, inventory.AdjustmentInput{
		CompanyID: companyID, ProductID: product.ID, WarehouseID: mainWh.ID,
		ReasonCode: entity.ReasonManualReceipt, Quantity: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, short int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := transfers.SubmitTransfer(ctx, inventory.TransferInput{
				CompanyID: companyID, ProductID: product.ID,
				SourceWarehouseID: mainWh.ID, DestinationWarehouseID: store.ID,
				Quantity: decimal.NewFromInt(1),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				short++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, short)

	src, err := ledger.CurrentLevel(ctx, product.ID, mainWh.ID)
	require.NoError(t, err)
	dst, err := ledger.CurrentLevel(ctx, product.ID, store.ID)
	require.NoError(t, err)
	assert.True(t, src.IsZero(), "origen: %s", src)
	assert.True(t, dst.Equal(decimal.NewFromInt(5)), "destino: %s", dst)

	total, err := ledger.TotalForProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(5)))
}
