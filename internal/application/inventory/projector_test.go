package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

func TestProjector_Reads(t *testing.T) {
	f := transferFixture(t)
	f.warehouse(t, "C")
	f.seed(t, "P", "A", 50)
	f.seed(t, "P", "B", 10)
	ctx := context.Background()

	lvl, err := f.projector.CurrentLevel(ctx, company, "P", "A")
	require.NoError(t, err)
	assert.Equal(t, "50", lvl.Quantity.String())

	lvl, err = f.projector.CurrentLevel(ctx, company, "P", "C")
	require.NoError(t, err)
	assert.True(t, lvl.Quantity.IsZero(), "un par sin movimientos vale cero")

	stock, err := f.projector.ProductStock(ctx, company, "P")
	require.NoError(t, err)
	assert.Equal(t, "60", stock.Total.String())
	assert.Len(t, stock.Levels, 2)

	levels, err := f.projector.WarehouseStock(ctx, company, "B", 10, 0)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "10", levels[0].Quantity.String())

	_, err = f.projector.ProductStock(ctx, "otra-empresa", "P")
	require.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestProjector_MovementsNewestFirst(t *testing.T) {
	f := transferFixture(t)
	f.seed(t, "P", "A", 50)
	_, err := f.transfers.SubmitTransfer(context.Background(), inventory.TransferInput{
		CompanyID: company, ProductID: "P", SourceWarehouseID: "A", DestinationWarehouseID: "B", Quantity: qty(5),
	})
	require.NoError(t, err)

	list, err := f.projector.Movements(context.Background(), company, repository.MovementFilter{WarehouseID: "A"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.MovementKindTransferOut, list[0].Kind)
	assert.Greater(t, list[0].Seq, list[1].Seq)

	list, err = f.projector.Movements(context.Background(), company, repository.MovementFilter{ProductID: "P", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProjector_StockCard(t *testing.T) {
	f := transferFixture(t)
	f.seed(t, "P", "A", 50)
	_, err := f.transfers.SubmitTransfer(context.Background(), inventory.TransferInput{
		CompanyID: company, ProductID: "P", SourceWarehouseID: "A", DestinationWarehouseID: "B", Quantity: qty(20),
	})
	require.NoError(t, err)
	_, err = f.adjustments.SubmitAdjustment(context.Background(), inventory.AdjustmentInput{
		CompanyID: company, ProductID: "P", WarehouseID: "A", ReasonCode: entity.ReasonExpired, Quantity: qty(5),
	})
	require.NoError(t, err)

	card, err := f.projector.StockCard(context.Background(), company, "P", "A")
	require.NoError(t, err)
	assert.Equal(t, "A", card.Warehouse.ID)
	assert.Equal(t, "0", card.OpeningBalance.String())
	assert.Equal(t, "25", card.ClosingBalance.String())
	require.Len(t, card.Entries, 3)
	balances := []string{card.Entries[0].Balance.String(), card.Entries[1].Balance.String(), card.Entries[2].Balance.String()}
	assert.Equal(t, []string{"50", "30", "25"}, balances)

	all, err := f.projector.StockCard(context.Background(), company, "P", "")
	require.NoError(t, err)
	assert.Nil(t, all.Warehouse)
	assert.Equal(t, "45", all.ClosingBalance.String())
	assert.Len(t, all.Entries, 4)
}

func TestProjector_VerifyAndRebuild(t *testing.T) {
	f := receiptFixture(t)
	_, err := f.receive(line("L1", 40, "W"), line("L2", 10, "W2"))
	require.NoError(t, err)
	_, err = f.transfers.SubmitTransfer(context.Background(), inventory.TransferInput{
		CompanyID: company, ProductID: "P", SourceWarehouseID: "W", DestinationWarehouseID: "W2", Quantity: qty(15),
	})
	require.NoError(t, err)
	ctx := context.Background()

	report, err := f.projector.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Drifts)
	assert.Equal(t, 4, report.MovementsReplayed)
	assert.EqualValues(t, 4, report.LastSeq)

	// Corromper la proyección y una línea de compra por fuera del ledger.
	require.NoError(t, f.store.Levels().Save(ctx, &entity.StockLevel{ProductID: "P", WarehouseID: "W", Quantity: qty(999)}))
	require.NoError(t, f.store.Levels().Save(ctx, &entity.StockLevel{ProductID: "Z", WarehouseID: "W", Quantity: qty(1)}))
	require.NoError(t, f.store.PurchaseOrders().SetLineReceived(ctx, "po-1", "L1", qty(0)))

	report, err = f.projector.Verify(ctx)
	require.NoError(t, err)
	require.Len(t, report.Drifts, 2)
	assert.Equal(t, "P", report.Drifts[0].ProductID)
	assert.Equal(t, "999", report.Drifts[0].Projected.String())
	assert.Equal(t, "25", report.Drifts[0].Replayed.String())
	assert.Equal(t, "Z", report.Drifts[1].ProductID)

	rebuilt, err := f.projector.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, rebuilt.MovementsReplayed)
	assert.Equal(t, 3, rebuilt.Levels)
	assert.Equal(t, 1, rebuilt.LinesUpdated)

	report, err = f.projector.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Drifts)
	assert.Equal(t, "25", f.level(t, "P", "W"))
	assert.Equal(t, "15", f.level(t, "P", "W2"))
	assert.Equal(t, "0", f.level(t, "Z", "W"))

	po, err := f.store.PurchaseOrders().GetByID(ctx, "po-1")
	require.NoError(t, err)
	assert.Equal(t, "40", po.Line("L1").QuantityReceived.String())
}

func TestProjector_MovementsScopedToCompany(t *testing.T) {
	f := transferFixture(t)
	f.seed(t, "P", "A", 50)
	ctx := context.Background()
	require.NoError(t, f.store.Products().Create(ctx, &entity.Product{
		ID: "Q", CompanyID: "otra-empresa", SKU: "SKU-Q", Name: "Producto Q", UnitType: "UND",
	}))
	_, err := f.ledger.Append(ctx, []*entity.StockMovement{{
		CompanyID: "otra-empresa", ProductID: "Q", WarehouseID: "X",
		Kind: entity.MovementKindAdjustment, ReasonCode: entity.ReasonManualReceipt, Quantity: qty(7), CreatedBy: "seed",
	}})
	require.NoError(t, err)

	mine, err := f.projector.Movements(ctx, company, repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "P", mine[0].ProductID)

	theirs, err := f.projector.Movements(ctx, "otra-empresa", repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, "Q", theirs[0].ProductID)

	_, err = f.projector.Movements(ctx, "", repository.MovementFilter{})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestProjector_VerifyDuringWrites(t *testing.T) {
	f := transferFixture(t)
	f.seed(t, "P", "A", 1000)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, err := f.transfers.SubmitTransfer(ctx, inventory.TransferInput{
					CompanyID: company, ProductID: "P", SourceWarehouseID: "A", DestinationWarehouseID: "B", Quantity: qty(1),
				})
				assert.NoError(t, err)
			}
		}()
	}

	for i := 0; i < 20; i++ {
		report, err := f.projector.Verify(ctx)
		if err != nil {
			// agotar reintentos frente a escritores continuos es válido; una deriva no.
			require.ErrorIs(t, err, domain.ErrConflict)
			continue
		}
		assert.Empty(t, report.Drifts, "lectura %d", i)
	}
	wg.Wait()

	report, err := f.projector.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Drifts)
	assert.Equal(t, 161, report.MovementsReplayed)
	assert.Equal(t, "920", f.level(t, "P", "A"))
}
