package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
)

func adjustmentFixture(t *testing.T) *fixture {
	f := newFixture(t)
	f.product(t, "P")
	f.warehouse(t, "W")
	return f
}

func TestSubmitAdjustment_SignFollowsReason(t *testing.T) {
	cases := map[entity.AdjustmentReason]string{
		entity.ReasonDamage:            "6",
		entity.ReasonWriteOff:          "6",
		entity.ReasonExpired:           "6",
		entity.ReasonStockTakeShortage: "6",
		entity.ReasonStockTakeSurplus:  "14",
		entity.ReasonManualReceipt:     "14",
	}
	for reason, want := range cases {
		t.Run(string(reason), func(t *testing.T) {
			f := adjustmentFixture(t)
			f.seed(t, "P", "W", 10)

			res, err := f.adjustments.SubmitAdjustment(context.Background(), inventory.AdjustmentInput{
				CompanyID: company, UserID: "u1", ProductID: "P", WarehouseID: "W",
				ReasonCode: reason, Quantity: qty(4), Reference: "conteo marzo",
			})
			require.NoError(t, err)
			assert.Equal(t, want, f.level(t, "P", "W"))

			require.Len(t, res.Movements, 1)
			m := res.Movements[0]
			assert.Equal(t, entity.MovementKindAdjustment, m.Kind)
			assert.Equal(t, reason, m.ReasonCode)
			assert.Equal(t, "4", m.Quantity.String(), "la cantidad del movimiento siempre es positiva")
			assert.Equal(t, "conteo marzo", m.ReferenceID)
		})
	}
}

func TestSubmitAdjustment_DecreaseBeyondStock(t *testing.T) {
	f := adjustmentFixture(t)
	f.seed(t, "P", "W", 3)

	_, err := f.adjustments.SubmitAdjustment(context.Background(), inventory.AdjustmentInput{
		CompanyID: company, ProductID: "P", WarehouseID: "W",
		ReasonCode: entity.ReasonDamage, Quantity: qty(5),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "3", f.level(t, "P", "W"))
}

func TestSubmitAdjustment_InvalidReason(t *testing.T) {
	f := adjustmentFixture(t)

	_, err := f.adjustments.SubmitAdjustment(context.Background(), inventory.AdjustmentInput{
		CompanyID: company, ProductID: "P", WarehouseID: "W",
		ReasonCode: "THEFT", Quantity: qty(1),
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "reason_code", ve.Violations[0].Field)
	assert.Equal(t, ledger.CodeInvalidReason, ve.Violations[0].Code)
	assert.Zero(t, f.movementCount(t))
}

func TestSubmitAdjustment_UnknownWarehouse(t *testing.T) {
	f := adjustmentFixture(t)

	_, err := f.adjustments.SubmitAdjustment(context.Background(), inventory.AdjustmentInput{
		CompanyID: company, ProductID: "P", WarehouseID: "nope",
		ReasonCode: entity.ReasonManualReceipt, Quantity: qty(1),
	})
	require.ErrorIs(t, err, domain.ErrReferenceNotFound)
}
