package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func TestStockMovement_SignedDelta(t *testing.T) {
	q := decimal.NewFromInt(7)
	cases := []struct {
		m    entity.StockMovement
		want string
	}{
		{entity.StockMovement{Kind: entity.MovementKindReceipt, Quantity: q}, "7"},
		{entity.StockMovement{Kind: entity.MovementKindTransferIn, Quantity: q}, "7"},
		{entity.StockMovement{Kind: entity.MovementKindTransferOut, Quantity: q}, "-7"},
		{entity.StockMovement{Kind: entity.MovementKindSalesIssue, Quantity: q}, "-7"},
		{entity.StockMovement{Kind: entity.MovementKindAdjustment, ReasonCode: entity.ReasonStockTakeSurplus, Quantity: q}, "7"},
		{entity.StockMovement{Kind: entity.MovementKindAdjustment, ReasonCode: entity.ReasonStockTakeShortage, Quantity: q}, "-7"},
		{entity.StockMovement{Kind: entity.MovementKindAdjustment, ReasonCode: "UNKNOWN", Quantity: q}, "-7"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.m.SignedDelta().String(), "%s/%s", tc.m.Kind, tc.m.ReasonCode)
	}
}

func TestAdjustmentReasons_AllValid(t *testing.T) {
	for _, r := range entity.AdjustmentReasons() {
		assert.True(t, r.IsValid(), r)
	}
	assert.False(t, entity.AdjustmentReason("").IsValid())
}

func TestStockKey_Less(t *testing.T) {
	a := entity.StockKey{ProductID: "p1", WarehouseID: "w2"}
	b := entity.StockKey{ProductID: "p2", WarehouseID: "w1"}
	c := entity.StockKey{ProductID: "p1", WarehouseID: "w3"}
	assert.True(t, a.Less(b))
	assert.True(t, a.Less(c))
	assert.False(t, b.Less(a))
	assert.False(t, a.Less(a))
}

func TestPurchaseOrder_Status(t *testing.T) {
	po := &entity.PurchaseOrder{Lines: []*entity.PurchaseOrderLine{
		{ID: "l1", QuantityOrdered: decimal.NewFromInt(10)},
		{ID: "l2", QuantityOrdered: decimal.NewFromInt(5)},
	}}
	assert.Equal(t, entity.PurchaseOrderStatusOpen, po.Status())

	po.Line("l1").QuantityReceived = decimal.NewFromInt(10)
	assert.Equal(t, entity.PurchaseOrderStatusPartiallyReceived, po.Status())
	assert.Equal(t, "5", po.Line("l2").Pending().String())

	po.Line("l2").QuantityReceived = decimal.NewFromInt(5)
	assert.Equal(t, entity.PurchaseOrderStatusReceived, po.Status())
	assert.True(t, po.Line("l2").Pending().IsZero())

	cp := po.Clone()
	cp.Line("l1").QuantityReceived = decimal.Zero
	assert.Equal(t, "10", po.Line("l1").QuantityReceived.String(), "Clone no comparte líneas")
	assert.Nil(t, po.Line("nope"))
}
