package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValidateTransfer(t *testing.T) {
	ok := ledger.TransferIntent{ProductID: "p", SourceWarehouseID: "a", DestinationWarehouseID: "b", Quantity: d("0.5")}
	assert.True(t, ledger.ValidateTransfer(ok).OK(), "se admiten cantidades fraccionarias")

	same := ok
	same.DestinationWarehouseID = "a"
	r := ledger.ValidateTransfer(same)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "destination_warehouse_id", r.Violations[0].Field)
	assert.Equal(t, ledger.CodeSameWarehouse, r.Violations[0].Code)

	r = ledger.ValidateTransfer(ledger.TransferIntent{})
	codes := map[string]string{}
	for _, v := range r.Violations {
		codes[v.Field] = v.Code
	}
	assert.Equal(t, map[string]string{
		"product_id":               ledger.CodeRequired,
		"source_warehouse_id":      ledger.CodeRequired,
		"destination_warehouse_id": ledger.CodeRequired,
		"quantity":                 ledger.CodeNotPositive,
	}, codes)
}

func TestValidateAdjustment(t *testing.T) {
	r := ledger.ValidateAdjustment(ledger.AdjustmentIntent{
		ProductID: "p", WarehouseID: "w", ReasonCode: entity.ReasonExpired, Quantity: d("3"),
	})
	assert.True(t, r.OK())

	r = ledger.ValidateAdjustment(ledger.AdjustmentIntent{ProductID: "p", WarehouseID: "w", ReasonCode: "LOST", Quantity: d("0")})
	require.Len(t, r.Violations, 2)
	assert.Equal(t, ledger.CodeInvalidReason, r.Violations[0].Code)
	assert.Equal(t, ledger.CodeNotPositive, r.Violations[1].Code)

	err := r.Err()
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Violations, 2)
}

func TestValidateReceipt(t *testing.T) {
	cases := []struct {
		name  string
		lines []ledger.ReceiptLineIntent
		codes []string
	}{
		{
			name:  "parcial válida",
			lines: []ledger.ReceiptLineIntent{{LineID: "l1", QuantityReceivedNow: d("50"), DestinationWarehouseID: "w", Pending: d("80")}},
		},
		{
			name:  "exacto al pendiente",
			lines: []ledger.ReceiptLineIntent{{LineID: "l1", QuantityReceivedNow: d("80"), DestinationWarehouseID: "w", Pending: d("80")}},
		},
		{
			name: "cero sin bodega no importa si otra línea recibe",
			lines: []ledger.ReceiptLineIntent{
				{LineID: "l1", QuantityReceivedNow: d("0"), Pending: d("80")},
				{LineID: "l2", QuantityReceivedNow: d("1"), DestinationWarehouseID: "w", Pending: d("1")},
			},
		},
		{
			name:  "todo en cero",
			lines: []ledger.ReceiptLineIntent{{LineID: "l1", QuantityReceivedNow: d("0"), DestinationWarehouseID: "w", Pending: d("10")}},
			codes: []string{ledger.CodeNothingToReceive},
		},
		{
			name:  "sin líneas",
			codes: []string{ledger.CodeNothingToReceive},
		},
		{
			name:  "excede",
			lines: []ledger.ReceiptLineIntent{{LineID: "l1", QuantityReceivedNow: d("10.01"), DestinationWarehouseID: "w", Pending: d("10")}},
			codes: []string{ledger.CodeExceedsPending},
		},
		{
			name:  "negativa",
			lines: []ledger.ReceiptLineIntent{{LineID: "l1", QuantityReceivedNow: d("-1"), DestinationWarehouseID: "w", Pending: d("10")}},
			codes: []string{ledger.CodeNegative, ledger.CodeNothingToReceive},
		},
		{
			name:  "positiva sin bodega",
			lines: []ledger.ReceiptLineIntent{{LineID: "l1", QuantityReceivedNow: d("2"), Pending: d("10")}},
			codes: []string{ledger.CodeRequired},
		},
		{
			name: "duplicada",
			lines: []ledger.ReceiptLineIntent{
				{LineID: "l1", QuantityReceivedNow: d("1"), DestinationWarehouseID: "w", Pending: d("10")},
				{LineID: "l1", QuantityReceivedNow: d("1"), DestinationWarehouseID: "w", Pending: d("10")},
			},
			codes: []string{ledger.CodeDuplicateLine},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ledger.ValidateReceipt(tc.lines)
			var got []string
			for _, v := range r.Violations {
				got = append(got, v.Code)
			}
			assert.Equal(t, tc.codes, got)
		})
	}
}

func TestValidateBatch_PrefixesFields(t *testing.T) {
	r := ledger.ValidateBatch([]*entity.StockMovement{
		{ProductID: "p", WarehouseID: "w", Kind: entity.MovementKindReceipt, Quantity: d("1")},
		{ProductID: "p", Kind: entity.MovementKindReceipt, Quantity: d("1")},
	})
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "movements[1].warehouse_id", r.Violations[0].Field)
}

func TestValidateBatch_FirstMovementAndErr(t *testing.T) {
	err := ledger.ValidateBatch([]*entity.StockMovement{
		{ProductID: "p", Kind: entity.MovementKindReceipt, Quantity: d("1")},
	}).Err()

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, "movements[0].warehouse_id", ve.Violations[0].Field)
	assert.Equal(t, ledger.CodeRequired, ve.Violations[0].Code)

	assert.NoError(t, ledger.ValidateBatch([]*entity.StockMovement{
		{ProductID: "p", WarehouseID: "w", Kind: entity.MovementKindReceipt, Quantity: d("1")},
	}).Err())
	assert.Equal(t, ledger.CodeEmptyBatch, ledger.ValidateBatch(nil).Violations[0].Code)
}
