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
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
)

func receiptFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.product(t, "P")
	f.product(t, "Q")
	f.warehouse(t, "W")
	f.warehouse(t, "W2")
	require.NoError(t, f.store.PurchaseOrders().Create(context.Background(), &entity.PurchaseOrder{
		ID:          "po-1",
		CompanyID:   company,
		SupplierRef: "OC-0001",
		Lines: []*entity.PurchaseOrderLine{
			{ID: "L1", ProductID: "P", QuantityOrdered: qty(100)},
			{ID: "L2", ProductID: "Q", QuantityOrdered: qty(10)},
		},
	}))
	return f
}

func (f *fixture) receive(lines ...inventory.ReceiptLineInput) (*inventory.ReceiptResult, error) {
	return f.receipts.SubmitReceipt(context.Background(), inventory.ReceiptInput{
		CompanyID:       company,
		UserID:          "u1",
		PurchaseOrderID: "po-1",
		Lines:           lines,
	})
}

func line(id string, n int64, warehouseID string) inventory.ReceiptLineInput {
	return inventory.ReceiptLineInput{LineID: id, QuantityReceivedNow: qty(n), DestinationWarehouseID: warehouseID}
}

func violationOf(t *testing.T, err error) domain.FieldViolation {
	t.Helper()
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotEmpty(t, ve.Violations)
	return ve.Violations[0]
}

func TestSubmitReceipt_PartialThenMore(t *testing.T) {
	f := receiptFixture(t)

	_, err := f.receive(line("L1", 20, "W"))
	require.NoError(t, err)

	res, err := f.receive(line("L1", 50, "W"))
	require.NoError(t, err)

	l1 := res.PurchaseOrder.Line("L1")
	assert.Equal(t, "70", l1.QuantityReceived.String())
	assert.Equal(t, "30", l1.Pending().String())
	assert.Equal(t, "70", f.level(t, "P", "W"))
	assert.Equal(t, entity.PurchaseOrderStatusPartiallyReceived, res.PurchaseOrder.Status())

	require.Len(t, res.Commit.Movements, 1)
	m := res.Commit.Movements[0]
	assert.Equal(t, entity.MovementKindReceipt, m.Kind)
	assert.Equal(t, "po-1", m.ReferenceID)
	assert.Equal(t, "L1", m.ReferenceLineID)
	assert.Equal(t, "50", m.Quantity.String())

	stored, err := f.store.PurchaseOrders().GetByID(context.Background(), "po-1")
	require.NoError(t, err)
	assert.Equal(t, "70", stored.Line("L1").QuantityReceived.String())
}

func TestSubmitReceipt_MultipleLinesAndWarehouses(t *testing.T) {
	f := receiptFixture(t)

	res, err := f.receive(line("L1", 100, "W"), line("L2", 4, "W2"))
	require.NoError(t, err)
	require.Len(t, res.Commit.Movements, 2)
	assert.Equal(t, "100", f.level(t, "P", "W"))
	assert.Equal(t, "4", f.level(t, "Q", "W2"))

	res, err = f.receive(line("L1", 0, ""), line("L2", 6, "W2"))
	require.NoError(t, err)
	require.Len(t, res.Commit.Movements, 1, "las líneas en cero no generan movimiento")
	assert.Equal(t, entity.PurchaseOrderStatusReceived, res.PurchaseOrder.Status())
}

func TestSubmitReceipt_AllZeroRejected(t *testing.T) {
	f := receiptFixture(t)

	_, err := f.receive(line("L1", 0, "W"), line("L2", 0, "W"))
	v := violationOf(t, err)
	assert.Equal(t, ledger.CodeNothingToReceive, v.Code)
	assert.Zero(t, f.movementCount(t))
}

func TestSubmitReceipt_LineRejections(t *testing.T) {
	cases := []struct {
		name  string
		lines []inventory.ReceiptLineInput
		field string
		code  string
	}{
		{"supera pendiente", []inventory.ReceiptLineInput{line("L1", 101, "W")}, "lines[0].quantity_received_now", ledger.CodeExceedsPending},
		{"negativa", []inventory.ReceiptLineInput{line("L2", -1, "W"), line("L1", 1, "W")}, "lines[0].quantity_received_now", ledger.CodeNegative},
		{"sin bodega", []inventory.ReceiptLineInput{line("L1", 5, "")}, "lines[0].destination_warehouse_id", ledger.CodeRequired},
		{"línea repetida", []inventory.ReceiptLineInput{line("L1", 5, "W"), line("L1", 5, "W")}, "lines[1].line_id", ledger.CodeDuplicateLine},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := receiptFixture(t)
			_, err := f.receive(tc.lines...)
			v := violationOf(t, err)
			assert.Equal(t, tc.field, v.Field)
			assert.Equal(t, tc.code, v.Code)
			assert.Zero(t, f.movementCount(t))

			po, err := f.store.PurchaseOrders().GetByID(context.Background(), "po-1")
			require.NoError(t, err)
			assert.Equal(t, entity.PurchaseOrderStatusOpen, po.Status())
		})
	}
}

func TestSubmitReceipt_OverReceiptAfterFull(t *testing.T) {
	f := receiptFixture(t)
	_, err := f.receive(line("L2", 10, "W"))
	require.NoError(t, err)

	_, err = f.receive(line("L2", 1, "W"))
	assert.Equal(t, ledger.CodeExceedsPending, violationOf(t, err).Code)
	assert.Equal(t, "10", f.level(t, "Q", "W"))
}

func TestSubmitReceipt_UnknownReferences(t *testing.T) {
	f := receiptFixture(t)
	require.NoError(t, f.store.PurchaseOrders().Create(context.Background(), &entity.PurchaseOrder{
		ID: "po-ajena", CompanyID: "otra-empresa",
		Lines: []*entity.PurchaseOrderLine{{ID: "X1", ProductID: "P", QuantityOrdered: qty(5)}},
	}))

	_, err := f.receive(line("L9", 1, "W"))
	var re *domain.ReferenceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, domain.RefPurchaseOrderLine, re.Kind)

	_, err = f.receive(line("L1", 1, "nope"))
	require.ErrorAs(t, err, &re)
	assert.Equal(t, domain.RefWarehouse, re.Kind)

	for _, id := range []string{"po-404", "po-ajena"} {
		_, err = f.receipts.SubmitReceipt(context.Background(), inventory.ReceiptInput{
			CompanyID: company, PurchaseOrderID: id, Lines: []inventory.ReceiptLineInput{line("X1", 1, "W")},
		})
		require.ErrorAs(t, err, &re, id)
		assert.Equal(t, domain.RefPurchaseOrder, re.Kind)
	}
	assert.Zero(t, f.movementCount(t))
}

func TestSubmitReceipt_RequiresOrderAndLines(t *testing.T) {
	f := receiptFixture(t)

	_, err := f.receipts.SubmitReceipt(context.Background(), inventory.ReceiptInput{CompanyID: company})
	assert.Equal(t, "purchase_order_id", violationOf(t, err).Field)

	_, err = f.receipts.SubmitReceipt(context.Background(), inventory.ReceiptInput{CompanyID: company, PurchaseOrderID: "po-1"})
	assert.Equal(t, ledger.CodeNothingToReceive, violationOf(t, err).Code)
}

// Dos recepciones concurrentes que juntas superan lo ordenado: la segunda se valida contra
// el pendiente que dejó la primera.
func TestSubmitReceipt_ConcurrentNeverOverReceives(t *testing.T) {
	f := receiptFixture(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.receive(line("L1", 60, "W"))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, ledger.CodeExceedsPending, violationOf(t, err).Code)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, "60", f.level(t, "P", "W"))

	po, err := f.store.PurchaseOrders().GetByID(context.Background(), "po-1")
	require.NoError(t, err)
	assert.Equal(t, "60", po.Line("L1").QuantityReceived.String())
}
