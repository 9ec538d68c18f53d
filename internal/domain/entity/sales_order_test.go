package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func TestSalesOrderStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to entity.SalesOrderStatus
		want     bool
	}{
		{entity.SalesOrderDraft, entity.SalesOrderConfirmed, true},
		{entity.SalesOrderConfirmed, entity.SalesOrderProcessing, true},
		{entity.SalesOrderProcessing, entity.SalesOrderReadyForDispatch, true},
		{entity.SalesOrderReadyForDispatch, entity.SalesOrderDispatched, true},
		{entity.SalesOrderDispatched, entity.SalesOrderPartiallyInvoiced, true},
		{entity.SalesOrderDispatched, entity.SalesOrderFullyInvoiced, true},
		{entity.SalesOrderPartiallyInvoiced, entity.SalesOrderPartiallyInvoiced, true},
		{entity.SalesOrderPartiallyInvoiced, entity.SalesOrderFullyInvoiced, true},
		{entity.SalesOrderDraft, entity.SalesOrderCancelled, true},
		{entity.SalesOrderDispatched, entity.SalesOrderCancelled, true},

		{entity.SalesOrderDraft, entity.SalesOrderProcessing, false},
		{entity.SalesOrderProcessing, entity.SalesOrderDispatched, false},
		{entity.SalesOrderDispatched, entity.SalesOrderReadyForDispatch, false},
		{entity.SalesOrderFullyInvoiced, entity.SalesOrderCancelled, false},
		{entity.SalesOrderCancelled, entity.SalesOrderDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s → %s", tc.from, tc.to)
	}
}

func TestSalesOrderStatus_IsValid(t *testing.T) {
	assert.True(t, entity.SalesOrderFullyInvoiced.IsValid())
	assert.True(t, entity.SalesOrderDraft.IsValid())
	assert.False(t, entity.SalesOrderStatus("SHIPPED").IsValid())
}
