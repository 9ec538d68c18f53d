package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/messaging"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessage(_ context.Context, msg kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msg)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func transferResult() *inventory.CommitResult {
	return &inventory.CommitResult{
		GroupID: "g-1",
		Movements: []*entity.StockMovement{
			{ID: "m1", Seq: 1, ProductID: "p", WarehouseID: "w1", Kind: entity.MovementKindTransferOut, Quantity: decimal.NewFromInt(3), GroupID: "g-1"},
			{ID: "m2", Seq: 2, ProductID: "p", WarehouseID: "w2", Kind: entity.MovementKindTransferIn, Quantity: decimal.NewFromInt(3), GroupID: "g-1"},
		},
		Levels: []*entity.StockLevel{
			{ProductID: "p", WarehouseID: "w1", Quantity: decimal.NewFromInt(7)},
			{ProductID: "p", WarehouseID: "w2", Quantity: decimal.NewFromInt(3)},
		},
	}
}

func TestPublishCommitted_KeyedByGroup(t *testing.T) {
	w := &fakeWriter{}
	p := messaging.NewKafkaMovementPublisher(w, zerolog.Nop())

	require.NoError(t, p.PublishCommitted(context.Background(), transferResult()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "g-1", string(w.msgs[0].Key))

	var ev messaging.MovementsCommittedEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "g-1", ev.GroupID)
	require.Len(t, ev.Movements, 2)
	assert.True(t, ev.Movements[0].SignedDelta.Equal(decimal.NewFromInt(-3)))
	assert.True(t, ev.Movements[1].SignedDelta.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "TRANSFER_OUT", ev.Movements[0].Kind)
	require.Len(t, ev.Levels, 2)
	assert.True(t, ev.Levels[0].Quantity.Equal(decimal.NewFromInt(7)))
}

func TestPublishCommitted_EmptyBatchSkipped(t *testing.T) {
	w := &fakeWriter{}
	p := messaging.NewKafkaMovementPublisher(w, zerolog.Nop())

	require.NoError(t, p.PublishCommitted(context.Background(), &inventory.CommitResult{GroupID: "g"}))
	require.NoError(t, p.PublishCommitted(context.Background(), nil))
	assert.Empty(t, w.msgs)
}

func TestPublishCommitted_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker caído")}
	p := messaging.NewKafkaMovementPublisher(w, zerolog.Nop())

	err := p.PublishCommitted(context.Background(), transferResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "g-1")
}

func TestNewKafkaWriter_RequiresBrokers(t *testing.T) {
	_, err := messaging.NewKafkaWriter(nil, "topic", "svc", nil)
	assert.Error(t, err)
}
