// Package messaging publica en Kafka los lotes confirmados del ledger.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// MessageWriter escritor de mensajes Kafka (el writer instrumentado o un fake en tests).
type MessageWriter interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// NewKafkaWriter crea un writer de kafka-go envuelto con la instrumentación de OpenTelemetry,
// que propaga el contexto de traza en las cabeceras del mensaje.
func NewKafkaWriter(brokers []string, topic, clientID string, tp trace.TracerProvider) (MessageWriter, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: sin brokers configurados")
	}
	base := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
	w, err := otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				attribute.String("messaging.destination.name", topic),
				attribute.String("messaging.kafka.client_id", clientID),
			},
		),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka writer: %w", err)
	}
	return w, nil
}

// MovementEvent movimiento dentro del evento publicado.
type MovementEvent struct {
	ID              string          `json:"id"`
	Seq             int64           `json:"seq"`
	CompanyID       string          `json:"company_id,omitempty"`
	ProductID       string          `json:"product_id"`
	WarehouseID     string          `json:"warehouse_id"`
	Kind            string          `json:"kind"`
	Quantity        decimal.Decimal `json:"quantity"`
	SignedDelta     decimal.Decimal `json:"signed_delta"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	ReferenceLineID string          `json:"reference_line_id,omitempty"`
	ReasonCode      string          `json:"reason_code,omitempty"`
	CreatedBy       string          `json:"created_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LevelEvent nivel resultante tras el lote.
type LevelEvent struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// MovementsCommittedEvent payload del tópico de movimientos confirmados.
type MovementsCommittedEvent struct {
	GroupID     string          `json:"group_id"`
	CommittedAt time.Time       `json:"committed_at"`
	Movements   []MovementEvent `json:"movements"`
	Levels      []LevelEvent    `json:"levels"`
}

// KafkaMovementPublisher implementa inventory.MovementPublisher. La clave del mensaje es el
// GroupID, así los movimientos de un mismo lote caen en la misma partición.
type KafkaMovementPublisher struct {
	writer MessageWriter
	log    zerolog.Logger
	now    func() time.Time
}

var _ inventory.MovementPublisher = (*KafkaMovementPublisher)(nil)

// NewKafkaMovementPublisher crea el publicador.
func NewKafkaMovementPublisher(w MessageWriter, log zerolog.Logger) *KafkaMovementPublisher {
	return &KafkaMovementPublisher{writer: w, log: log, now: time.Now}
}

// PublishCommitted serializa el lote y lo envía con WriteMessage (singular, para que cada
// mensaje lleve su propio span).
func (p *KafkaMovementPublisher) PublishCommitted(ctx context.Context, result *inventory.CommitResult) error {
	if result == nil || len(result.Movements) == 0 {
		return nil
	}
	payload, err := json.Marshal(NewMovementsCommittedEvent(result, p.now().UTC()))
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(result.GroupID),
		Value: payload,
	}
	if err := p.writer.WriteMessage(ctx, msg); err != nil {
		return fmt.Errorf("publicar lote %s: %w", result.GroupID, err)
	}
	p.log.Debug().Str("group_id", result.GroupID).Int("movements", len(result.Movements)).Msg("lote publicado")
	return nil
}

// Close cierra el writer subyacente.
func (p *KafkaMovementPublisher) Close() error {
	return p.writer.Close()
}

// NewMovementsCommittedEvent arma el evento a partir del resultado del commit.
func NewMovementsCommittedEvent(result *inventory.CommitResult, at time.Time) MovementsCommittedEvent {
	ev := MovementsCommittedEvent{
		GroupID:     result.GroupID,
		CommittedAt: at,
		Movements:   make([]MovementEvent, 0, len(result.Movements)),
		Levels:      make([]LevelEvent, 0, len(result.Levels)),
	}
	for _, m := range result.Movements {
		ev.Movements = append(ev.Movements, MovementEvent{
			ID:              m.ID,
			Seq:             m.Seq,
			CompanyID:       m.CompanyID,
			ProductID:       m.ProductID,
			WarehouseID:     m.WarehouseID,
			Kind:            string(m.Kind),
			Quantity:        m.Quantity,
			SignedDelta:     m.SignedDelta(),
			ReferenceID:     m.ReferenceID,
			ReferenceLineID: m.ReferenceLineID,
			ReasonCode:      string(m.ReasonCode),
			CreatedBy:       m.CreatedBy,
			CreatedAt:       m.CreatedAt,
		})
	}
	for _, l := range result.Levels {
		ev.Levels = append(ev.Levels, LevelEvent{
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			Quantity:    l.Quantity,
		})
	}
	return ev
}
