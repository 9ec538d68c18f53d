package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const tracerName = "github.com/jhoicas/inventario-ledger/internal/application/inventory"

// DefaultMaxRetries reintentos ante conflicto de concurrencia antes de rendirse.
const DefaultMaxRetries = 5

// CommitResult lote confirmado: movimientos con Seq asignado y niveles resultantes.
type CommitResult struct {
	GroupID   string
	Movements []*entity.StockMovement
	Levels    []*entity.StockLevel
}

// Level devuelve el nivel resultante para (producto, bodega) o nil.
func (r *CommitResult) Level(productID, warehouseID string) *entity.StockLevel {
	for _, l := range r.Levels {
		if l.ProductID == productID && l.WarehouseID == warehouseID {
			return l
		}
	}
	return nil
}

// StockLedger única puerta de escritura del inventario. Agrega lotes de movimientos de forma
// atómica, verifica suficiencia por (producto, bodega) al confirmar y mantiene la proyección
// de niveles en la misma transacción.
type StockLedger struct {
	txRunner   TxRunner
	levels     repository.StockLevelRepository
	publisher  MovementPublisher
	maxRetries int
	backoff    func() backoff.BackOff
	log        zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// LedgerOption configura el StockLedger.
type LedgerOption func(*StockLedger)

// WithPublisher registra el publicador de eventos de lotes confirmados.
func WithPublisher(p MovementPublisher) LedgerOption {
	return func(l *StockLedger) {
		if p != nil {
			l.publisher = p
		}
	}
}

// WithMaxRetries fija cuántas veces se reintenta un lote ante ErrConflict.
func WithMaxRetries(n int) LedgerOption {
	return func(l *StockLedger) {
		if n >= 0 {
			l.maxRetries = n
		}
	}
}

// WithBackOff reemplaza la política de espera entre reintentos.
func WithBackOff(fn func() backoff.BackOff) LedgerOption {
	return func(l *StockLedger) { l.backoff = fn }
}

// WithLogger fija el logger.
func WithLogger(log zerolog.Logger) LedgerOption {
	return func(l *StockLedger) { l.log = log }
}

// WithClock reemplaza el reloj (pruebas).
func WithClock(now func() time.Time) LedgerOption {
	return func(l *StockLedger) { l.now = now }
}

// NewStockLedger construye el ledger. levels se usa solo para lecturas fuera de transacción.
func NewStockLedger(txRunner TxRunner, levels repository.StockLevelRepository, opts ...LedgerOption) *StockLedger {
	l := &StockLedger{
		txRunner:   txRunner,
		levels:     levels,
		publisher:  NoopPublisher{},
		maxRetries: DefaultMaxRetries,
		backoff:    defaultBackOff,
		log:        zerolog.Nop(),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return b
}

// Append valida y confirma el lote completo o nada. Devuelve *domain.ValidationError,
// *domain.InsufficientStockError o ErrConflict si se agotan los reintentos.
func (l *StockLedger) Append(ctx context.Context, movements []*entity.StockMovement) (*CommitResult, error) {
	ctx, span := l.tracer.Start(ctx, "StockLedger.Append", trace.WithAttributes(
		attribute.Int("ledger.batch_size", len(movements)),
	))
	defer span.End()

	if r := ledger.ValidateBatch(movements); !r.OK() {
		return nil, r.Err()
	}
	l.stamp(movements, "")

	var result *CommitResult
	err := l.RunAtomic(ctx, func(repos TxRepositories) error {
		res, err := l.AppendInTx(ctx, repos, movements)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("ledger.group_id", result.GroupID))
	l.publish(ctx, result)
	return result, nil
}

// AppendInTx agrega el lote usando repositorios de una transacción abierta por el llamador.
// Bloquea las llaves tocadas en orden total para no provocar interbloqueos entre lotes.
func (l *StockLedger) AppendInTx(ctx context.Context, repos TxRepositories, movements []*entity.StockMovement) (*CommitResult, error) {
	if r := ledger.ValidateBatch(movements); !r.OK() {
		return nil, r.Err()
	}
	groupID := l.stamp(movements, "")

	deltas := make(map[entity.StockKey]decimal.Decimal, len(movements))
	for _, m := range movements {
		k := m.Key()
		deltas[k] = deltas[k].Add(m.SignedDelta())
	}
	keys := make([]entity.StockKey, 0, len(deltas))
	for k := range deltas {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	levels := make([]*entity.StockLevel, 0, len(keys))
	for _, k := range keys {
		lvl, err := repos.Levels.GetForUpdate(ctx, k.ProductID, k.WarehouseID)
		if err != nil {
			return nil, fmt.Errorf("leer nivel %s/%s: %w", k.ProductID, k.WarehouseID, err)
		}
		next := lvl.Quantity.Add(deltas[k])
		if next.IsNegative() {
			return nil, &domain.InsufficientStockError{
				ProductID:   k.ProductID,
				WarehouseID: k.WarehouseID,
				Available:   lvl.Quantity,
				Requested:   deltas[k].Neg(),
			}
		}
		lvl.Quantity = next
		levels = append(levels, lvl)
	}

	if err := repos.Movements.Append(ctx, movements); err != nil {
		return nil, fmt.Errorf("agregar movimientos: %w", err)
	}
	now := l.now()
	for _, lvl := range levels {
		lvl.UpdatedAt = now
		if err := repos.Levels.Save(ctx, lvl); err != nil {
			return nil, fmt.Errorf("guardar nivel %s/%s: %w", lvl.ProductID, lvl.WarehouseID, err)
		}
	}
	return &CommitResult{GroupID: groupID, Movements: movements, Levels: levels}, nil
}

// RunAtomic ejecuta fn en una transacción y la repite completa ante ErrConflict,
// con espera exponencial y un máximo de reintentos. Otros errores se devuelven sin reintentar.
func (l *StockLedger) RunAtomic(ctx context.Context, fn func(repos TxRepositories) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := l.txRunner.Run(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrConflict) {
			l.log.Warn().Err(err).Int("attempt", attempt).Msg("conflicto de concurrencia en el ledger, reintentando")
			return err
		}
		return backoff.Permanent(err)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(l.backoff(), uint64(l.maxRetries)), ctx)
	err := backoff.Retry(op, policy)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("%w: reintentos agotados tras %d intentos", domain.ErrConflict, attempt)
	}
	return err
}

// CurrentLevel cantidad actual en (producto, bodega); 0 si nunca hubo movimientos.
func (l *StockLedger) CurrentLevel(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	lvl, err := l.levels.Get(ctx, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	return lvl.Quantity, nil
}

// TotalForProduct suma de niveles del producto en todas las bodegas.
func (l *StockLedger) TotalForProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	return l.levels.TotalForProduct(ctx, productID)
}

// stamp asigna ID y grupo a los movimientos que no los traen. Devuelve el grupo del lote.
func (l *StockLedger) stamp(movements []*entity.StockMovement, groupID string) string {
	if groupID == "" {
		for _, m := range movements {
			if m.GroupID != "" {
				groupID = m.GroupID
				break
			}
		}
	}
	if groupID == "" {
		groupID = uuid.New().String()
	}
	for _, m := range movements {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.GroupID == "" {
			m.GroupID = groupID
		}
	}
	return groupID
}

func (l *StockLedger) publish(ctx context.Context, result *CommitResult) {
	if result == nil {
		return
	}
	if err := l.publisher.PublishCommitted(ctx, result); err != nil {
		l.log.Error().Err(err).Str("group_id", result.GroupID).Msg("no se pudo publicar el lote confirmado")
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
