package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo log append-only sobre PostgreSQL. No hay UPDATE ni DELETE (un trigger lo impide).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `seq, id, company_id, product_id, warehouse_id, kind, quantity, reference_id, reference_line_id,
	group_id, reason_code, created_at, created_by`

// Append inserta el lote en orden; seq y created_at los asigna la base de datos.
func (r *StockMovementRepo) Append(ctx context.Context, movements []*entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, company_id, product_id, warehouse_id, kind, quantity, signed_delta,
			reference_id, reference_line_id, group_id, reason_code, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq, created_at`
	for _, m := range movements {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		err := r.q.QueryRow(ctx, query,
			m.ID, m.CompanyID, m.ProductID, m.WarehouseID, string(m.Kind), m.Quantity, m.SignedDelta(),
			m.ReferenceID, m.ReferenceLineID, m.GroupID, string(m.ReasonCode), m.CreatedBy,
		).Scan(&m.Seq, &m.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert stock movement: %w", err)
		}
	}
	return nil
}

// List filtra por empresa, producto, bodega, referencia y rango de fechas; más recientes primero.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CompanyID != "" {
		add("company_id = $%d", f.CompanyID)
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.WarehouseID != "" {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.ReferenceID != "" {
		add("reference_id = $%d", f.ReferenceID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, nullableLimit(f.Limit), f.Offset)
	query += fmt.Sprintf(` ORDER BY seq DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return r.list(ctx, query, args...)
}

// ListAfter página de replay en orden ascendente de seq.
func (r *StockMovementRepo) ListAfter(ctx context.Context, afterSeq int64, limit int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE seq > $1 ORDER BY seq LIMIT $2`
	return r.list(ctx, query, afterSeq, nullableLimit(limit))
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m      entity.StockMovement
		kind   string
		reason string
	)
	err := row.Scan(&m.Seq, &m.ID, &m.CompanyID, &m.ProductID, &m.WarehouseID, &kind, &m.Quantity,
		&m.ReferenceID, &m.ReferenceLineID, &m.GroupID, &reason, &m.CreatedAt, &m.CreatedBy)
	if err != nil {
		return nil, err
	}
	m.Kind = entity.MovementKind(kind)
	m.ReasonCode = entity.AdjustmentReason(reason)
	return &m, nil
}
