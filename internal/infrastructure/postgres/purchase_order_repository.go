package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo órdenes de compra sobre PostgreSQL (usable con pool o tx).
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador.
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create inserta la cabecera y sus líneas en una sola transacción (savepoint si q ya es tx).
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	if po.ID == "" {
		po.ID = uuid.New().String()
	}
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO purchase_orders (id, company_id, supplier_ref, version, created_at, updated_at)
			VALUES ($1, $2, $3, 1, now(), now())
			RETURNING version, created_at, updated_at`,
			po.ID, po.CompanyID, po.SupplierRef,
		).Scan(&po.Version, &po.CreatedAt, &po.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert purchase order: %w", err)
		}
		for i, l := range po.Lines {
			if l.ID == "" {
				l.ID = uuid.New().String()
			}
			l.PurchaseOrderID = po.ID
			_, err := tx.Exec(ctx, `
				INSERT INTO purchase_order_lines (id, purchase_order_id, line_no, product_id, quantity_ordered, quantity_received)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				l.ID, po.ID, i+1, l.ProductID, l.QuantityOrdered, l.QuantityReceived,
			)
			if err != nil {
				return fmt.Errorf("insert purchase order line: %w", err)
			}
		}
		return nil
	})
}

// GetByID obtiene la orden con sus líneas; nil si no existe.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea la cabecera: dos recepciones de la misma orden se serializan.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, true)
}

func (r *PurchaseOrderRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.PurchaseOrder, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `SELECT id, company_id, supplier_ref, version, created_at, updated_at FROM purchase_orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var po entity.PurchaseOrder
	err := r.q.QueryRow(ctx, query, id).Scan(&po.ID, &po.CompanyID, &po.SupplierRef, &po.Version, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	po.Lines, err = r.lines(ctx, `WHERE purchase_order_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// SetLineReceived fija la cantidad recibida (el CHECK de la tabla impide superar lo ordenado).
func (r *PurchaseOrderRepo) SetLineReceived(ctx context.Context, poID, lineID string, received decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE purchase_order_lines SET quantity_received = $3
		WHERE purchase_order_id = $1 AND id = $2`, poID, lineID, received)
	if err != nil {
		return fmt.Errorf("update purchase order line: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `UPDATE purchase_orders SET version = version + 1, updated_at = now() WHERE id = $1`, poID); err != nil {
		return fmt.Errorf("touch purchase order: %w", err)
	}
	return nil
}

// ListLines todas las líneas, para reconstrucción.
func (r *PurchaseOrderRepo) ListLines(ctx context.Context) ([]*entity.PurchaseOrderLine, error) {
	return r.lines(ctx, `ORDER BY purchase_order_id, line_no`)
}

func (r *PurchaseOrderRepo) lines(ctx context.Context, tail string, args ...any) ([]*entity.PurchaseOrderLine, error) {
	query := `SELECT id, purchase_order_id, product_id, quantity_ordered, quantity_received FROM purchase_order_lines ` + tail
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase order lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.PurchaseOrderLine
	for rows.Next() {
		var l entity.PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.ProductID, &l.QuantityOrdered, &l.QuantityReceived); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
