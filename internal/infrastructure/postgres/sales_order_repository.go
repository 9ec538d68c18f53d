package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

// SalesOrderRepo órdenes de venta sobre PostgreSQL.
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el adaptador.
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

// Create inserta la orden y sus líneas.
func (r *SalesOrderRepo) Create(ctx context.Context, so *entity.SalesOrder) error {
	if so.ID == "" {
		so.ID = uuid.New().String()
	}
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO sales_orders (id, company_id, customer_ref, status, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 1, now(), now())
			RETURNING version, created_at, updated_at`,
			so.ID, so.CompanyID, so.CustomerRef, string(so.Status),
		).Scan(&so.Version, &so.CreatedAt, &so.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert sales order: %w", err)
		}
		for i, l := range so.Lines {
			if l.ID == "" {
				l.ID = uuid.New().String()
			}
			l.SalesOrderID = so.ID
			_, err := tx.Exec(ctx, `
				INSERT INTO sales_order_lines (id, sales_order_id, line_no, product_id, warehouse_id, quantity)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				l.ID, so.ID, i+1, l.ProductID, l.WarehouseID, l.Quantity,
			)
			if err != nil {
				return fmt.Errorf("insert sales order line: %w", err)
			}
		}
		return nil
	})
}

// GetByID obtiene la orden con sus líneas; nil si no existe.
func (r *SalesOrderRepo) GetByID(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea la cabecera de la orden.
func (r *SalesOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return r.get(ctx, id, true)
}

func (r *SalesOrderRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.SalesOrder, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `SELECT id, company_id, customer_ref, status, version, created_at, updated_at FROM sales_orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var (
		so     entity.SalesOrder
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&so.ID, &so.CompanyID, &so.CustomerRef, &status, &so.Version, &so.CreatedAt, &so.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	so.Status = entity.SalesOrderStatus(status)

	rows, err := r.q.Query(ctx, `
		SELECT id, sales_order_id, product_id, warehouse_id, quantity
		FROM sales_order_lines WHERE sales_order_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("list sales order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SalesOrderLine
		if err := rows.Scan(&l.ID, &l.SalesOrderID, &l.ProductID, &l.WarehouseID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan sales order line: %w", err)
		}
		so.Lines = append(so.Lines, &l)
	}
	return &so, rows.Err()
}

// UpdateStatus cambia el estado e incrementa la versión.
func (r *SalesOrderRepo) UpdateStatus(ctx context.Context, id string, status entity.SalesOrderStatus) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sales_orders SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update sales order status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
