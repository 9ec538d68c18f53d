package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo proyección de niveles sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

const levelColumns = `product_id, warehouse_id, quantity, version, updated_at`

// Get obtiene el nivel actual; cantidad 0 si la fila no existe.
func (r *StockLevelRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM stock_levels WHERE product_id = $1 AND warehouse_id = $2`
	l, err := scanLevel(r.q.QueryRow(ctx, query, productID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLevel{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return l, nil
}

// GetForUpdate materializa la fila si no existe y la bloquea (SELECT FOR UPDATE), de modo que
// incluso la primera entrada de un par (producto, bodega) se serializa.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (product_id, warehouse_id, quantity, version, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("materialize stock level: %w", err)
	}
	query := `SELECT ` + levelColumns + ` FROM stock_levels WHERE product_id = $1 AND warehouse_id = $2 FOR UPDATE`
	l, err := scanLevel(r.q.QueryRow(ctx, query, productID, warehouseID))
	if err != nil {
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return l, nil
}

// Save escribe la cantidad e incrementa la versión.
func (r *StockLevelRepo) Save(ctx context.Context, level *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (product_id, warehouse_id, quantity, version, updated_at)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, version = stock_levels.version + 1, updated_at = now()
		RETURNING version, updated_at`
	err := r.q.QueryRow(ctx, query, level.ProductID, level.WarehouseID, level.Quantity).
		Scan(&level.Version, &level.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save stock level: %w", err)
	}
	return nil
}

// ListByProduct desglose por bodega de un producto.
func (r *StockLevelRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM stock_levels WHERE product_id = $1 ORDER BY warehouse_id`
	return r.list(ctx, query, productID)
}

// ListByWarehouse niveles de una bodega con paginación (limit <= 0 sin límite).
func (r *StockLevelRepo) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.StockLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM stock_levels WHERE warehouse_id = $1 ORDER BY product_id LIMIT $2 OFFSET $3`
	return r.list(ctx, query, warehouseID, nullableLimit(limit), offset)
}

// TotalForProduct suma en todas las bodegas.
func (r *StockLevelRepo) TotalForProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM stock_levels WHERE product_id = $1`, productID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total for product: %w", err)
	}
	return total, nil
}

// ListAll toda la proyección.
func (r *StockLevelRepo) ListAll(ctx context.Context) ([]*entity.StockLevel, error) {
	return r.list(ctx, `SELECT `+levelColumns+` FROM stock_levels ORDER BY product_id, warehouse_id`)
}

// LockAll bloquea la tabla contra escritores (los SELECT FOR UPDATE del ledger esperan).
func (r *StockLevelRepo) LockAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `LOCK TABLE stock_levels IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock stock_levels: %w", err)
	}
	return nil
}

// ReplaceAll borra la proyección y la carga con COPY.
func (r *StockLevelRepo) ReplaceAll(ctx context.Context, levels []*entity.StockLevel) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_levels`); err != nil {
		return fmt.Errorf("clear stock_levels: %w", err)
	}
	if len(levels) == 0 {
		return nil
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"stock_levels"},
		[]string{"product_id", "warehouse_id", "quantity", "version", "updated_at"},
		pgx.CopyFromSlice(len(levels), func(i int) ([]any, error) {
			l := levels[i]
			l.Version = 1
			return []any{l.ProductID, l.WarehouseID, l.Quantity, l.Version, l.UpdatedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy stock_levels: %w", err)
	}
	return nil
}

func (r *StockLevelRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockLevel, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockLevel
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func scanLevel(row pgx.Row) (*entity.StockLevel, error) {
	var l entity.StockLevel
	if err := row.Scan(&l.ProductID, &l.WarehouseID, &l.Quantity, &l.Version, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// nullableLimit LIMIT NULL equivale a sin límite.
func nullableLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
