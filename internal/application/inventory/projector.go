package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

const (
	replayPageSize = 1000
	stockCardLimit = 500
)

// ProductStock total de un producto y su desglose por bodega.
type ProductStock struct {
	ProductID string
	Total     decimal.Decimal
	Levels    []*entity.StockLevel
}

// StockCardEntry movimiento del kardex con el saldo después de aplicarlo.
type StockCardEntry struct {
	Movement *entity.StockMovement
	Balance  decimal.Decimal
}

// StockCard kardex de un producto (opcionalmente de una sola bodega), en orden cronológico.
type StockCard struct {
	Product        *entity.Product
	Warehouse      *entity.Warehouse
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	Entries        []StockCardEntry
}

// Drift diferencia entre la proyección guardada y la que resulta del replay.
type Drift struct {
	ProductID   string
	WarehouseID string
	Projected   decimal.Decimal
	Replayed    decimal.Decimal
}

// VerifyReport resultado de comparar la proyección contra el log.
type VerifyReport struct {
	MovementsReplayed int
	LastSeq           int64
	Drifts            []Drift
}

// RebuildReport resultado de reconstruir la proyección.
type RebuildReport struct {
	MovementsReplayed int
	LastSeq           int64
	Levels            int
	LinesUpdated      int
}

// StockProjector lecturas sobre la proyección y replay del log.
type StockProjector struct {
	ledger    *StockLedger
	levels    repository.StockLevelRepository
	movements repository.StockMovementRepository
	catalog   Catalog
}

// NewStockProjector construye el proyector. levels y movements son lecturas fuera de transacción.
func NewStockProjector(l *StockLedger, levels repository.StockLevelRepository, movements repository.StockMovementRepository, catalog Catalog) *StockProjector {
	return &StockProjector{ledger: l, levels: levels, movements: movements, catalog: catalog}
}

// CurrentLevel nivel de (producto, bodega) verificando que ambos pertenezcan a la empresa.
func (p *StockProjector) CurrentLevel(ctx context.Context, companyID, productID, warehouseID string) (*entity.StockLevel, error) {
	if _, err := requireProduct(ctx, p.catalog, companyID, productID); err != nil {
		return nil, err
	}
	if _, err := requireWarehouse(ctx, p.catalog, companyID, warehouseID); err != nil {
		return nil, err
	}
	return p.levels.Get(ctx, productID, warehouseID)
}

// ProductStock total del producto más el desglose por bodega.
func (p *StockProjector) ProductStock(ctx context.Context, companyID, productID string) (*ProductStock, error) {
	if _, err := requireProduct(ctx, p.catalog, companyID, productID); err != nil {
		return nil, err
	}
	levels, err := p.levels.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, l := range levels {
		total = total.Add(l.Quantity)
	}
	return &ProductStock{ProductID: productID, Total: total, Levels: levels}, nil
}

// WarehouseStock niveles de una bodega, paginados.
func (p *StockProjector) WarehouseStock(ctx context.Context, companyID, warehouseID string, limit, offset int) ([]*entity.StockLevel, error) {
	if _, err := requireWarehouse(ctx, p.catalog, companyID, warehouseID); err != nil {
		return nil, err
	}
	return p.levels.ListByWarehouse(ctx, warehouseID, limit, offset)
}

// Movements historial de movimientos de la empresa (más recientes primero). Si el filtro trae
// producto o bodega se verifican contra la empresa.
func (p *StockProjector) Movements(ctx context.Context, companyID string, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if companyID == "" {
		return nil, domain.ErrUnauthorized
	}
	filter.CompanyID = companyID
	if filter.ProductID != "" {
		if _, err := requireProduct(ctx, p.catalog, companyID, filter.ProductID); err != nil {
			return nil, err
		}
	}
	if filter.WarehouseID != "" {
		if _, err := requireWarehouse(ctx, p.catalog, companyID, filter.WarehouseID); err != nil {
			return nil, err
		}
	}
	return p.movements.List(ctx, filter)
}

// StockCard arma el kardex con saldo corrido. Incluye a lo sumo los últimos movimientos;
// el saldo inicial se deduce del nivel actual.
func (p *StockProjector) StockCard(ctx context.Context, companyID, productID, warehouseID string) (*StockCard, error) {
	product, err := requireProduct(ctx, p.catalog, companyID, productID)
	if err != nil {
		return nil, err
	}
	card := &StockCard{Product: product}
	var closing decimal.Decimal
	if warehouseID != "" {
		wh, err := requireWarehouse(ctx, p.catalog, companyID, warehouseID)
		if err != nil {
			return nil, err
		}
		card.Warehouse = wh
		lvl, err := p.levels.Get(ctx, productID, warehouseID)
		if err != nil {
			return nil, err
		}
		closing = lvl.Quantity
	} else {
		if closing, err = p.levels.TotalForProduct(ctx, productID); err != nil {
			return nil, err
		}
	}

	list, err := p.movements.List(ctx, repository.MovementFilter{
		CompanyID:   product.CompanyID,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Limit:       stockCardLimit,
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Seq < list[j].Seq })

	opening := closing
	for _, m := range list {
		opening = opening.Sub(m.SignedDelta())
	}
	card.OpeningBalance = opening
	card.ClosingBalance = closing
	balance := opening
	for _, m := range list {
		balance = balance.Add(m.SignedDelta())
		card.Entries = append(card.Entries, StockCardEntry{Movement: m, Balance: balance})
	}
	return card, nil
}

// Verify reproduce el log completo y lo compara con la proyección guardada. Log y proyección se
// leen con la proyección bloqueada, así un lote confirmado a mitad de camino no aparece como deriva.
// Es una operación de plataforma: abarca a todas las empresas.
func (p *StockProjector) Verify(ctx context.Context) (*VerifyReport, error) {
	var (
		proj   *ledger.Projection
		n      int
		stored []*entity.StockLevel
	)
	err := p.ledger.RunAtomic(ctx, func(repos TxRepositories) error {
		if err := repos.Levels.LockAll(ctx); err != nil {
			return fmt.Errorf("bloquear proyección: %w", err)
		}
		var err error
		if proj, n, err = replay(ctx, repos.Movements); err != nil {
			return err
		}
		if stored, err = repos.Levels.ListAll(ctx); err != nil {
			return fmt.Errorf("leer proyección: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	report := &VerifyReport{MovementsReplayed: n, LastSeq: proj.LastSeq}
	seen := make(map[entity.StockKey]struct{}, len(stored))
	for _, l := range stored {
		k := l.Key()
		seen[k] = struct{}{}
		if replayed := proj.Levels[k]; !replayed.Equal(l.Quantity) {
			report.Drifts = append(report.Drifts, Drift{ProductID: k.ProductID, WarehouseID: k.WarehouseID, Projected: l.Quantity, Replayed: replayed})
		}
	}
	for k, q := range proj.Levels {
		if _, ok := seen[k]; !ok && !q.IsZero() {
			report.Drifts = append(report.Drifts, Drift{ProductID: k.ProductID, WarehouseID: k.WarehouseID, Projected: decimal.Zero, Replayed: q})
		}
	}
	sort.Slice(report.Drifts, func(i, j int) bool {
		a := entity.StockKey{ProductID: report.Drifts[i].ProductID, WarehouseID: report.Drifts[i].WarehouseID}
		b := entity.StockKey{ProductID: report.Drifts[j].ProductID, WarehouseID: report.Drifts[j].WarehouseID}
		return a.Less(b)
	})
	return report, nil
}

// Rebuild descarta la proyección y la recalcula desde seq 0, junto con quantity_received
// de las órdenes de compra. Bloquea a los escritores mientras dura. Operación de plataforma.
func (p *StockProjector) Rebuild(ctx context.Context) (*RebuildReport, error) {
	var report *RebuildReport
	err := p.ledger.RunAtomic(ctx, func(repos TxRepositories) error {
		if err := repos.Levels.LockAll(ctx); err != nil {
			return fmt.Errorf("bloquear proyección: %w", err)
		}
		proj, n, err := replay(ctx, repos.Movements)
		if err != nil {
			return err
		}
		now := p.ledger.now()
		levels := make([]*entity.StockLevel, 0, len(proj.Levels))
		for k, q := range proj.Levels {
			levels = append(levels, &entity.StockLevel{ProductID: k.ProductID, WarehouseID: k.WarehouseID, Quantity: q, UpdatedAt: now})
		}
		sort.Slice(levels, func(i, j int) bool { return levels[i].Key().Less(levels[j].Key()) })
		if err := repos.Levels.ReplaceAll(ctx, levels); err != nil {
			return fmt.Errorf("reemplazar proyección: %w", err)
		}

		lines, err := repos.PurchaseOrders.ListLines(ctx)
		if err != nil {
			return fmt.Errorf("listar líneas de compra: %w", err)
		}
		updated := 0
		for _, line := range lines {
			received := proj.Received[ledger.LineKey{OrderID: line.PurchaseOrderID, LineID: line.ID}]
			if received.Equal(line.QuantityReceived) {
				continue
			}
			if err := repos.PurchaseOrders.SetLineReceived(ctx, line.PurchaseOrderID, line.ID, received); err != nil {
				return fmt.Errorf("actualizar línea %s: %w", line.ID, err)
			}
			updated++
		}
		report = &RebuildReport{MovementsReplayed: n, LastSeq: proj.LastSeq, Levels: len(levels), LinesUpdated: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.ledger.log.Info().Int("movements", report.MovementsReplayed).Int("levels", report.Levels).
		Int("po_lines", report.LinesUpdated).Msg("proyección reconstruida desde el log")
	return report, nil
}

func replay(ctx context.Context, movements repository.StockMovementRepository) (*ledger.Projection, int, error) {
	proj := ledger.NewProjection()
	var after int64
	n := 0
	for {
		page, err := movements.ListAfter(ctx, after, replayPageSize)
		if err != nil {
			return nil, 0, fmt.Errorf("leer log desde %d: %w", after, err)
		}
		for _, m := range page {
			proj.Apply(m)
			after = m.Seq
		}
		n += len(page)
		if len(page) < replayPageSize {
			return proj, n, nil
		}
	}
}
