package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// Dentro de una transacción, Get/GetForUpdate ven las escrituras propias; los listados
// leen siempre el estado confirmado.

// LevelRepository niveles de stock.
type LevelRepository struct {
	s  *Store
	tx *tx
}

var _ repository.StockLevelRepository = (*LevelRepository)(nil)

func (r *LevelRepository) Get(_ context.Context, productID, warehouseID string) (*entity.StockLevel, error) {
	return r.get(entity.StockKey{ProductID: productID, WarehouseID: warehouseID}), nil
}

func (r *LevelRepository) get(k entity.StockKey) *entity.StockLevel {
	if r.tx != nil {
		if l, ok := r.tx.levelWrites[k]; ok {
			return cloneLevel(l)
		}
		if r.tx.replacement != nil {
			if l, ok := r.tx.replacement[k]; ok {
				return cloneLevel(l)
			}
			return zeroLevel(k)
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l := r.s.levels[k]; l != nil {
		return cloneLevel(l)
	}
	return zeroLevel(k)
}

// GetForUpdate registra la versión observada; el commit falla si cambió.
func (r *LevelRepository) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockLevel, error) {
	k := entity.StockKey{ProductID: productID, WarehouseID: warehouseID}
	if r.tx == nil {
		return r.get(k), nil
	}
	if _, seen := r.tx.levelReads[k]; !seen {
		r.s.mu.RLock()
		r.tx.levelReads[k] = r.s.levelVersionLocked(k)
		r.s.mu.RUnlock()
	}
	return r.get(k), nil
}

func (r *LevelRepository) Save(_ context.Context, level *entity.StockLevel) error {
	if r.tx != nil {
		r.tx.levelWrites[level.Key()] = level
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clock++
	level.Version = r.s.clock
	r.s.levels[level.Key()] = cloneLevel(level)
	r.s.levelClock = r.s.clock
	return nil
}

func (r *LevelRepository) ListByProduct(_ context.Context, productID string) ([]*entity.StockLevel, error) {
	return r.list(func(l *entity.StockLevel) bool { return l.ProductID == productID }), nil
}

func (r *LevelRepository) ListByWarehouse(_ context.Context, warehouseID string, limit, offset int) ([]*entity.StockLevel, error) {
	out := r.list(func(l *entity.StockLevel) bool { return l.WarehouseID == warehouseID })
	return paginate(out, limit, offset), nil
}

func (r *LevelRepository) TotalForProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	levels, _ := r.ListByProduct(ctx, productID)
	total := decimal.Zero
	for _, l := range levels {
		total = total.Add(l.Quantity)
	}
	return total, nil
}

func (r *LevelRepository) ListAll(_ context.Context) ([]*entity.StockLevel, error) {
	return r.list(func(*entity.StockLevel) bool { return true }), nil
}

// LockAll fija el reloj de niveles observado; cualquier escritura de nivel posterior
// hace fallar el commit.
func (r *LevelRepository) LockAll(_ context.Context) error {
	if r.tx == nil {
		return nil
	}
	r.s.mu.RLock()
	r.tx.lockedAll = true
	r.tx.lockedAt = r.s.levelClock
	r.s.mu.RUnlock()
	return nil
}

func (r *LevelRepository) ReplaceAll(_ context.Context, levels []*entity.StockLevel) error {
	m := make(map[entity.StockKey]*entity.StockLevel, len(levels))
	for _, l := range levels {
		m[l.Key()] = l
	}
	if r.tx != nil {
		r.tx.replacement = m
		r.tx.levelWrites = make(map[entity.StockKey]*entity.StockLevel)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.levels = make(map[entity.StockKey]*entity.StockLevel, len(m))
	for k, l := range m {
		r.s.clock++
		l.Version = r.s.clock
		r.s.levels[k] = cloneLevel(l)
	}
	r.s.levelClock = r.s.clock
	return nil
}

func (r *LevelRepository) list(keep func(*entity.StockLevel) bool) []*entity.StockLevel {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.StockLevel, 0)
	for _, l := range r.s.levels {
		if keep(l) {
			out = append(out, cloneLevel(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

// MovementRepository log append-only.
type MovementRepository struct {
	s  *Store
	tx *tx
}

var _ repository.StockMovementRepository = (*MovementRepository)(nil)

// Append dentro de una transacción deja el lote pendiente; Seq y CreatedAt se asignan al confirmar.
func (r *MovementRepository) Append(_ context.Context, movements []*entity.StockMovement) error {
	for _, m := range movements {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
	}
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, movements...)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	for _, m := range movements {
		r.s.seq++
		m.Seq = r.s.seq
		m.CreatedAt = now
		r.s.movements = append(r.s.movements, cloneMovement(m))
	}
	return nil
}

// List más recientes primero. Limit <= 0 no limita.
func (r *MovementRepository) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.StockMovement, 0)
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if f.CompanyID != "" && m.CompanyID != f.CompanyID {
			continue
		}
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.WarehouseID != "" && m.WarehouseID != f.WarehouseID {
			continue
		}
		if f.ReferenceID != "" && m.ReferenceID != f.ReferenceID {
			continue
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && m.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, cloneMovement(m))
	}
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *MovementRepository) ListAfter(_ context.Context, afterSeq int64, limit int) ([]*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	start := sort.Search(len(r.s.movements), func(i int) bool { return r.s.movements[i].Seq > afterSeq })
	end := len(r.s.movements)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	out := make([]*entity.StockMovement, 0, end-start)
	for _, m := range r.s.movements[start:end] {
		out = append(out, cloneMovement(m))
	}
	return out, nil
}

// PurchaseOrderRepository órdenes de compra.
type PurchaseOrderRepository struct {
	s  *Store
	tx *tx
}

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepository)(nil)

func (r *PurchaseOrderRepository) Create(_ context.Context, po *entity.PurchaseOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if po.ID == "" {
		po.ID = uuid.New().String()
	}
	if _, exists := r.s.purchaseOrders[po.ID]; exists {
		return domain.ErrDuplicate
	}
	now := r.s.now()
	po.CreatedAt, po.UpdatedAt = now, now
	for _, l := range po.Lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.PurchaseOrderID = po.ID
	}
	r.s.clock++
	po.Version = r.s.clock
	r.s.purchaseOrders[po.ID] = po.Clone()
	return nil
}

func (r *PurchaseOrderRepository) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	po := r.s.purchaseOrders[id]
	if po == nil {
		return nil, nil
	}
	out := po.Clone()
	if r.tx != nil {
		for lineID, received := range r.tx.poLines[id] {
			if l := out.Line(lineID); l != nil {
				l.QuantityReceived = received
			}
		}
	}
	return out, nil
}

func (r *PurchaseOrderRepository) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := r.GetByID(ctx, id)
	if err != nil || po == nil || r.tx == nil {
		return po, err
	}
	if _, seen := r.tx.poReads[id]; !seen {
		r.tx.poReads[id] = po.Version
	}
	return po, nil
}

func (r *PurchaseOrderRepository) SetLineReceived(_ context.Context, poID, lineID string, received decimal.Decimal) error {
	if r.tx != nil {
		if r.tx.poLines[poID] == nil {
			r.tx.poLines[poID] = make(map[string]decimal.Decimal)
		}
		r.tx.poLines[poID][lineID] = received
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	po := r.s.purchaseOrders[poID]
	if po == nil {
		return domain.ErrNotFound
	}
	l := po.Line(lineID)
	if l == nil {
		return domain.ErrNotFound
	}
	l.QuantityReceived = received
	r.s.clock++
	po.Version = r.s.clock
	po.UpdatedAt = r.s.now()
	return nil
}

func (r *PurchaseOrderRepository) ListLines(_ context.Context) ([]*entity.PurchaseOrderLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]string, 0, len(r.s.purchaseOrders))
	for id := range r.s.purchaseOrders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var out []*entity.PurchaseOrderLine
	for _, id := range ids {
		for _, l := range r.s.purchaseOrders[id].Lines {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// SalesOrderRepository órdenes de venta.
type SalesOrderRepository struct {
	s  *Store
	tx *tx
}

var _ repository.SalesOrderRepository = (*SalesOrderRepository)(nil)

func (r *SalesOrderRepository) Create(_ context.Context, so *entity.SalesOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if so.ID == "" {
		so.ID = uuid.New().String()
	}
	if _, exists := r.s.salesOrders[so.ID]; exists {
		return domain.ErrDuplicate
	}
	now := r.s.now()
	so.CreatedAt, so.UpdatedAt = now, now
	for _, l := range so.Lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.SalesOrderID = so.ID
	}
	r.s.clock++
	so.Version = r.s.clock
	r.s.salesOrders[so.ID] = so.Clone()
	return nil
}

func (r *SalesOrderRepository) GetByID(_ context.Context, id string) (*entity.SalesOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	so := r.s.salesOrders[id]
	if so == nil {
		return nil, nil
	}
	out := so.Clone()
	if r.tx != nil {
		if status, ok := r.tx.soStatus[id]; ok {
			out.Status = status
		}
	}
	return out, nil
}

func (r *SalesOrderRepository) GetForUpdate(ctx context.Context, id string) (*entity.SalesOrder, error) {
	so, err := r.GetByID(ctx, id)
	if err != nil || so == nil || r.tx == nil {
		return so, err
	}
	if _, seen := r.tx.soReads[id]; !seen {
		r.tx.soReads[id] = so.Version
	}
	return so, nil
}

func (r *SalesOrderRepository) UpdateStatus(_ context.Context, id string, status entity.SalesOrderStatus) error {
	if r.tx != nil {
		r.tx.soStatus[id] = status
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	so := r.s.salesOrders[id]
	if so == nil {
		return domain.ErrNotFound
	}
	so.Status = status
	r.s.clock++
	so.Version = r.s.clock
	so.UpdatedAt = r.s.now()
	return nil
}

// ProductRepository catálogo de productos.
type ProductRepository struct {
	s *Store
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.products {
		if existing.CompanyID == p.CompanyID && strings.EqualFold(existing.SKU, p.SKU) {
			return domain.ErrDuplicate
		}
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := r.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	r.s.products[p.ID] = &cp
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p := r.s.products[id]; p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *ProductRepository) GetByCompanyAndSKU(_ context.Context, companyID, sku string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.products {
		if p.CompanyID == companyID && strings.EqualFold(p.SKU, sku) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *ProductRepository) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Product, 0)
	for _, p := range r.s.products {
		if p.CompanyID == companyID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return paginate(out, limit, offset), nil
}

// WarehouseRepository catálogo de bodegas.
type WarehouseRepository struct {
	s *Store
}

var _ repository.WarehouseRepository = (*WarehouseRepository)(nil)

func (r *WarehouseRepository) Create(_ context.Context, w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	now := r.s.now()
	w.CreatedAt, w.UpdatedAt = now, now
	cp := *w
	r.s.warehouses[w.ID] = &cp
	return nil
}

func (r *WarehouseRepository) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if w := r.s.warehouses[id]; w != nil {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

func (r *WarehouseRepository) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Warehouse, 0)
	for _, w := range r.s.warehouses {
		if w.CompanyID == companyID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
