// Package memory motor en memoria del ledger. Concurrencia optimista: las transacciones leen
// fuera de la sección crítica y al confirmar se validan las versiones observadas.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Store guarda todo el estado del ledger en mapas protegidos por un RWMutex.
type Store struct {
	mu         sync.RWMutex
	clock      int64 // versiones; crece en cada escritura confirmada
	seq        int64
	levelClock int64 // última versión escrita en cualquier nivel

	movements      []*entity.StockMovement
	levels         map[entity.StockKey]*entity.StockLevel
	products       map[string]*entity.Product
	warehouses     map[string]*entity.Warehouse
	purchaseOrders map[string]*entity.PurchaseOrder
	salesOrders    map[string]*entity.SalesOrder

	now func() time.Time
}

// NewStore crea un motor vacío.
func NewStore() *Store {
	return &Store{
		levels:         make(map[entity.StockKey]*entity.StockLevel),
		products:       make(map[string]*entity.Product),
		warehouses:     make(map[string]*entity.Warehouse),
		purchaseOrders: make(map[string]*entity.PurchaseOrder),
		salesOrders:    make(map[string]*entity.SalesOrder),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

var _ inventory.TxRunner = (*Store)(nil)

// Run ejecuta fn sobre una transacción optimista. Si otra transacción confirmó antes sobre
// lo que fn leyó para actualizar, devuelve domain.ErrConflict y no aplica nada.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.TxRepositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx(s)
	if err := fn(t.repositories()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(t)
}

// Repositorios sobre el estado confirmado (fuera de transacción).

func (s *Store) Levels() *LevelRepository                 { return &LevelRepository{s: s} }
func (s *Store) Movements() *MovementRepository           { return &MovementRepository{s: s} }
func (s *Store) PurchaseOrders() *PurchaseOrderRepository { return &PurchaseOrderRepository{s: s} }
func (s *Store) SalesOrders() *SalesOrderRepository       { return &SalesOrderRepository{s: s} }
func (s *Store) Products() *ProductRepository             { return &ProductRepository{s: s} }
func (s *Store) Warehouses() *WarehouseRepository         { return &WarehouseRepository{s: s} }

// tx cambios pendientes y versiones observadas de una transacción.
type tx struct {
	s *Store

	levelReads  map[entity.StockKey]int64
	levelWrites map[entity.StockKey]*entity.StockLevel
	lockedAll   bool
	lockedAt    int64
	replacement map[entity.StockKey]*entity.StockLevel

	movements []*entity.StockMovement

	poReads map[string]int64
	poLines map[string]map[string]decimal.Decimal

	soReads  map[string]int64
	soStatus map[string]entity.SalesOrderStatus
}

func newTx(s *Store) *tx {
	return &tx{
		s:           s,
		levelReads:  make(map[entity.StockKey]int64),
		levelWrites: make(map[entity.StockKey]*entity.StockLevel),
		poReads:     make(map[string]int64),
		poLines:     make(map[string]map[string]decimal.Decimal),
		soReads:     make(map[string]int64),
		soStatus:    make(map[string]entity.SalesOrderStatus),
	}
}

func (t *tx) repositories() inventory.TxRepositories {
	return inventory.TxRepositories{
		Movements:      &MovementRepository{s: t.s, tx: t},
		Levels:         &LevelRepository{s: t.s, tx: t},
		PurchaseOrders: &PurchaseOrderRepository{s: t.s, tx: t},
		SalesOrders:    &SalesOrderRepository{s: t.s, tx: t},
	}
}

func conflict(what, id string) error {
	return fmt.Errorf("%w: %s %s modificado por otra transacción", domain.ErrConflict, what, id)
}

// commit valida lo observado y aplica los cambios bajo el lock exclusivo.
// Toda entidad leída para actualizar recibe una versión nueva aunque no se haya escrito,
// de modo que dos transacciones que leyeron lo mismo no confirman ambas.
func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range t.levelReads {
		if s.levelVersionLocked(k) != v {
			return conflict("nivel", k.ProductID+"/"+k.WarehouseID)
		}
	}
	if t.lockedAll && s.levelClock != t.lockedAt {
		return conflict("proyección", "completa")
	}
	for id, v := range t.poReads {
		if po := s.purchaseOrders[id]; po == nil || po.Version != v {
			return conflict("orden de compra", id)
		}
	}
	for id, v := range t.soReads {
		if so := s.salesOrders[id]; so == nil || so.Version != v {
			return conflict("orden de venta", id)
		}
	}

	now := s.now()
	for _, m := range t.movements {
		s.seq++
		m.Seq = s.seq
		m.CreatedAt = now
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		s.movements = append(s.movements, cloneMovement(m))
	}

	if t.replacement != nil {
		s.levels = make(map[entity.StockKey]*entity.StockLevel, len(t.replacement))
		for k, l := range t.replacement {
			s.clock++
			l.Version = s.clock
			s.levels[k] = cloneLevel(l)
		}
		s.levelClock = s.clock
	}
	for k := range t.levelReads {
		if _, written := t.levelWrites[k]; written {
			continue
		}
		if cur := s.levels[k]; cur != nil {
			s.clock++
			cur.Version = s.clock
			s.levelClock = s.clock
		}
	}
	for k, l := range t.levelWrites {
		s.clock++
		l.Version = s.clock
		s.levels[k] = cloneLevel(l)
		s.levelClock = s.clock
	}

	touchedPO := make(map[string]struct{}, len(t.poReads)+len(t.poLines))
	for id := range t.poReads {
		touchedPO[id] = struct{}{}
	}
	for id, lines := range t.poLines {
		touchedPO[id] = struct{}{}
		po := s.purchaseOrders[id]
		if po == nil {
			continue
		}
		for lineID, received := range lines {
			if l := po.Line(lineID); l != nil {
				l.QuantityReceived = received
			}
		}
	}
	for id := range touchedPO {
		if po := s.purchaseOrders[id]; po != nil {
			s.clock++
			po.Version = s.clock
			po.UpdatedAt = now
		}
	}

	touchedSO := make(map[string]struct{}, len(t.soReads)+len(t.soStatus))
	for id := range t.soReads {
		touchedSO[id] = struct{}{}
	}
	for id, status := range t.soStatus {
		touchedSO[id] = struct{}{}
		if so := s.salesOrders[id]; so != nil {
			so.Status = status
		}
	}
	for id := range touchedSO {
		if so := s.salesOrders[id]; so != nil {
			s.clock++
			so.Version = s.clock
			so.UpdatedAt = now
		}
	}
	return nil
}

func (s *Store) levelVersionLocked(k entity.StockKey) int64 {
	if l := s.levels[k]; l != nil {
		return l.Version
	}
	return 0
}

func cloneLevel(l *entity.StockLevel) *entity.StockLevel {
	cp := *l
	return &cp
}

func cloneMovement(m *entity.StockMovement) *entity.StockMovement {
	cp := *m
	return &cp
}

func zeroLevel(k entity.StockKey) *entity.StockLevel {
	return &entity.StockLevel{ProductID: k.ProductID, WarehouseID: k.WarehouseID, Quantity: decimal.Zero}
}
