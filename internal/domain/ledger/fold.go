package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// LineKey identifica una línea de orden (orden, línea).
type LineKey struct {
	OrderID string
	LineID  string
}

// Projection estado derivado del log: niveles por (producto, bodega) y cantidades recibidas
// por línea de orden de compra.
type Projection struct {
	Levels   map[entity.StockKey]decimal.Decimal
	Received map[LineKey]decimal.Decimal
	Issued   map[LineKey]decimal.Decimal
	LastSeq  int64
}

// NewProjection crea una proyección vacía.
func NewProjection() *Projection {
	return &Projection{
		Levels:   make(map[entity.StockKey]decimal.Decimal),
		Received: make(map[LineKey]decimal.Decimal),
		Issued:   make(map[LineKey]decimal.Decimal),
	}
}

// Apply incorpora un movimiento. Los movimientos deben aplicarse en orden de Seq.
func (p *Projection) Apply(m *entity.StockMovement) {
	k := m.Key()
	p.Levels[k] = p.Levels[k].Add(m.SignedDelta())
	switch m.Kind {
	case entity.MovementKindReceipt:
		if m.ReferenceLineID != "" {
			lk := LineKey{OrderID: m.ReferenceID, LineID: m.ReferenceLineID}
			p.Received[lk] = p.Received[lk].Add(m.Quantity)
		}
	case entity.MovementKindSalesIssue:
		if m.ReferenceLineID != "" {
			lk := LineKey{OrderID: m.ReferenceID, LineID: m.ReferenceLineID}
			p.Issued[lk] = p.Issued[lk].Add(m.Quantity)
		}
	}
	if m.Seq > p.LastSeq {
		p.LastSeq = m.Seq
	}
}

// Fold reconstruye la proyección completa a partir de movimientos ordenados.
func Fold(movements []*entity.StockMovement) *Projection {
	p := NewProjection()
	for _, m := range movements {
		p.Apply(m)
	}
	return p
}

// TotalForProduct suma los niveles de un producto en todas las bodegas.
func (p *Projection) TotalForProduct(productID string) decimal.Decimal {
	total := decimal.Zero
	for k, q := range p.Levels {
		if k.ProductID == productID {
			total = total.Add(q)
		}
	}
	return total
}
