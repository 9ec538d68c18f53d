package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel es el stock actual de un producto en una bodega.
// Derivado de los movimientos (caché materializada); Version cambia en cada escritura.
type StockLevel struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	Version     int64
	UpdatedAt   time.Time
}

// StockKey identifica un par (producto, bodega).
type StockKey struct {
	ProductID   string
	WarehouseID string
}

// Key devuelve la llave (producto, bodega) del nivel.
func (l *StockLevel) Key() StockKey {
	return StockKey{ProductID: l.ProductID, WarehouseID: l.WarehouseID}
}

// Less ordena llaves de forma total; se usa para bloquear filas siempre en el mismo orden.
func (k StockKey) Less(o StockKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	return k.WarehouseID < o.WarehouseID
}
