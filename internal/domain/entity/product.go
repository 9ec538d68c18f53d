package entity

import "time"

// Product representa un producto o SKU del catálogo (multi-bodega).
// UnitType es la unidad canónica: todas las cantidades del ledger para este producto están en esa unidad.
type Product struct {
	ID        string
	CompanyID string
	SKU       string // código único por empresa
	Name      string
	UnitType  string // UND, KG, LT, CAJA...
	CreatedAt time.Time
	UpdatedAt time.Time
}
