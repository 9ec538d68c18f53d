package entity

import "time"

// Tipos de bodega.
const (
	WarehouseTypeMain       = "MAIN"
	WarehouseTypeStore      = "STORE"
	WarehouseTypeTransit    = "TRANSIT"
	WarehouseTypeThirdParty = "THIRD_PARTY"
)

// Warehouse representa una bodega o sucursal donde se almacena inventario (multi-bodega).
type Warehouse struct {
	ID        string
	CompanyID string
	Name      string
	Location  string
	Type      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValidWarehouseType indica si t es uno de los tipos de bodega soportados.
func IsValidWarehouseType(t string) bool {
	switch t {
	case WarehouseTypeMain, WarehouseTypeStore, WarehouseTypeTransit, WarehouseTypeThirdParty:
		return true
	}
	return false
}
