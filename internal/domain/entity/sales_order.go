package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesOrderStatus estado de cumplimiento de una orden de venta.
type SalesOrderStatus string

const (
	SalesOrderDraft             SalesOrderStatus = "DRAFT"
	SalesOrderConfirmed         SalesOrderStatus = "CONFIRMED"
	SalesOrderProcessing        SalesOrderStatus = "PROCESSING"
	SalesOrderReadyForDispatch  SalesOrderStatus = "READY_FOR_DISPATCH"
	SalesOrderDispatched        SalesOrderStatus = "DISPATCHED"
	SalesOrderPartiallyInvoiced SalesOrderStatus = "PARTIALLY_INVOICED"
	SalesOrderFullyInvoiced     SalesOrderStatus = "FULLY_INVOICED"
	SalesOrderCancelled         SalesOrderStatus = "CANCELLED"
)

// salesOrderTransitions avance permitido (CANCELLED se maneja aparte).
var salesOrderTransitions = map[SalesOrderStatus][]SalesOrderStatus{
	SalesOrderDraft:             {SalesOrderConfirmed},
	SalesOrderConfirmed:         {SalesOrderProcessing},
	SalesOrderProcessing:        {SalesOrderReadyForDispatch},
	SalesOrderReadyForDispatch:  {SalesOrderDispatched},
	SalesOrderDispatched:        {SalesOrderPartiallyInvoiced, SalesOrderFullyInvoiced},
	SalesOrderPartiallyInvoiced: {SalesOrderPartiallyInvoiced, SalesOrderFullyInvoiced},
}

// IsValid indica si el estado es conocido.
func (s SalesOrderStatus) IsValid() bool {
	if s == SalesOrderFullyInvoiced || s == SalesOrderCancelled {
		return true
	}
	_, ok := salesOrderTransitions[s]
	return ok
}

// IsTerminal: FULLY_INVOICED y CANCELLED no admiten más transiciones.
func (s SalesOrderStatus) IsTerminal() bool {
	return s == SalesOrderFullyInvoiced || s == SalesOrderCancelled
}

// CanTransitionTo valida la máquina de estados. CANCELLED es alcanzable desde cualquier estado no terminal.
func (s SalesOrderStatus) CanTransitionTo(target SalesOrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == SalesOrderCancelled {
		return true
	}
	for _, next := range salesOrderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// SalesOrder orden de venta (entidad externa); el ledger solo lee líneas y estado.
type SalesOrder struct {
	ID          string
	CompanyID   string
	CustomerRef string
	Status      SalesOrderStatus
	Lines       []*SalesOrderLine
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SalesOrderLine línea a despachar desde una bodega concreta.
type SalesOrderLine struct {
	ID           string
	SalesOrderID string
	ProductID    string
	WarehouseID  string
	Quantity     decimal.Decimal
}

// Clone copia profunda.
func (so *SalesOrder) Clone() *SalesOrder {
	if so == nil {
		return nil
	}
	out := *so
	out.Lines = make([]*SalesOrderLine, 0, len(so.Lines))
	for _, l := range so.Lines {
		cp := *l
		out.Lines = append(out.Lines, &cp)
	}
	return &out
}
