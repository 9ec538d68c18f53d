package usecase

import (
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// ToMovementResponse convierte un movimiento del ledger.
func ToMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              m.ID,
		Seq:             m.Seq,
		ProductID:       m.ProductID,
		WarehouseID:     m.WarehouseID,
		Kind:            string(m.Kind),
		Quantity:        m.Quantity,
		SignedDelta:     m.SignedDelta(),
		ReferenceID:     m.ReferenceID,
		ReferenceLineID: m.ReferenceLineID,
		GroupID:         m.GroupID,
		ReasonCode:      string(m.ReasonCode),
		CreatedAt:       m.CreatedAt,
		CreatedBy:       m.CreatedBy,
	}
}

// ToMovementResponses convierte una lista de movimientos.
func ToMovementResponses(list []*entity.StockMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m))
	}
	return out
}

// ToStockLevelResponse convierte un nivel; un par nunca tocado no lleva updated_at.
func ToStockLevelResponse(l *entity.StockLevel) dto.StockLevelResponse {
	r := dto.StockLevelResponse{ProductID: l.ProductID, WarehouseID: l.WarehouseID, Quantity: l.Quantity}
	if !l.UpdatedAt.IsZero() {
		t := l.UpdatedAt
		r.UpdatedAt = &t
	}
	return r
}

// ToStockLevelResponses convierte una lista de niveles.
func ToStockLevelResponses(list []*entity.StockLevel) []dto.StockLevelResponse {
	out := make([]dto.StockLevelResponse, 0, len(list))
	for _, l := range list {
		out = append(out, ToStockLevelResponse(l))
	}
	return out
}

// ToCommitResponse convierte el resultado de un lote confirmado.
func ToCommitResponse(r *inventory.CommitResult) *dto.CommitResponse {
	if r == nil {
		return nil
	}
	return &dto.CommitResponse{
		GroupID:   r.GroupID,
		Movements: ToMovementResponses(r.Movements),
		Levels:    ToStockLevelResponses(r.Levels),
	}
}

// ToPurchaseOrderResponse incluye el estado derivado y lo pendiente por línea.
func ToPurchaseOrderResponse(po *entity.PurchaseOrder) *dto.PurchaseOrderResponse {
	if po == nil {
		return nil
	}
	out := &dto.PurchaseOrderResponse{
		ID:          po.ID,
		CompanyID:   po.CompanyID,
		SupplierRef: po.SupplierRef,
		Status:      po.Status(),
		Lines:       make([]dto.PurchaseOrderLineResponse, 0, len(po.Lines)),
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}
	for _, l := range po.Lines {
		out.Lines = append(out.Lines, dto.PurchaseOrderLineResponse{
			ID:               l.ID,
			ProductID:        l.ProductID,
			QuantityOrdered:  l.QuantityOrdered,
			QuantityReceived: l.QuantityReceived,
			Pending:          l.Pending(),
		})
	}
	return out
}

// ToSalesOrderResponse convierte una orden de venta.
func ToSalesOrderResponse(so *entity.SalesOrder) *dto.SalesOrderResponse {
	if so == nil {
		return nil
	}
	out := &dto.SalesOrderResponse{
		ID:          so.ID,
		CompanyID:   so.CompanyID,
		CustomerRef: so.CustomerRef,
		Status:      string(so.Status),
		Lines:       make([]dto.SalesOrderLineResponse, 0, len(so.Lines)),
		CreatedAt:   so.CreatedAt,
		UpdatedAt:   so.UpdatedAt,
	}
	for _, l := range so.Lines {
		out.Lines = append(out.Lines, dto.SalesOrderLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			Quantity:    l.Quantity,
		})
	}
	return out
}
