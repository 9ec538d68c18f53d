package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// SalesOrderUseCase alta y consulta de órdenes de venta. Salidas de stock y cambios de estado
// pasan por inventory.FulfillmentService.
type SalesOrderUseCase struct {
	repo    repository.SalesOrderRepository
	catalog inventory.Catalog
}

// NewSalesOrderUseCase construye el caso de uso.
func NewSalesOrderUseCase(repo repository.SalesOrderRepository, catalog inventory.Catalog) *SalesOrderUseCase {
	return &SalesOrderUseCase{repo: repo, catalog: catalog}
}

// Create registra la orden en DRAFT.
func (uc *SalesOrderUseCase) Create(ctx context.Context, companyID string, in dto.CreateSalesOrderRequest) (*dto.SalesOrderResponse, error) {
	verr := &domain.ValidationError{}
	if len(in.Lines) == 0 {
		verr.Violations = append(verr.Violations, domain.FieldViolation{Field: "lines", Code: ledger.CodeRequired, Message: "la orden necesita al menos una línea"})
	}
	for i, l := range in.Lines {
		if l.ProductID == "" {
			verr.Violations = append(verr.Violations, domain.FieldViolation{Field: fmt.Sprintf("lines[%d].product_id", i), Code: ledger.CodeRequired, Message: "producto obligatorio"})
		}
		if l.WarehouseID == "" {
			verr.Violations = append(verr.Violations, domain.FieldViolation{Field: fmt.Sprintf("lines[%d].warehouse_id", i), Code: ledger.CodeRequired, Message: "bodega obligatoria"})
		}
		if !l.Quantity.IsPositive() {
			verr.Violations = append(verr.Violations, domain.FieldViolation{Field: fmt.Sprintf("lines[%d].quantity", i), Code: ledger.CodeNotPositive, Message: "la cantidad debe ser mayor que cero"})
		}
	}
	if len(verr.Violations) > 0 {
		return nil, verr
	}
	so := &entity.SalesOrder{CompanyID: companyID, CustomerRef: in.CustomerRef, Status: entity.SalesOrderDraft}
	for _, l := range in.Lines {
		if err := requireCompanyProduct(ctx, uc.catalog, companyID, l.ProductID); err != nil {
			return nil, err
		}
		if err := requireCompanyWarehouse(ctx, uc.catalog, companyID, l.WarehouseID); err != nil {
			return nil, err
		}
		so.Lines = append(so.Lines, &entity.SalesOrderLine{
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			Quantity:    l.Quantity,
		})
	}
	if err := uc.repo.Create(ctx, so); err != nil {
		return nil, err
	}
	return ToSalesOrderResponse(so), nil
}

// GetByID obtiene la orden; domain.ErrNotFound si no es de la empresa.
func (uc *SalesOrderUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.SalesOrderResponse, error) {
	so, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if so == nil || so.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return ToSalesOrderResponse(so), nil
}
