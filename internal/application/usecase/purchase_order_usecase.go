package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// PurchaseOrderUseCase alta y consulta de órdenes de compra. Las recepciones pasan por el ReceiptReconciler.
type PurchaseOrderUseCase struct {
	repo    repository.PurchaseOrderRepository
	catalog inventory.Catalog
}

// NewPurchaseOrderUseCase construye el caso de uso.
func NewPurchaseOrderUseCase(repo repository.PurchaseOrderRepository, catalog inventory.Catalog) *PurchaseOrderUseCase {
	return &PurchaseOrderUseCase{repo: repo, catalog: catalog}
}

// Create registra una orden abierta (nada recibido). Cada producto debe existir en la empresa.
func (uc *PurchaseOrderUseCase) Create(ctx context.Context, companyID string, in dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	verr := &domain.ValidationError{}
	if len(in.Lines) == 0 {
		verr.Violations = append(verr.Violations, domain.FieldViolation{Field: "lines", Code: ledger.CodeRequired, Message: "la orden necesita al menos una línea"})
	}
	for i, l := range in.Lines {
		if l.ProductID == "" {
			verr.Violations = append(verr.Violations, domain.FieldViolation{Field: fmt.Sprintf("lines[%d].product_id", i), Code: ledger.CodeRequired, Message: "producto obligatorio"})
		}
		if !l.QuantityOrdered.IsPositive() {
			verr.Violations = append(verr.Violations, domain.FieldViolation{Field: fmt.Sprintf("lines[%d].quantity_ordered", i), Code: ledger.CodeNotPositive, Message: "la cantidad debe ser mayor que cero"})
		}
	}
	if len(verr.Violations) > 0 {
		return nil, verr
	}
	po := &entity.PurchaseOrder{CompanyID: companyID, SupplierRef: in.SupplierRef}
	for _, l := range in.Lines {
		if err := requireCompanyProduct(ctx, uc.catalog, companyID, l.ProductID); err != nil {
			return nil, err
		}
		po.Lines = append(po.Lines, &entity.PurchaseOrderLine{
			ProductID:        l.ProductID,
			QuantityOrdered:  l.QuantityOrdered,
			QuantityReceived: decimal.Zero,
		})
	}
	if err := uc.repo.Create(ctx, po); err != nil {
		return nil, err
	}
	return ToPurchaseOrderResponse(po), nil
}

// GetByID obtiene la orden con lo recibido por línea; domain.ErrNotFound si no es de la empresa.
func (uc *PurchaseOrderUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.PurchaseOrderResponse, error) {
	po, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil || po.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return ToPurchaseOrderResponse(po), nil
}

func requireCompanyProduct(ctx context.Context, catalog inventory.Catalog, companyID, productID string) error {
	p, err := catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil || p.CompanyID != companyID {
		return &domain.ReferenceError{Kind: domain.RefProduct, ID: productID}
	}
	return nil
}

func requireCompanyWarehouse(ctx context.Context, catalog inventory.Catalog, companyID, warehouseID string) error {
	w, err := catalog.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return err
	}
	if w == nil || w.CompanyID != companyID {
		return &domain.ReferenceError{Kind: domain.RefWarehouse, ID: warehouseID}
	}
	return nil
}
