package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
)

// AdjustmentInput ajuste manual. El signo lo determina ReasonCode; Quantity siempre es positiva.
type AdjustmentInput struct {
	CompanyID   string
	UserID      string
	ProductID   string
	WarehouseID string
	ReasonCode  entity.AdjustmentReason
	Quantity    decimal.Decimal
	Reference   string
}

// AdjustmentProcessor registra ajustes con código de razón.
type AdjustmentProcessor struct {
	ledger  *StockLedger
	catalog Catalog
}

// NewAdjustmentProcessor construye el procesador.
func NewAdjustmentProcessor(l *StockLedger, catalog Catalog) *AdjustmentProcessor {
	return &AdjustmentProcessor{ledger: l, catalog: catalog}
}

// SubmitAdjustment agrega un movimiento ADJUSTMENT. Las razones que restan stock fallan con
// InsufficientStockError si el nivel no alcanza.
func (p *AdjustmentProcessor) SubmitAdjustment(ctx context.Context, in AdjustmentInput) (*CommitResult, error) {
	r := ledger.ValidateAdjustment(ledger.AdjustmentIntent{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		ReasonCode:  in.ReasonCode,
		Quantity:    in.Quantity,
	})
	if !r.OK() {
		return nil, r.Err()
	}
	if _, err := requireProduct(ctx, p.catalog, in.CompanyID, in.ProductID); err != nil {
		return nil, err
	}
	if _, err := requireWarehouse(ctx, p.catalog, in.CompanyID, in.WarehouseID); err != nil {
		return nil, err
	}
	return p.ledger.Append(ctx, []*entity.StockMovement{{
		CompanyID:   in.CompanyID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Kind:        entity.MovementKindAdjustment,
		Quantity:    in.Quantity,
		ReasonCode:  in.ReasonCode,
		ReferenceID: in.Reference,
		CreatedBy:   in.UserID,
	}})
}
