package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
)

// TransferInput traslado de una cantidad de producto entre dos bodegas.
type TransferInput struct {
	CompanyID              string
	UserID                 string
	ProductID              string
	SourceWarehouseID      string
	DestinationWarehouseID string
	Quantity               decimal.Decimal
}

// TransferCoordinator registra traslados como un par TRANSFER_OUT/TRANSFER_IN en un solo lote.
type TransferCoordinator struct {
	ledger  *StockLedger
	catalog Catalog
}

// NewTransferCoordinator construye el coordinador.
func NewTransferCoordinator(l *StockLedger, catalog Catalog) *TransferCoordinator {
	return &TransferCoordinator{ledger: l, catalog: catalog}
}

// SubmitTransfer confirma ambas patas o ninguna. El grupo del lote es el identificador del traslado
// y ambas patas lo llevan como referencia.
func (c *TransferCoordinator) SubmitTransfer(ctx context.Context, in TransferInput) (*CommitResult, error) {
	ctx, span := c.ledger.tracer.Start(ctx, "TransferCoordinator.SubmitTransfer", trace.WithAttributes(
		attribute.String("product_id", in.ProductID),
		attribute.String("source_warehouse_id", in.SourceWarehouseID),
		attribute.String("destination_warehouse_id", in.DestinationWarehouseID),
	))
	defer span.End()

	r := ledger.ValidateTransfer(ledger.TransferIntent{
		ProductID:              in.ProductID,
		SourceWarehouseID:      in.SourceWarehouseID,
		DestinationWarehouseID: in.DestinationWarehouseID,
		Quantity:               in.Quantity,
	})
	if !r.OK() {
		return nil, r.Err()
	}
	if _, err := requireProduct(ctx, c.catalog, in.CompanyID, in.ProductID); err != nil {
		return nil, err
	}
	if _, err := requireWarehouse(ctx, c.catalog, in.CompanyID, in.SourceWarehouseID); err != nil {
		return nil, err
	}
	if _, err := requireWarehouse(ctx, c.catalog, in.CompanyID, in.DestinationWarehouseID); err != nil {
		return nil, err
	}

	groupID := uuid.New().String()
	movements := []*entity.StockMovement{
		{
			CompanyID:   in.CompanyID,
			ProductID:   in.ProductID,
			WarehouseID: in.SourceWarehouseID,
			Kind:        entity.MovementKindTransferOut,
			Quantity:    in.Quantity,
			ReferenceID: groupID,
			GroupID:     groupID,
			CreatedBy:   in.UserID,
		},
		{
			CompanyID:   in.CompanyID,
			ProductID:   in.ProductID,
			WarehouseID: in.DestinationWarehouseID,
			Kind:        entity.MovementKindTransferIn,
			Quantity:    in.Quantity,
			ReferenceID: groupID,
			GroupID:     groupID,
			CreatedBy:   in.UserID,
		},
	}
	res, err := c.ledger.Append(ctx, movements)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return res, nil
}
