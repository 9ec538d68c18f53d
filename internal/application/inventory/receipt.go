package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/ledger"
)

// ReceiptLineInput cantidad recibida ahora para una línea de la orden de compra.
type ReceiptLineInput struct {
	LineID                 string
	QuantityReceivedNow    decimal.Decimal
	DestinationWarehouseID string
}

// ReceiptInput recepción (posiblemente parcial) de una orden de compra.
type ReceiptInput struct {
	CompanyID       string
	UserID          string
	PurchaseOrderID string
	Lines           []ReceiptLineInput
}

// ReceiptResult lote confirmado y estado de la orden después de la recepción.
type ReceiptResult struct {
	Commit        *CommitResult
	PurchaseOrder *entity.PurchaseOrder
}

// ReceiptReconciler concilia recepciones contra lo ordenado. Validación, movimientos y
// actualización de las líneas ocurren en la misma unidad atómica.
type ReceiptReconciler struct {
	ledger  *StockLedger
	catalog Catalog
}

// NewReceiptReconciler construye el conciliador.
func NewReceiptReconciler(l *StockLedger, catalog Catalog) *ReceiptReconciler {
	return &ReceiptReconciler{ledger: l, catalog: catalog}
}

// SubmitReceipt bloquea la orden, calcula el pendiente de cada línea sobre el estado bloqueado,
// valida, agrega un RECEIPT por cada línea con cantidad > 0 e incrementa quantity_received.
func (r *ReceiptReconciler) SubmitReceipt(ctx context.Context, in ReceiptInput) (*ReceiptResult, error) {
	ctx, span := r.ledger.tracer.Start(ctx, "ReceiptReconciler.SubmitReceipt", trace.WithAttributes(
		attribute.String("purchase_order_id", in.PurchaseOrderID),
		attribute.Int("receipt.lines", len(in.Lines)),
	))
	defer span.End()

	if in.PurchaseOrderID == "" {
		return nil, domain.NewValidationError("purchase_order_id", ledger.CodeRequired, "purchase_order_id es requerido")
	}
	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError("lines", ledger.CodeNothingToReceive, "no hay cantidades para recibir")
	}

	var result *ReceiptResult
	err := r.ledger.RunAtomic(ctx, func(repos TxRepositories) error {
		res, err := r.receiveInTx(ctx, repos, in)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	r.ledger.publish(ctx, result.Commit)
	return result, nil
}

func (r *ReceiptReconciler) receiveInTx(ctx context.Context, repos TxRepositories, in ReceiptInput) (*ReceiptResult, error) {
	po, err := repos.PurchaseOrders.GetForUpdate(ctx, in.PurchaseOrderID)
	if err != nil {
		return nil, fmt.Errorf("bloquear orden de compra: %w", err)
	}
	if po == nil || (in.CompanyID != "" && po.CompanyID != in.CompanyID) {
		return nil, &domain.ReferenceError{Kind: domain.RefPurchaseOrder, ID: in.PurchaseOrderID}
	}

	intents := make([]ledger.ReceiptLineIntent, 0, len(in.Lines))
	for _, l := range in.Lines {
		intent := ledger.ReceiptLineIntent{
			LineID:                 l.LineID,
			QuantityReceivedNow:    l.QuantityReceivedNow,
			DestinationWarehouseID: l.DestinationWarehouseID,
		}
		if l.LineID != "" {
			line := po.Line(l.LineID)
			if line == nil {
				return nil, &domain.ReferenceError{Kind: domain.RefPurchaseOrderLine, ID: l.LineID}
			}
			intent.Pending = line.Pending()
		}
		intents = append(intents, intent)
	}
	if v := ledger.ValidateReceipt(intents); !v.OK() {
		return nil, v.Err()
	}

	movements := make([]*entity.StockMovement, 0, len(in.Lines))
	for _, l := range in.Lines {
		if !l.QuantityReceivedNow.IsPositive() {
			continue
		}
		if _, err := requireWarehouse(ctx, r.catalog, po.CompanyID, l.DestinationWarehouseID); err != nil {
			return nil, err
		}
		line := po.Line(l.LineID)
		movements = append(movements, &entity.StockMovement{
			CompanyID:       po.CompanyID,
			ProductID:       line.ProductID,
			WarehouseID:     l.DestinationWarehouseID,
			Kind:            entity.MovementKindReceipt,
			Quantity:        l.QuantityReceivedNow,
			ReferenceID:     po.ID,
			ReferenceLineID: line.ID,
			CreatedBy:       in.UserID,
		})
	}

	commit, err := r.ledger.AppendInTx(ctx, repos, movements)
	if err != nil {
		return nil, err
	}

	for _, m := range movements {
		line := po.Line(m.ReferenceLineID)
		line.QuantityReceived = line.QuantityReceived.Add(m.Quantity)
		if err := repos.PurchaseOrders.SetLineReceived(ctx, po.ID, line.ID, line.QuantityReceived); err != nil {
			return nil, fmt.Errorf("actualizar línea %s: %w", line.ID, err)
		}
	}
	return &ReceiptResult{Commit: commit, PurchaseOrder: po}, nil
}
