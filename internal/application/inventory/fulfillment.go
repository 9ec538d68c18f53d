package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// CodeNothingToIssue todas las líneas de la orden ya fueron despachadas.
const CodeNothingToIssue = "NOTHING_TO_ISSUE"

// SalesIssueResult salida confirmada de una orden de venta.
type SalesIssueResult struct {
	Commit     *CommitResult
	SalesOrder *entity.SalesOrder
}

// FulfillmentService saca del inventario las líneas de una orden de venta y gobierna su estado.
// Una orden solo pasa a DISPATCHED cuando todas sus salidas están confirmadas en el ledger.
type FulfillmentService struct {
	ledger  *StockLedger
	catalog Catalog
}

// NewFulfillmentService construye el servicio.
func NewFulfillmentService(l *StockLedger, catalog Catalog) *FulfillmentService {
	return &FulfillmentService{ledger: l, catalog: catalog}
}

// IssueSalesOrder agrega un SALES_ISSUE por cada línea con cantidad aún no despachada, todo o nada.
func (s *FulfillmentService) IssueSalesOrder(ctx context.Context, companyID, userID, salesOrderID string) (*SalesIssueResult, error) {
	ctx, span := s.ledger.tracer.Start(ctx, "FulfillmentService.IssueSalesOrder", trace.WithAttributes(
		attribute.String("sales_order_id", salesOrderID),
	))
	defer span.End()

	var result *SalesIssueResult
	err := s.ledger.RunAtomic(ctx, func(repos TxRepositories) error {
		so, err := lockSalesOrder(ctx, repos, companyID, salesOrderID)
		if err != nil {
			return err
		}
		if so.Status != entity.SalesOrderProcessing && so.Status != entity.SalesOrderReadyForDispatch {
			return fmt.Errorf("%w: no se puede despachar inventario en estado %s", domain.ErrInvalidTransition, so.Status)
		}
		issues, err := salesIssues(ctx, repos.Movements, so)
		if err != nil {
			return err
		}
		issued := issuedByLine(issues)
		var movements []*entity.StockMovement
		for _, line := range so.Lines {
			remaining := line.Quantity.Sub(issued[line.ID])
			if !remaining.IsPositive() {
				continue
			}
			if _, err := requireProduct(ctx, s.catalog, so.CompanyID, line.ProductID); err != nil {
				return err
			}
			if _, err := requireWarehouse(ctx, s.catalog, so.CompanyID, line.WarehouseID); err != nil {
				return err
			}
			movements = append(movements, &entity.StockMovement{
				CompanyID:       so.CompanyID,
				ProductID:       line.ProductID,
				WarehouseID:     line.WarehouseID,
				Kind:            entity.MovementKindSalesIssue,
				Quantity:        remaining,
				ReferenceID:     so.ID,
				ReferenceLineID: line.ID,
				CreatedBy:       userID,
			})
		}
		if len(movements) == 0 {
			return domain.NewValidationError("lines", CodeNothingToIssue, "todas las líneas ya fueron despachadas")
		}
		commit, err := s.ledger.AppendInTx(ctx, repos, movements)
		if err != nil {
			return err
		}
		result = &SalesIssueResult{Commit: commit, SalesOrder: so}
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	s.ledger.publish(ctx, result.Commit)
	return result, nil
}

// TransitionSalesOrder cambia el estado según la máquina de estados. DISPATCHED exige que todas
// las líneas estén despachadas. CANCELLED con salidas ya confirmadas devuelve el inventario con un
// RECEIPT por cada salida, en la misma unidad atómica que el cambio de estado.
func (s *FulfillmentService) TransitionSalesOrder(ctx context.Context, companyID, userID, salesOrderID string, target entity.SalesOrderStatus) (*entity.SalesOrder, error) {
	if !target.IsValid() {
		return nil, domain.NewValidationError("status", "INVALID_STATUS", "estado desconocido")
	}
	var (
		out    *entity.SalesOrder
		commit *CommitResult
	)
	err := s.ledger.RunAtomic(ctx, func(repos TxRepositories) error {
		commit = nil
		so, err := lockSalesOrder(ctx, repos, companyID, salesOrderID)
		if err != nil {
			return err
		}
		if !so.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, so.Status, target)
		}
		switch target {
		case entity.SalesOrderDispatched:
			issues, err := salesIssues(ctx, repos.Movements, so)
			if err != nil {
				return err
			}
			issued := issuedByLine(issues)
			for _, line := range so.Lines {
				if issued[line.ID].LessThan(line.Quantity) {
					return fmt.Errorf("%w: la línea %s no tiene su salida de inventario confirmada", domain.ErrInvalidTransition, line.ID)
				}
			}
		case entity.SalesOrderCancelled:
			issues, err := salesIssues(ctx, repos.Movements, so)
			if err != nil {
				return err
			}
			if returns := returnMovements(so, issues, userID); len(returns) > 0 {
				if commit, err = s.ledger.AppendInTx(ctx, repos, returns); err != nil {
					return err
				}
			}
		}
		if err := repos.SalesOrders.UpdateStatus(ctx, so.ID, target); err != nil {
			return fmt.Errorf("actualizar estado: %w", err)
		}
		so.Status = target
		out = so
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.ledger.publish(ctx, commit)
	s.ledger.log.Debug().Str("sales_order_id", salesOrderID).Str("status", string(target)).Msg("estado de orden de venta actualizado")
	return out, nil
}

func lockSalesOrder(ctx context.Context, repos TxRepositories, companyID, id string) (*entity.SalesOrder, error) {
	so, err := repos.SalesOrders.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("bloquear orden de venta: %w", err)
	}
	if so == nil || (companyID != "" && so.CompanyID != companyID) {
		return nil, &domain.ReferenceError{Kind: domain.RefSalesOrder, ID: id}
	}
	return so, nil
}

// salesIssues SALES_ISSUE confirmados de la orden, en orden de creación.
func salesIssues(ctx context.Context, movements repository.StockMovementRepository, so *entity.SalesOrder) ([]*entity.StockMovement, error) {
	list, err := movements.List(ctx, repository.MovementFilter{CompanyID: so.CompanyID, ReferenceID: so.ID})
	if err != nil {
		return nil, fmt.Errorf("listar salidas de la orden: %w", err)
	}
	out := make([]*entity.StockMovement, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		if m := list[i]; m.Kind == entity.MovementKindSalesIssue && m.ReferenceLineID != "" {
			out = append(out, m)
		}
	}
	return out, nil
}

// issuedByLine suma lo despachado por línea.
func issuedByLine(issues []*entity.StockMovement) map[string]decimal.Decimal {
	issued := make(map[string]decimal.Decimal)
	for _, m := range issues {
		issued[m.ReferenceLineID] = issued[m.ReferenceLineID].Add(m.Quantity)
	}
	return issued
}

// returnMovements un RECEIPT por (línea, producto, bodega) que compensa lo despachado.
func returnMovements(so *entity.SalesOrder, issues []*entity.StockMovement, userID string) []*entity.StockMovement {
	type key struct {
		line  string
		stock entity.StockKey
	}
	var (
		order  []key
		totals = make(map[key]decimal.Decimal)
	)
	for _, m := range issues {
		k := key{line: m.ReferenceLineID, stock: m.Key()}
		if _, ok := totals[k]; !ok {
			order = append(order, k)
		}
		totals[k] = totals[k].Add(m.Quantity)
	}
	out := make([]*entity.StockMovement, 0, len(order))
	for _, k := range order {
		out = append(out, &entity.StockMovement{
			CompanyID:       so.CompanyID,
			ProductID:       k.stock.ProductID,
			WarehouseID:     k.stock.WarehouseID,
			Kind:            entity.MovementKindReceipt,
			Quantity:        totals[k],
			ReferenceID:     so.ID,
			ReferenceLineID: k.line,
			CreatedBy:       userID,
		})
	}
	return out
}
