// Package ledger contiene las reglas puras del ledger de inventario: validación de movimientos
// y derivación de niveles a partir del log. No conoce almacenamiento ni concurrencia.
package ledger

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// Códigos de violación.
const (
	CodeRequired         = "REQUIRED"
	CodeNotPositive      = "NOT_POSITIVE"
	CodeNegative         = "NEGATIVE"
	CodeInvalidKind      = "INVALID_KIND"
	CodeInvalidReason    = "INVALID_REASON"
	CodeSameWarehouse    = "SAME_WAREHOUSE"
	CodeExceedsPending   = "EXCEEDS_PENDING"
	CodeNothingToReceive = "NOTHING_TO_RECEIVE"
	CodeDuplicateLine    = "DUPLICATE_LINE"
	CodeEmptyBatch       = "EMPTY_BATCH"
)

// ValidationResult resultado etiquetado: OK si no hay violaciones.
type ValidationResult struct {
	Violations []domain.FieldViolation
}

// OK indica que no hubo violaciones.
func (r ValidationResult) OK() bool { return len(r.Violations) == 0 }

// Add agrega una violación.
func (r *ValidationResult) Add(field, code, message string) {
	r.Violations = append(r.Violations, domain.FieldViolation{Field: field, Code: code, Message: message})
}

// Merge agrega las violaciones de otro resultado anteponiendo prefix al campo.
func (r *ValidationResult) Merge(prefix string, o ValidationResult) {
	for _, v := range o.Violations {
		v.Field = prefix + v.Field
		r.Violations = append(r.Violations, v)
	}
}

// Err devuelve nil o un *domain.ValidationError.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return &domain.ValidationError{Violations: r.Violations}
}

// ValidateMovement revisa los campos obligatorios de un movimiento antes de enviarlo al ledger.
func ValidateMovement(m *entity.StockMovement) ValidationResult {
	var r ValidationResult
	if m.ProductID == "" {
		r.Add("product_id", CodeRequired, "product_id es requerido")
	}
	if m.WarehouseID == "" {
		r.Add("warehouse_id", CodeRequired, "warehouse_id es requerido")
	}
	checkPositive(&r, "quantity", m.Quantity)
	if !m.Kind.IsValid() {
		r.Add("kind", CodeInvalidKind, "tipo de movimiento desconocido")
	}
	if m.Kind == entity.MovementKindAdjustment && !m.ReasonCode.IsValid() {
		r.Add("reason_code", CodeInvalidReason, "código de razón inválido")
	}
	return r
}

// ValidateBatch valida cada movimiento del lote; los campos se prefijan con movements[i].
func ValidateBatch(movements []*entity.StockMovement) ValidationResult {
	var r ValidationResult
	if len(movements) == 0 {
		r.Add("movements", CodeEmptyBatch, "el lote no tiene movimientos")
		return r
	}
	for i, m := range movements {
		r.Merge(indexed("movements", i)+".", ValidateMovement(m))
	}
	return r
}

// TransferIntent datos mínimos de un traslado entre bodegas.
type TransferIntent struct {
	ProductID              string
	SourceWarehouseID      string
	DestinationWarehouseID string
	Quantity               decimal.Decimal
}

// ValidateTransfer: origen y destino obligatorios y distintos, cantidad positiva.
func ValidateTransfer(in TransferIntent) ValidationResult {
	var r ValidationResult
	if in.ProductID == "" {
		r.Add("product_id", CodeRequired, "product_id es requerido")
	}
	if in.SourceWarehouseID == "" {
		r.Add("source_warehouse_id", CodeRequired, "bodega origen requerida")
	}
	if in.DestinationWarehouseID == "" {
		r.Add("destination_warehouse_id", CodeRequired, "bodega destino requerida")
	}
	if in.SourceWarehouseID != "" && in.SourceWarehouseID == in.DestinationWarehouseID {
		r.Add("destination_warehouse_id", CodeSameWarehouse, "la bodega destino debe ser distinta a la de origen")
	}
	checkPositive(&r, "quantity", in.Quantity)
	return r
}

// AdjustmentIntent datos de un ajuste.
type AdjustmentIntent struct {
	ProductID   string
	WarehouseID string
	ReasonCode  entity.AdjustmentReason
	Quantity    decimal.Decimal
}

// ValidateAdjustment: producto, bodega, razón de la enumeración y cantidad positiva.
func ValidateAdjustment(in AdjustmentIntent) ValidationResult {
	var r ValidationResult
	if in.ProductID == "" {
		r.Add("product_id", CodeRequired, "product_id es requerido")
	}
	if in.WarehouseID == "" {
		r.Add("warehouse_id", CodeRequired, "warehouse_id es requerido")
	}
	if !in.ReasonCode.IsValid() {
		r.Add("reason_code", CodeInvalidReason, "código de razón inválido")
	}
	checkPositive(&r, "quantity", in.Quantity)
	return r
}

// ReceiptLineIntent una línea de la recepción contra su pendiente actual.
type ReceiptLineIntent struct {
	LineID                 string
	QuantityReceivedNow    decimal.Decimal
	DestinationWarehouseID string
	Pending                decimal.Decimal
}

// ValidateReceipt valida las líneas contra el pendiente leído dentro de la misma unidad atómica.
// Rechaza negativos, exceso sobre el pendiente, cantidad > 0 sin bodega destino, líneas duplicadas
// y el envío donde todas las cantidades son cero.
func ValidateReceipt(lines []ReceiptLineIntent) ValidationResult {
	var r ValidationResult
	seen := make(map[string]struct{}, len(lines))
	anyPositive := false
	for i, l := range lines {
		field := indexed("lines", i)
		if l.LineID == "" {
			r.Add(field+".line_id", CodeRequired, "line_id es requerido")
		} else if _, dup := seen[l.LineID]; dup {
			r.Add(field+".line_id", CodeDuplicateLine, "la línea aparece más de una vez")
		}
		seen[l.LineID] = struct{}{}

		switch {
		case l.QuantityReceivedNow.IsNegative():
			r.Add(field+".quantity_received_now", CodeNegative, "la cantidad recibida no puede ser negativa")
		case l.QuantityReceivedNow.GreaterThan(l.Pending):
			r.Add(field+".quantity_received_now", CodeExceedsPending,
				"la cantidad recibida supera el pendiente ("+l.Pending.String()+")")
		}
		if l.QuantityReceivedNow.IsPositive() {
			anyPositive = true
			if l.DestinationWarehouseID == "" {
				r.Add(field+".destination_warehouse_id", CodeRequired, "bodega destino requerida para cantidades mayores a cero")
			}
		}
	}
	if !anyPositive {
		r.Add("lines", CodeNothingToReceive, "no hay cantidades para recibir")
	}
	return r
}

func checkPositive(r *ValidationResult, field string, q decimal.Decimal) {
	if !q.IsPositive() {
		r.Add(field, CodeNotPositive, "la cantidad debe ser mayor a cero")
	}
}

func indexed(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "]"
}
