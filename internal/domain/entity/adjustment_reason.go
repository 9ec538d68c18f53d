package entity

// AdjustmentReason código de razón de un ajuste. El signo lo fija la tabla, no el usuario.
type AdjustmentReason string

const (
	ReasonDamage            AdjustmentReason = "DAMAGE"
	ReasonWriteOff          AdjustmentReason = "WRITE_OFF"
	ReasonExpired           AdjustmentReason = "EXPIRED"
	ReasonStockTakeShortage AdjustmentReason = "STOCK_TAKE_SHORTAGE"
	ReasonStockTakeSurplus  AdjustmentReason = "STOCK_TAKE_SURPLUS"
	ReasonManualReceipt     AdjustmentReason = "MANUAL_RECEIPT"
)

// reasonIncreases: true suma stock, false resta.
var reasonIncreases = map[AdjustmentReason]bool{
	ReasonDamage:            false,
	ReasonWriteOff:          false,
	ReasonExpired:           false,
	ReasonStockTakeShortage: false,
	ReasonStockTakeSurplus:  true,
	ReasonManualReceipt:     true,
}

// IsValid indica si el código pertenece a la enumeración cerrada.
func (r AdjustmentReason) IsValid() bool {
	_, ok := reasonIncreases[r]
	return ok
}

// Increases indica si la razón aumenta el stock. Códigos desconocidos no aumentan.
func (r AdjustmentReason) Increases() bool {
	return reasonIncreases[r]
}

// AdjustmentReasons devuelve la enumeración completa (para documentación y formularios).
func AdjustmentReasons() []AdjustmentReason {
	return []AdjustmentReason{
		ReasonDamage, ReasonWriteOff, ReasonExpired,
		ReasonStockTakeShortage, ReasonStockTakeSurplus, ReasonManualReceipt,
	}
}
