package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrReferenceNotFound = errors.New("referencia inexistente")
	ErrInvalidTransition = errors.New("transición de estado inválida")
)

// FieldViolation describe un error de validación corregible por el usuario sobre un campo concreto.
type FieldViolation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError agrupa las violaciones por campo. errors.Is(err, ErrInvalidInput) es verdadero.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError construye un ValidationError con una sola violación.
func NewValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Violations: []FieldViolation{{Field: field, Code: code, Message: message}}}
}

// InsufficientStockError detalla qué par (producto, bodega) quedaría negativo.
type InsufficientStockError struct {
	ProductID   string
	WarehouseID string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: producto %s en bodega %s (disponible %s, solicitado %s)",
		ErrInsufficientStock.Error(), e.ProductID, e.WarehouseID, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// Tipos de referencia usados en ReferenceError.
const (
	RefProduct           = "product"
	RefWarehouse         = "warehouse"
	RefPurchaseOrder     = "purchase_order"
	RefPurchaseOrderLine = "purchase_order_line"
	RefSalesOrder        = "sales_order"
)

// ReferenceError indica que un producto, bodega u orden referenciado no existe (no reintentable).
type ReferenceError struct {
	Kind string
	ID   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrReferenceNotFound.Error(), e.Kind, e.ID)
}

func (e *ReferenceError) Is(target error) bool { return target == ErrReferenceNotFound }
