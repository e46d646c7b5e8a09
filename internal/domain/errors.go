package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInvalidItem       = errors.New("ítem de factura inválido")
	ErrInvalidPayment    = errors.New("pago inválido")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrAlreadyCancelled  = errors.New("la factura ya está anulada")
	ErrBillNotEditable   = errors.New("la factura no admite cambios en su estado actual")
	ErrBillNotFound      = errors.New("factura no encontrada")
	ErrCustomerNotFound  = errors.New("cliente no encontrado")
	ErrProductNotFound   = errors.New("producto no encontrado")
)

// ValidationError indica qué campo (y qué ítem o pago, si aplica) violó una regla.
// Index es -1 cuando el error no pertenece a un elemento de una lista.
type ValidationError struct {
	Err    error
	Field  string
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%v: [%d].%s: %s", e.Err, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewItemError crea un error de validación para el ítem en la posición index.
func NewItemError(index int, field, reason string) *ValidationError {
	return &ValidationError{Err: ErrInvalidItem, Field: field, Index: index, Reason: reason}
}

// NewPaymentError crea un error de validación de pago (index -1 si es un pago suelto).
func NewPaymentError(index int, field, reason string) *ValidationError {
	return &ValidationError{Err: ErrInvalidPayment, Field: field, Index: index, Reason: reason}
}

// NewInputError crea un error de validación de un campo de cabecera.
func NewInputError(field, reason string) *ValidationError {
	return &ValidationError{Err: ErrInvalidInput, Field: field, Index: -1, Reason: reason}
}

// InsufficientStockError detalla el producto que no alcanzó a reservarse.
type InsufficientStockError struct {
	ProductID string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para el producto %s: solicitado %s, disponible %s",
		e.ProductID, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// BillStateError rechaza una operación por el estado actual de la factura.
type BillStateError struct {
	Err           error
	BillID        string
	Status        string
	PaymentStatus string
}

func (e *BillStateError) Error() string {
	return fmt.Sprintf("%v (factura %s, estado %s, pago %s)", e.Err, e.BillID, e.Status, e.PaymentStatus)
}

func (e *BillStateError) Unwrap() error { return e.Err }
