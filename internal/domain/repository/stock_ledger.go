package repository

import (
	"context"

	"github.com/shopspring/decimal"
)

// StockLedger lleva la cantidad disponible por producto.
type StockLedger interface {
	// Reserve descuenta qty solo si available >= qty, en una única operación atómica.
	// Si no alcanza devuelve *domain.InsufficientStockError y no modifica nada.
	Reserve(ctx context.Context, productID string, qty decimal.Decimal) error
	// Release suma qty (crea la fila si no existe). La idempotencia es del llamador.
	Release(ctx context.Context, productID string, qty decimal.Decimal) error
	Available(ctx context.Context, productID string) (decimal.Decimal, error)
}

// CompensatingLedger lo implementan los ledgers que no participan de la transacción
// del store (ej. Redis). Sus operaciones no se deshacen con el rollback, así que el
// llamador debe revertirlas explícitamente si la transacción falla.
type CompensatingLedger interface {
	StockLedger
	NeedsCompensation() bool
}
