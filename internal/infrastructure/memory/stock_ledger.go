package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.StockLedger = (*StockLedger)(nil)

// StockLedger ledger de stock en memoria. La comprobación y el descuento ocurren bajo el
// mismo candado, así que nunca se vende de más.
type StockLedger struct {
	scope
}

// NewStockLedger ledger fuera de transacción (lecturas y tests).
func NewStockLedger(store *Store) *StockLedger {
	return &StockLedger{scope{s: store}}
}

func (l *StockLedger) Reserve(_ context.Context, productID string, qty decimal.Decimal) error {
	unlock := l.lock()
	defer unlock()

	available := l.s.stock[productID]
	if available.LessThan(qty) {
		return &domain.InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
	}
	l.s.stock[productID] = available.Sub(qty)
	l.onRollback(func() { l.s.stock[productID] = l.s.stock[productID].Add(qty) })
	return nil
}

func (l *StockLedger) Release(_ context.Context, productID string, qty decimal.Decimal) error {
	unlock := l.lock()
	defer unlock()

	l.s.stock[productID] = l.s.stock[productID].Add(qty)
	l.onRollback(func() { l.s.stock[productID] = l.s.stock[productID].Sub(qty) })
	return nil
}

func (l *StockLedger) Available(_ context.Context, productID string) (decimal.Decimal, error) {
	unlock := l.rlock()
	defer unlock()
	return l.s.stock[productID], nil
}

// DetachedLedger ledger en memoria con store propio que no participa de las transacciones
// del store principal, igual que Redis. Permite ejercitar la compensación sin un servidor.
type DetachedLedger struct {
	*StockLedger
}

var _ repository.CompensatingLedger = (*DetachedLedger)(nil)

// NewDetachedLedger crea el ledger desacoplado.
func NewDetachedLedger() *DetachedLedger {
	return &DetachedLedger{NewStockLedger(NewStore())}
}

// NeedsCompensation siempre true: el rollback del store no lo alcanza.
func (l *DetachedLedger) NeedsCompensation() bool { return true }
