package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/billing-engine/internal/domain/billing"
	"github.com/jhoicas/billing-engine/internal/domain/repository"

	"github.com/shopspring/decimal"
)

// Journal envuelve el ledger durante un intento transaccional.
//
// Con un ledger transaccional (Postgres, memoria) delega sin más: el rollback deshace todo.
// Con un ledger externo (Redis) las reservas se aplican de inmediato y se anotan para
// compensarlas si la transacción falla, y las liberaciones se difieren hasta Settle para
// que ninguna unidad quede expuesta a otras facturas antes del commit.
type Journal struct {
	ledger   repository.StockLedger
	external bool
	reserved []billing.StockLine
	pending  []billing.StockLine
}

// NewJournal crea el diario para el ledger de la transacción en curso.
func NewJournal(ledger repository.StockLedger) *Journal {
	j := &Journal{ledger: ledger}
	if cl, ok := ledger.(repository.CompensatingLedger); ok {
		j.external = cl.NeedsCompensation()
	}
	return j
}

// External indica si el ledger requiere compensación explícita.
func (j *Journal) External() bool { return j.external }

// Reserve reserva en el ledger y, si es externo, anota la operación.
func (j *Journal) Reserve(ctx context.Context, productID string, qty decimal.Decimal) error {
	if err := j.ledger.Reserve(ctx, productID, qty); err != nil {
		return err
	}
	if j.external {
		j.reserved = append(j.reserved, billing.StockLine{ProductID: productID, Quantity: qty})
	}
	return nil
}

// Release libera de inmediato (ledger transaccional) o difiere hasta Settle (externo).
func (j *Journal) Release(ctx context.Context, productID string, qty decimal.Decimal) error {
	if j.external {
		j.pending = append(j.pending, billing.StockLine{ProductID: productID, Quantity: qty})
		return nil
	}
	return j.ledger.Release(ctx, productID, qty)
}

// Compensate deshace en orden inverso las reservas anotadas. Se llama cuando la
// transacción no se confirmó; descarta las liberaciones pendientes.
func (j *Journal) Compensate(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(j.reserved) - 1; i >= 0; i-- {
		l := j.reserved[i]
		if err := j.ledger.Release(ctx, l.ProductID, l.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("compensar reserva %s (%s): %w", l.ProductID, l.Quantity, err))
		}
	}
	j.reserved, j.pending = nil, nil
	return errors.Join(errs...)
}

// Settle aplica las liberaciones diferidas una vez confirmada la transacción.
func (j *Journal) Settle(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for _, l := range j.pending {
		if err := j.ledger.Release(ctx, l.ProductID, l.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("liberar %s (%s): %w", l.ProductID, l.Quantity, err))
		}
	}
	j.reserved, j.pending = nil, nil
	return errors.Join(errs...)
}

// Finish cierra el intento: compensa si txErr != nil, si no aplica lo diferido.
// Devuelve el error de la fase de cierre (nunca txErr). Tolera un diario nulo
// (la transacción falló antes de crearlo).
func (j *Journal) Finish(ctx context.Context, txErr error) error {
	if j == nil || !j.external {
		return nil
	}
	if txErr != nil {
		return j.Compensate(ctx)
	}
	return j.Settle(ctx)
}
