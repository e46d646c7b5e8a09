package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepository)(nil)

// ErrMissingReference un movimiento apunta a una factura que aún no existe, igual que la
// llave foránea stock_movements.bill_id en PostgreSQL.
var ErrMissingReference = errors.New("referencia a registro inexistente")

// StockMovementRepository diario append-only en memoria.
type StockMovementRepository struct {
	scope
}

// NewStockMovementRepository repositorio de movimientos fuera de transacción.
func NewStockMovementRepository(store *Store) *StockMovementRepository {
	return &StockMovementRepository{scope{s: store}}
}

func (r *StockMovementRepository) Create(_ context.Context, m *entity.StockMovement) error {
	unlock := r.lock()
	defer unlock()
	if m.BillID != "" {
		if _, ok := r.s.bills[m.BillID]; !ok {
			return fmt.Errorf("movimiento %s: factura %s: %w", m.ID, m.BillID, ErrMissingReference)
		}
	}
	r.s.movements = append(r.s.movements, *m)
	n := len(r.s.movements) - 1
	r.onRollback(func() { r.s.movements = r.s.movements[:n] })
	return nil
}

func (r *StockMovementRepository) ListByProduct(_ context.Context, workspaceID, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	unlock := r.rlock()
	defer unlock()
	var out []*entity.StockMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.WorkspaceID == workspaceID && m.ProductID == productID {
			out = append(out, &m)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *StockMovementRepository) ListByBill(_ context.Context, workspaceID, billID string) ([]*entity.StockMovement, error) {
	unlock := r.rlock()
	defer unlock()
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.WorkspaceID == workspaceID && m.BillID == billID {
			m := m
			out = append(out, &m)
		}
	}
	return out, nil
}
