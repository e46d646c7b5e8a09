package memory

import (
	"context"

	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.BillCounterRepository = (*BillCounterRepository)(nil)

// BillCounterRepository consecutivo diario en memoria; el rollback lo devuelve.
type BillCounterRepository struct {
	scope
}

// NewBillCounterRepository contador fuera de transacción.
func NewBillCounterRepository(store *Store) *BillCounterRepository {
	return &BillCounterRepository{scope{s: store}}
}

func (r *BillCounterRepository) Next(_ context.Context, workspaceID, day string) (int64, error) {
	unlock := r.lock()
	defer unlock()

	k := key(workspaceID, day)
	prev := r.s.counters[k]
	r.s.counters[k] = prev + 1
	r.onRollback(func() { r.s.counters[k] = prev })
	return prev + 1, nil
}
