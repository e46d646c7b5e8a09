package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.BillCounterRepository = (*BillCounterRepo)(nil)

// BillCounterRepo consecutivo diario en la tabla bill_counters (una fila por workspace y día).
type BillCounterRepo struct {
	q Querier
}

// NewBillCounterRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBillCounterRepository(q Querier) *BillCounterRepo {
	return &BillCounterRepo{q: q}
}

// Next incrementa con un upsert atómico. Dentro de una tx la fila queda bloqueada hasta el
// commit, así que un rollback devuelve el número.
func (r *BillCounterRepo) Next(ctx context.Context, workspaceID, day string) (int64, error) {
	query := `
		INSERT INTO bill_counters (workspace_id, day, seq)
		VALUES ($1, $2::date, 1)
		ON CONFLICT (workspace_id, day)
		DO UPDATE SET seq = bill_counters.seq + 1
		RETURNING seq`
	var seq int64
	if err := r.q.QueryRow(ctx, query, workspaceID, day).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next bill seq: %w", err)
	}
	return seq, nil
}
