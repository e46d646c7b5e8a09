package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo diario append-only de movimientos del ledger (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, workspace_id, product_id, type, quantity, COALESCE(bill_id, ''), notes, created_by, created_at`

// Create registra un movimiento. Quantity lleva signo: negativo sale del disponible.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, workspace_id, product_id, type, quantity, bill_id, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.WorkspaceID, m.ProductID, m.Type, m.Quantity, nullIfEmpty(m.BillID), m.Notes, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// ListByProduct movimientos del producto, más recientes primero.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, workspaceID, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE workspace_id = $1 AND product_id = $2
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, workspaceID, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return collectMovements(rows)
}

// ListByBill movimientos generados por una factura, en orden de registro.
func (r *StockMovementRepo) ListByBill(ctx context.Context, workspaceID, billID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE workspace_id = $1 AND bill_id = $2
		ORDER BY created_at, product_id`
	rows, err := r.q.Query(ctx, query, workspaceID, billID)
	if err != nil {
		return nil, fmt.Errorf("list bill movements: %w", err)
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.ProductID, &m.Type, &m.Quantity, &m.BillID, &m.Notes, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
