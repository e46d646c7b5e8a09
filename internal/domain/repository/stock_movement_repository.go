package repository

import (
	"context"

	"github.com/jhoicas/billing-engine/internal/domain/entity"
)

// StockMovementRepository define el puerto del diario de movimientos del ledger.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByProduct(ctx context.Context, workspaceID, productID string, limit, offset int) ([]*entity.StockMovement, error)
	ListByBill(ctx context.Context, workspaceID, billID string) ([]*entity.StockMovement, error)
}
