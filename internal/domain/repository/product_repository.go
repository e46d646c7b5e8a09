package repository

import (
	"context"

	"github.com/jhoicas/billing-engine/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia del catálogo.
type ProductRepository interface {
	// Create devuelve domain.ErrDuplicate si el SKU ya existe en el workspace.
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, workspaceID, id string) (*entity.Product, error)
	ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*entity.Product, error)
}
