package repository

import (
	"context"

	"github.com/jhoicas/billing-engine/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, workspaceID, id string) (*entity.Customer, error)
	ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*entity.Customer, error)
}
