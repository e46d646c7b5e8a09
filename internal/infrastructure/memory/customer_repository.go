package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepository)(nil)

// CustomerRepository clientes en memoria.
type CustomerRepository struct {
	scope
}

// NewCustomerRepository repositorio de clientes.
func NewCustomerRepository(store *Store) *CustomerRepository {
	return &CustomerRepository{scope{s: store}}
}

func (r *CustomerRepository) Create(_ context.Context, c *entity.Customer) error {
	unlock := r.lock()
	defer unlock()
	if _, ok := r.s.customers[c.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.customers[c.ID] = *c
	r.onRollback(func() { delete(r.s.customers, c.ID) })
	return nil
}

func (r *CustomerRepository) GetByID(_ context.Context, workspaceID, id string) (*entity.Customer, error) {
	unlock := r.rlock()
	defer unlock()
	c, ok := r.s.customers[id]
	if !ok || c.WorkspaceID != workspaceID {
		return nil, nil
	}
	return &c, nil
}

func (r *CustomerRepository) ListByWorkspace(_ context.Context, workspaceID string, limit, offset int) ([]*entity.Customer, error) {
	unlock := r.rlock()
	defer unlock()
	var out []*entity.Customer
	for _, c := range r.s.customers {
		if c.WorkspaceID == workspaceID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), nil
}
