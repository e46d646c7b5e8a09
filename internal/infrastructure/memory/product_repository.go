package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository catálogo en memoria; el SKU es único por workspace.
type ProductRepository struct {
	scope
}

// NewProductRepository repositorio de productos.
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{scope{s: store}}
}

func (r *ProductRepository) Create(_ context.Context, p *entity.Product) error {
	unlock := r.lock()
	defer unlock()
	sk := key(p.WorkspaceID, p.SKU)
	if _, ok := r.s.skus[sk]; ok {
		return domain.ErrDuplicate
	}
	r.s.products[p.ID] = *p
	r.s.skus[sk] = p.ID
	r.onRollback(func() {
		delete(r.s.products, p.ID)
		delete(r.s.skus, sk)
	})
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, workspaceID, id string) (*entity.Product, error) {
	unlock := r.rlock()
	defer unlock()
	p, ok := r.s.products[id]
	if !ok || p.WorkspaceID != workspaceID {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepository) ListByWorkspace(_ context.Context, workspaceID string, limit, offset int) ([]*entity.Product, error) {
	unlock := r.rlock()
	defer unlock()
	var out []*entity.Product
	for _, p := range r.s.products {
		if p.WorkspaceID == workspaceID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return paginate(out, limit, offset), nil
}
