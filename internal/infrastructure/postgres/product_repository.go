package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, workspace_id, sku, name, unit, price, created_at, updated_at`

// Create persiste un nuevo producto. El SKU es único por workspace.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.WorkspaceID, product.SKU, product.Name, product.Unit, product.Price,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto del workspace por ID.
func (r *ProductRepo) GetByID(ctx context.Context, workspaceID, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE workspace_id = $1 AND id = $2`
	p, err := scanProduct(r.q.QueryRow(ctx, query, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListByWorkspace lista productos por workspace con paginación.
func (r *ProductRepo) ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE workspace_id = $1 ORDER BY sku LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, workspaceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.WorkspaceID, &p.SKU, &p.Name, &p.Unit, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
