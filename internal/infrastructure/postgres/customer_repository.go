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

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `id, workspace_id, name, phone, email, notes, created_at, updated_at`

// Create persiste un nuevo cliente.
func (r *CustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		customer.ID, customer.WorkspaceID, customer.Name, customer.Phone, customer.Email, customer.Notes,
		customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente del workspace por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, workspaceID, id string) (*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE workspace_id = $1 AND id = $2`
	c, err := scanCustomer(r.q.QueryRow(ctx, query, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// ListByWorkspace lista clientes del workspace con paginación.
func (r *CustomerRepo) ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*entity.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE workspace_id = $1 ORDER BY name LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, workspaceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	if err := row.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Phone, &c.Email, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
