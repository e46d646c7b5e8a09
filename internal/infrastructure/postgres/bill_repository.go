package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.BillRepository = (*BillRepo)(nil)

// BillRepo implementación de BillRepository: cabecera en bills, líneas en bill_items y
// abonos en bill_payments (usable con pool o tx).
type BillRepo struct {
	q Querier
}

// NewBillRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBillRepository(q Querier) *BillRepo {
	return &BillRepo{q: q}
}

const billColumns = `id, workspace_id, bill_number, customer_id, status, payment_status,
	subtotal, discount_amount, tax_amount, final_amount, cancel_reason, cancelled_at, notes,
	created_by, created_at, updated_at`

// Create persiste cabecera, ítems y pagos iniciales.
func (r *BillRepo) Create(ctx context.Context, bill *entity.Bill) error {
	query := `
		INSERT INTO bills (` + billColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		bill.ID, bill.WorkspaceID, bill.BillNumber, bill.CustomerID, bill.Status, bill.PaymentStatus,
		bill.Subtotal, bill.DiscountAmount, bill.TaxAmount, bill.FinalAmount,
		bill.CancelReason, bill.CancelledAt, bill.Notes, bill.CreatedBy, bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("bill number %s: %w", bill.BillNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert bill: %w", err)
	}
	if err := r.insertItems(ctx, bill.Items); err != nil {
		return err
	}
	for i := range bill.Payments {
		if err := r.AddPayment(ctx, &bill.Payments[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *BillRepo) insertItems(ctx context.Context, items []entity.BillItem) error {
	query := `
		INSERT INTO bill_items (id, bill_id, position, product_id, description, quantity, unit, unit_price, line_total, is_tailored, tailoring_charge, measurements)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	for _, it := range items {
		var measurements any
		if len(it.Measurements) > 0 {
			measurements = it.Measurements
		}
		_, err := r.q.Exec(ctx, query,
			it.ID, it.BillID, it.Position, nullIfEmpty(it.ProductID), it.Description, it.Quantity, it.Unit,
			it.UnitPrice, it.LineTotal, it.IsTailored, it.TailoringCharge, measurements,
		)
		if err != nil {
			return fmt.Errorf("insert bill item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la factura completa del workspace.
func (r *BillRepo) GetByID(ctx context.Context, workspaceID, id string) (*entity.Bill, error) {
	return r.get(ctx, workspaceID, id, "")
}

// GetForUpdate obtiene la factura y bloquea su fila hasta el fin de la transacción.
func (r *BillRepo) GetForUpdate(ctx context.Context, workspaceID, id string) (*entity.Bill, error) {
	return r.get(ctx, workspaceID, id, " FOR UPDATE")
}

func (r *BillRepo) get(ctx context.Context, workspaceID, id, lock string) (*entity.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE workspace_id = $1 AND id = $2` + lock
	bill, err := scanBill(r.q.QueryRow(ctx, query, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	if bill.Items, err = r.items(ctx, bill.ID); err != nil {
		return nil, err
	}
	if bill.Payments, err = r.payments(ctx, bill.ID); err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *BillRepo) items(ctx context.Context, billID string) ([]entity.BillItem, error) {
	query := `
		SELECT id, bill_id, position, COALESCE(product_id, ''), description, quantity, unit, unit_price, line_total, is_tailored, tailoring_charge, measurements
		FROM bill_items WHERE bill_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, billID)
	if err != nil {
		return nil, fmt.Errorf("list bill items: %w", err)
	}
	defer rows.Close()
	var list []entity.BillItem
	for rows.Next() {
		var it entity.BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.Position, &it.ProductID, &it.Description, &it.Quantity, &it.Unit,
			&it.UnitPrice, &it.LineTotal, &it.IsTailored, &it.TailoringCharge, &it.Measurements); err != nil {
			return nil, fmt.Errorf("scan bill item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *BillRepo) payments(ctx context.Context, billID string) ([]entity.Payment, error) {
	query := `
		SELECT id, bill_id, amount, method, reference, recorded_by, recorded_at
		FROM bill_payments WHERE bill_id = $1 ORDER BY recorded_at, id`
	rows, err := r.q.Query(ctx, query, billID)
	if err != nil {
		return nil, fmt.Errorf("list bill payments: %w", err)
	}
	defer rows.Close()
	var list []entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.BillID, &p.Amount, &p.Method, &p.Reference, &p.RecordedBy, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan bill payment: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ReplaceItems borra las líneas actuales e inserta bill.Items.
func (r *BillRepo) ReplaceItems(ctx context.Context, bill *entity.Bill) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, bill.ID); err != nil {
		return fmt.Errorf("delete bill items: %w", err)
	}
	return r.insertItems(ctx, bill.Items)
}

// UpdateHeader persiste estados, totales y datos de anulación.
func (r *BillRepo) UpdateHeader(ctx context.Context, bill *entity.Bill) error {
	query := `
		UPDATE bills
		SET status          = $3,
		    payment_status  = $4,
		    subtotal        = $5,
		    discount_amount = $6,
		    tax_amount      = $7,
		    final_amount    = $8,
		    cancel_reason   = $9,
		    cancelled_at    = $10,
		    notes           = $11,
		    updated_at      = $12
		WHERE workspace_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		bill.WorkspaceID, bill.ID, bill.Status, bill.PaymentStatus,
		bill.Subtotal, bill.DiscountAmount, bill.TaxAmount, bill.FinalAmount,
		bill.CancelReason, bill.CancelledAt, bill.Notes, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrBillNotFound
	}
	return nil
}

// AddPayment inserta un abono.
func (r *BillRepo) AddPayment(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO bill_payments (id, bill_id, amount, method, reference, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, p.ID, p.BillID, p.Amount, p.Method, p.Reference, p.RecordedBy, p.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert bill payment: %w", err)
	}
	return nil
}

// List cabeceras filtradas, más recientes primero.
func (r *BillRepo) List(ctx context.Context, workspaceID string, f entity.BillFilter) ([]*entity.Bill, error) {
	where := []string{"workspace_id = $1"}
	args := []any{workspaceID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at < $%d", *f.To)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.PaymentStatus != "" {
		add("payment_status = $%d", f.PaymentStatus)
	}
	if f.CustomerID != "" {
		add("customer_id = $%d", f.CustomerID)
	}
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM bills WHERE %s ORDER BY created_at DESC, bill_number DESC LIMIT $%d OFFSET $%d`,
		billColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()
	var list []*entity.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func scanBill(row pgx.Row) (*entity.Bill, error) {
	var b entity.Bill
	err := row.Scan(
		&b.ID, &b.WorkspaceID, &b.BillNumber, &b.CustomerID, &b.Status, &b.PaymentStatus,
		&b.Subtotal, &b.DiscountAmount, &b.TaxAmount, &b.FinalAmount,
		&b.CancelReason, &b.CancelledAt, &b.Notes, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
