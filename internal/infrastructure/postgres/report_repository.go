package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo agregaciones de solo lectura. Puede recibir el pool de la réplica.
type ReportRepo struct {
	q Querier
}

// NewReportRepository construye el adaptador. Pasar pool primario o de réplica.
func NewReportRepository(q Querier) *ReportRepo {
	return &ReportRepo{q: q}
}

// BillTotals agrupa por estado y estado de pago las facturas creadas en [from, to).
func (r *ReportRepo) BillTotals(ctx context.Context, workspaceID string, from, to time.Time) ([]repository.BillTotalsRow, error) {
	query := `
		SELECT b.status, b.payment_status, COUNT(*),
		       COALESCE(SUM(b.final_amount), 0), COALESCE(SUM(p.paid), 0)
		FROM bills b
		LEFT JOIN (
			SELECT bill_id, SUM(amount) AS paid FROM bill_payments GROUP BY bill_id
		) p ON p.bill_id = b.id
		WHERE b.workspace_id = $1 AND b.created_at >= $2 AND b.created_at < $3
		GROUP BY b.status, b.payment_status
		ORDER BY b.status, b.payment_status`
	rows, err := r.q.Query(ctx, query, workspaceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("bill totals: %w", err)
	}
	defer rows.Close()
	var out []repository.BillTotalsRow
	for rows.Next() {
		var row repository.BillTotalsRow
		if err := rows.Scan(&row.Status, &row.PaymentStatus, &row.Count, &row.FinalAmount, &row.Collected); err != nil {
			return nil, fmt.Errorf("scan bill totals: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// PaymentTotals agrupa por método los pagos registrados en [from, to) sobre facturas no anuladas.
func (r *ReportRepo) PaymentTotals(ctx context.Context, workspaceID string, from, to time.Time) ([]repository.PaymentTotalsRow, error) {
	query := `
		SELECT p.method, COUNT(*), COALESCE(SUM(p.amount), 0)
		FROM bill_payments p
		JOIN bills b ON b.id = p.bill_id
		WHERE b.workspace_id = $1 AND b.status <> $4
		  AND p.recorded_at >= $2 AND p.recorded_at < $3
		GROUP BY p.method
		ORDER BY p.method`
	rows, err := r.q.Query(ctx, query, workspaceID, from, to, entity.BillStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("payment totals: %w", err)
	}
	defer rows.Close()
	var out []repository.PaymentTotalsRow
	for rows.Next() {
		var row repository.PaymentTotalsRow
		if err := rows.Scan(&row.Method, &row.Count, &row.Amount); err != nil {
			return nil, fmt.Errorf("scan payment totals: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
