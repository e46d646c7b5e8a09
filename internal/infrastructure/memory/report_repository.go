package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepository)(nil)

// ReportRepository agregaciones de solo lectura sobre el store en memoria.
type ReportRepository struct {
	s *Store
}

// NewReportRepository repositorio de reportes.
func NewReportRepository(store *Store) *ReportRepository {
	return &ReportRepository{s: store}
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func (r *ReportRepository) BillTotals(_ context.Context, workspaceID string, from, to time.Time) ([]repository.BillTotalsRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	groups := make(map[string]*repository.BillTotalsRow)
	for _, b := range r.s.bills {
		if b.WorkspaceID != workspaceID || !inRange(b.CreatedAt, from, to) {
			continue
		}
		k := key(b.Status, b.PaymentStatus)
		row, ok := groups[k]
		if !ok {
			row = &repository.BillTotalsRow{Status: b.Status, PaymentStatus: b.PaymentStatus}
			groups[k] = row
		}
		row.Count++
		row.FinalAmount = row.FinalAmount.Add(b.FinalAmount)
		row.Collected = row.Collected.Add(b.PaidAmount())
	}
	out := make([]repository.BillTotalsRow, 0, len(groups))
	for _, row := range groups {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status == out[j].Status {
			return out[i].PaymentStatus < out[j].PaymentStatus
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

func (r *ReportRepository) PaymentTotals(_ context.Context, workspaceID string, from, to time.Time) ([]repository.PaymentTotalsRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	groups := make(map[string]*repository.PaymentTotalsRow)
	for _, b := range r.s.bills {
		if b.WorkspaceID != workspaceID || b.Status == entity.BillStatusCancelled {
			continue
		}
		for _, p := range b.Payments {
			if !inRange(p.RecordedAt, from, to) {
				continue
			}
			row, ok := groups[p.Method]
			if !ok {
				row = &repository.PaymentTotalsRow{Method: p.Method}
				groups[p.Method] = row
			}
			row.Count++
			row.Amount = row.Amount.Add(p.Amount)
		}
	}
	out := make([]repository.PaymentTotalsRow, 0, len(groups))
	for _, row := range groups {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out, nil
}
