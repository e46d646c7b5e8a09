package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.BillRepository = (*BillRepository)(nil)

// BillRepository facturas en memoria. Guarda y devuelve copias profundas.
type BillRepository struct {
	scope
}

// NewBillRepository repositorio fuera de transacción (lecturas).
func NewBillRepository(store *Store) *BillRepository {
	return &BillRepository{scope{s: store}}
}

func (r *BillRepository) Create(_ context.Context, bill *entity.Bill) error {
	unlock := r.lock()
	defer unlock()

	nk := key(bill.WorkspaceID, bill.BillNumber)
	if _, ok := r.s.numbers[nk]; ok {
		return fmt.Errorf("bill_number %s: %w", bill.BillNumber, domain.ErrDuplicate)
	}
	if _, ok := r.s.bills[bill.ID]; ok {
		return fmt.Errorf("bill %s: %w", bill.ID, domain.ErrDuplicate)
	}
	r.s.bills[bill.ID] = bill.Clone()
	r.s.numbers[nk] = bill.ID
	r.onRollback(func() {
		delete(r.s.bills, bill.ID)
		delete(r.s.numbers, nk)
	})
	return nil
}

func (r *BillRepository) GetByID(_ context.Context, workspaceID, id string) (*entity.Bill, error) {
	unlock := r.rlock()
	defer unlock()
	return r.get(workspaceID, id), nil
}

// GetForUpdate dentro de una transacción el candado del store ya serializa la factura.
func (r *BillRepository) GetForUpdate(ctx context.Context, workspaceID, id string) (*entity.Bill, error) {
	return r.GetByID(ctx, workspaceID, id)
}

func (r *BillRepository) get(workspaceID, id string) *entity.Bill {
	b, ok := r.s.bills[id]
	if !ok || b.WorkspaceID != workspaceID {
		return nil
	}
	return b.Clone()
}

func (r *BillRepository) ReplaceItems(_ context.Context, bill *entity.Bill) error {
	return r.mutate(bill.ID, func(stored *entity.Bill) {
		stored.Items = bill.Clone().Items
	})
}

func (r *BillRepository) UpdateHeader(_ context.Context, bill *entity.Bill) error {
	return r.mutate(bill.ID, func(stored *entity.Bill) {
		c := bill.Clone()
		stored.Status = c.Status
		stored.PaymentStatus = c.PaymentStatus
		stored.Subtotal = c.Subtotal
		stored.DiscountAmount = c.DiscountAmount
		stored.TaxAmount = c.TaxAmount
		stored.FinalAmount = c.FinalAmount
		stored.CancelReason = c.CancelReason
		stored.CancelledAt = c.CancelledAt
		stored.Notes = c.Notes
		stored.UpdatedAt = c.UpdatedAt
	})
}

func (r *BillRepository) AddPayment(_ context.Context, payment *entity.Payment) error {
	return r.mutate(payment.BillID, func(stored *entity.Bill) {
		stored.Payments = append(stored.Payments, *payment)
	})
}

// mutate aplica fn sobre la factura guardada y anota la versión anterior para el rollback.
func (r *BillRepository) mutate(id string, fn func(stored *entity.Bill)) error {
	unlock := r.lock()
	defer unlock()

	stored, ok := r.s.bills[id]
	if !ok {
		return domain.ErrBillNotFound
	}
	before := stored.Clone()
	fn(stored)
	r.onRollback(func() { r.s.bills[id] = before })
	return nil
}

func (r *BillRepository) List(_ context.Context, workspaceID string, f entity.BillFilter) ([]*entity.Bill, error) {
	unlock := r.rlock()
	defer unlock()

	var out []*entity.Bill
	for _, b := range r.s.bills {
		if b.WorkspaceID != workspaceID {
			continue
		}
		if f.From != nil && b.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !b.CreatedAt.Before(*f.To) {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && b.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.CustomerID != "" && b.CustomerID != f.CustomerID {
			continue
		}
		h := *b
		h.Items, h.Payments = nil, nil
		out = append(out, &h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].BillNumber > out[j].BillNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, f.Limit, f.Offset), nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
