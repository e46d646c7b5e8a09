package billing

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	rules "github.com/jhoicas/billing-engine/internal/domain/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/metrics"
)

// CancelBill anula una factura activa y libera el stock de sus ítems. Una segunda anulación
// devuelve ErrAlreadyCancelled sin tocar el ledger. Los pagos existentes se conservan:
// no hay registro de reembolso.
func (e *Engine) CancelBill(ctx context.Context, actor entity.Actor, billID string, in dto.CancelBillRequest) (*dto.BillResponse, error) {
	ctx, span, start := e.startSpan(ctx, "cancel", actor)
	bill, err := e.cancelBill(ctx, actor, billID, in)
	e.observe(span, "cancel", start, err)
	if err != nil {
		return nil, err
	}

	metrics.BillsCancelledTotal.Inc()
	e.log.Info().Str("bill_id", bill.ID).Str("bill_number", bill.BillNumber).Str("reason", bill.CancelReason).Msg("factura anulada")
	days := []time.Time{bill.CreatedAt}
	for _, p := range bill.Payments {
		days = append(days, p.RecordedAt)
	}
	e.publish(ctx, entity.BillEventCancelled, bill, days...)
	return toBillResponse(bill), nil
}

func (e *Engine) cancelBill(ctx context.Context, actor entity.Actor, billID string, in dto.CancelBillRequest) (*entity.Bill, error) {
	if err := domain.Authorize(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.NewInputError("reason", "el motivo de anulación es obligatorio")
	}

	now := e.now()
	var bill *entity.Bill
	err := e.inTx(ctx, "cancel", func(r txRepos) error {
		current, err := lockBill(ctx, r.bills, actor.WorkspaceID, billID)
		if err != nil {
			return err
		}
		if err := rules.CheckCancellable(current); err != nil {
			return err
		}

		release := rules.Demand(current.Items)
		for i := range release {
			release[i].Quantity = release[i].Quantity.Neg()
		}
		if err := e.inventory.ApplyBillLinesInTx(ctx, r.journal, r.movRepo, r.products, actor, current.ID, release, now); err != nil {
			return err
		}

		current.Status = entity.BillStatusCancelled
		current.CancelReason = reason
		current.CancelledAt = &now
		current.UpdatedAt = now
		if err := r.bills.UpdateHeader(ctx, current); err != nil {
			return err
		}
		bill = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}
