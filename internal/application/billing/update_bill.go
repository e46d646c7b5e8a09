package billing

import (
	"context"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	rules "github.com/jhoicas/billing-engine/internal/domain/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/metrics"
)

// UpdateBill reemplaza todos los ítems de una factura activa sin pagos y recalcula totales.
// El stock se ajusta por diferencia neta por producto (libera el sobrante, reserva el
// faltante) en la misma transacción; si algo falla la factura y el ledger quedan intactos.
func (e *Engine) UpdateBill(ctx context.Context, actor entity.Actor, billID string, in dto.UpdateBillRequest) (*dto.BillResponse, error) {
	ctx, span, start := e.startSpan(ctx, "update", actor)
	bill, err := e.updateBill(ctx, actor, billID, in)
	e.observe(span, "update", start, err)
	if err != nil {
		return nil, err
	}

	metrics.BillsUpdatedTotal.Inc()
	e.log.Info().Str("bill_id", bill.ID).Str("bill_number", bill.BillNumber).Int("items", len(bill.Items)).Msg("ítems de factura reemplazados")
	e.publish(ctx, entity.BillEventUpdated, bill, bill.CreatedAt)
	return toBillResponse(bill), nil
}

func (e *Engine) updateBill(ctx context.Context, actor entity.Actor, billID string, in dto.UpdateBillRequest) (*entity.Bill, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, err
	}
	items, err := rules.BuildItems(toItemInputs(in.Items))
	if err != nil {
		return nil, err
	}

	now := e.now()
	var bill *entity.Bill
	err = e.inTx(ctx, "update", func(r txRepos) error {
		current, err := lockBill(ctx, r.bills, actor.WorkspaceID, billID)
		if err != nil {
			return err
		}
		if err := rules.CheckEditable(current); err != nil {
			return err
		}
		discount, tax := current.DiscountAmount, current.TaxAmount
		if in.DiscountAmount != nil {
			discount = *in.DiscountAmount
		}
		if in.TaxAmount != nil {
			tax = *in.TaxAmount
		}
		if err := rules.ValidateAdjustments(discount, tax); err != nil {
			return err
		}

		delta := rules.NetDelta(current.Items, items)
		if err := e.inventory.ApplyBillLinesInTx(ctx, r.journal, r.movRepo, r.products, actor, current.ID, delta, now); err != nil {
			return err
		}

		assignItemIDs(current.ID, items)
		current.Items = items
		rules.ComputeTotals(items, discount, tax).Apply(current)
		current.PaymentStatus = rules.DerivePaymentStatus(current.FinalAmount, current.PaidAmount())
		current.UpdatedAt = now
		if err := r.bills.ReplaceItems(ctx, current); err != nil {
			return err
		}
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
