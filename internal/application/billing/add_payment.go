package billing

import (
	"context"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	rules "github.com/jhoicas/billing-engine/internal/domain/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/metrics"
)

// AddPayment agrega un abono a una factura activa. El estado de pago se deriva de la suma
// releída bajo el bloqueo de la factura, así dos abonos concurrentes quedan reflejados.
// El sobrepago se acepta tal cual.
func (e *Engine) AddPayment(ctx context.Context, actor entity.Actor, billID string, in dto.PaymentRequest) (*dto.AddPaymentResponse, error) {
	ctx, span, start := e.startSpan(ctx, "add_payment", actor)
	bill, payment, err := e.addPayment(ctx, actor, billID, in)
	e.observe(span, "add_payment", start, err)
	if err != nil {
		return nil, err
	}

	metrics.PaymentsRecordedTotal.WithLabelValues(payment.Method).Inc()
	e.log.Info().
		Str("bill_id", bill.ID).
		Str("payment_id", payment.ID).
		Str("amount", payment.Amount.String()).
		Str("payment_status", bill.PaymentStatus).
		Msg("pago registrado")
	e.publish(ctx, entity.BillEventPaymentAdded, bill, payment.RecordedAt)
	return &dto.AddPaymentResponse{
		Payment: toPaymentResponse(payment),
		Bill:    *toBillResponse(bill),
	}, nil
}

func (e *Engine) addPayment(ctx context.Context, actor entity.Actor, billID string, in dto.PaymentRequest) (*entity.Bill, entity.Payment, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, entity.Payment{}, err
	}
	input := rules.PaymentInput{Amount: in.Amount, Method: in.Method, Reference: in.Reference}
	if err := rules.ValidatePayment(-1, input); err != nil {
		return nil, entity.Payment{}, err
	}

	now := e.now()
	var bill *entity.Bill
	var payment entity.Payment
	err := e.inTx(ctx, "add_payment", func(r txRepos) error {
		current, err := lockBill(ctx, r.bills, actor.WorkspaceID, billID)
		if err != nil {
			return err
		}
		if err := rules.CheckPayable(current); err != nil {
			return err
		}
		payment = newPayment(current.ID, input, actor, now)
		if err := r.bills.AddPayment(ctx, &payment); err != nil {
			return err
		}
		current.Payments = append(current.Payments, payment)
		current.PaymentStatus = rules.DerivePaymentStatus(current.FinalAmount, current.PaidAmount())
		current.UpdatedAt = now
		if err := r.bills.UpdateHeader(ctx, current); err != nil {
			return err
		}
		bill = current
		return nil
	})
	if err != nil {
		return nil, entity.Payment{}, err
	}
	return bill, payment, nil
}
