package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	rules "github.com/jhoicas/billing-engine/internal/domain/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/metrics"
)

// CreateBill valida el carrito, reserva el stock de todos los ítems (todo o nada), asigna el
// consecutivo del día y persiste factura, ítems y pagos iniciales en una sola transacción.
func (e *Engine) CreateBill(ctx context.Context, actor entity.Actor, in dto.CreateBillRequest) (*dto.BillResponse, error) {
	ctx, span, start := e.startSpan(ctx, "create", actor)
	bill, err := e.createBill(ctx, actor, in)
	e.observe(span, "create", start, err)
	if err != nil {
		return nil, err
	}

	metrics.BillsCreatedTotal.Inc()
	for _, p := range bill.Payments {
		metrics.PaymentsRecordedTotal.WithLabelValues(p.Method).Inc()
	}
	e.log.Info().
		Str("bill_id", bill.ID).
		Str("bill_number", bill.BillNumber).
		Str("workspace_id", bill.WorkspaceID).
		Str("final_amount", bill.FinalAmount.String()).
		Msg("factura creada")
	e.publish(ctx, entity.BillEventCreated, bill, bill.CreatedAt)
	return toBillResponse(bill), nil
}

func (e *Engine) createBill(ctx context.Context, actor entity.Actor, in dto.CreateBillRequest) (*entity.Bill, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, err
	}
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		return nil, domain.NewInputError("customerId", "requerido")
	}
	items, err := rules.BuildItems(toItemInputs(in.Items))
	if err != nil {
		return nil, err
	}
	if err := rules.ValidateAdjustments(in.DiscountAmount, in.TaxAmount); err != nil {
		return nil, err
	}
	payments := make([]rules.PaymentInput, len(in.InitialPayments))
	for i, p := range in.InitialPayments {
		payments[i] = rules.PaymentInput{Amount: p.Amount, Method: p.Method, Reference: p.Reference}
		if err := rules.ValidatePayment(i, payments[i]); err != nil {
			return nil, err
		}
	}

	exists, err := e.customers.Exists(ctx, actor.WorkspaceID, customerID)
	if err != nil {
		return nil, fmt.Errorf("consultar cliente: %w", err)
	}
	if !exists {
		return nil, domain.ErrCustomerNotFound
	}

	now := e.now()
	bill := &entity.Bill{
		ID:          uuid.New().String(),
		WorkspaceID: actor.WorkspaceID,
		CustomerID:  customerID,
		Status:      entity.BillStatusActive,
		Items:       items,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	assignItemIDs(bill.ID, bill.Items)
	rules.ComputeTotals(bill.Items, in.DiscountAmount, in.TaxAmount).Apply(bill)
	for _, p := range payments {
		bill.Payments = append(bill.Payments, newPayment(bill.ID, p, actor, now))
	}
	bill.PaymentStatus = rules.DerivePaymentStatus(bill.FinalAmount, bill.PaidAmount())

	day := rules.BusinessDay(now, e.cfg.Location)
	err = e.inTx(ctx, "create", func(r txRepos) error {
		// 1) Reservas en orden de producto: si una falla, el rollback (o la compensación) deshace las anteriores.
		movs, err := e.inventory.ReserveBillLinesInTx(ctx, r.journal, r.products, actor, bill.ID, rules.Demand(bill.Items), now)
		if err != nil {
			return err
		}
		// 2) Consecutivo del día dentro de la misma transacción: un fallo posterior no lo consume.
		seq, err := r.counters.Next(ctx, actor.WorkspaceID, day.Format(rules.DayLayout))
		if err != nil {
			return fmt.Errorf("asignar consecutivo: %w", err)
		}
		bill.BillNumber = rules.FormatBillNumber(e.cfg.BillPrefix, day, seq, e.cfg.SeqDigits)
		// 3) Cabecera, ítems y pagos en una sola escritura lógica.
		if err := r.bills.Create(ctx, bill); err != nil {
			return fmt.Errorf("guardar factura %s: %w", bill.BillNumber, err)
		}
		// 4) Movimientos al final: referencian la factura.
		return e.inventory.RecordMovementsInTx(ctx, r.movRepo, movs)
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}
