package billing

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	rules "github.com/jhoicas/billing-engine/internal/domain/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
)

// GetBill devuelve la factura completa del workspace del actor.
func (e *Engine) GetBill(ctx context.Context, actor entity.Actor, billID string) (*dto.BillResponse, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, err
	}
	bill, err := e.billRepo.GetByID(ctx, actor.WorkspaceID, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrBillNotFound
	}
	return toBillResponse(bill), nil
}

// ListBills lista cabeceras filtradas por rango de días de negocio (inclusivo), estado,
// estado de pago y cliente.
func (e *Engine) ListBills(ctx context.Context, actor entity.Actor, in dto.BillListRequest) (*dto.BillListResponse, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, err
	}
	in.DefaultPage()
	if in.Limit > 100 {
		in.Limit = 100
	}
	filter := entity.BillFilter{
		Status:        strings.ToUpper(strings.TrimSpace(in.Status)),
		PaymentStatus: strings.ToUpper(strings.TrimSpace(in.PaymentStatus)),
		CustomerID:    strings.TrimSpace(in.CustomerID),
		Limit:         in.Limit,
		Offset:        in.Offset,
	}
	switch filter.Status {
	case "", entity.BillStatusActive, entity.BillStatusCancelled:
	default:
		return nil, domain.NewInputError("status", "debe ser ACTIVE o CANCELLED")
	}
	switch filter.PaymentStatus {
	case "", entity.PaymentStatusPending, entity.PaymentStatusPartial, entity.PaymentStatusPaid:
	default:
		return nil, domain.NewInputError("payment_status", "debe ser PENDING, PARTIAL o PAID")
	}
	if in.From != "" {
		from, err := time.ParseInLocation(rules.DayLayout, in.From, e.cfg.Location)
		if err != nil {
			return nil, domain.NewInputError("from", "formato YYYY-MM-DD")
		}
		filter.From = &from
	}
	if in.To != "" {
		to, err := time.ParseInLocation(rules.DayLayout, in.To, e.cfg.Location)
		if err != nil {
			return nil, domain.NewInputError("to", "formato YYYY-MM-DD")
		}
		end := to.AddDate(0, 0, 1)
		filter.To = &end
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, domain.NewInputError("from", "debe ser anterior o igual a to")
	}

	list, err := e.billRepo.List(ctx, actor.WorkspaceID, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.BillListResponse{
		Items: make([]dto.BillSummaryResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	}
	for _, b := range list {
		out.Items = append(out.Items, dto.BillSummaryResponse{
			ID:            b.ID,
			BillNumber:    b.BillNumber,
			CustomerID:    b.CustomerID,
			Status:        b.Status,
			PaymentStatus: b.PaymentStatus,
			FinalAmount:   b.FinalAmount,
			CreatedAt:     b.CreatedAt,
		})
	}
	return out, nil
}
