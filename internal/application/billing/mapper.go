package billing

import (
	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
)

func toBillResponse(b *entity.Bill) *dto.BillResponse {
	resp := &dto.BillResponse{
		ID:             b.ID,
		WorkspaceID:    b.WorkspaceID,
		BillNumber:     b.BillNumber,
		CustomerID:     b.CustomerID,
		Status:         b.Status,
		PaymentStatus:  b.PaymentStatus,
		Subtotal:       b.Subtotal,
		DiscountAmount: b.DiscountAmount,
		TaxAmount:      b.TaxAmount,
		FinalAmount:    b.FinalAmount,
		PaidAmount:     b.PaidAmount(),
		BalanceDue:     b.BalanceDue(),
		Items:          make([]dto.BillItemResponse, 0, len(b.Items)),
		Payments:       make([]dto.PaymentResponse, 0, len(b.Payments)),
		CancelReason:   b.CancelReason,
		CancelledAt:    b.CancelledAt,
		Notes:          b.Notes,
		CreatedBy:      b.CreatedBy,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	for _, it := range b.Items {
		resp.Items = append(resp.Items, dto.BillItemResponse{
			ID:              it.ID,
			Position:        it.Position,
			ProductID:       it.ProductID,
			Description:     it.Description,
			Quantity:        it.Quantity,
			Unit:            it.Unit,
			UnitPrice:       it.UnitPrice,
			LineTotal:       it.LineTotal,
			IsTailored:      it.IsTailored,
			TailoringCharge: it.TailoringCharge,
			Measurements:    it.Measurements,
		})
	}
	for _, p := range b.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	return resp
}

func toPaymentResponse(p entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:         p.ID,
		BillID:     p.BillID,
		Amount:     p.Amount,
		Method:     p.Method,
		Reference:  p.Reference,
		RecordedBy: p.RecordedBy,
		RecordedAt: p.RecordedAt,
	}
}
