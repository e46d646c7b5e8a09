package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
	"github.com/jhoicas/billing-engine/pkg/money"
)

// DocumentUseCase arma la instantánea de solo lectura que consumen los renderizadores
// externos (PDF, HTML). No renderiza nada.
type DocumentUseCase struct {
	billRepo     repository.BillRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	profile      dto.BusinessProfile
	loc          *time.Location
}

// NewDocumentUseCase construye el caso de uso con el perfil del negocio de la configuración.
func NewDocumentUseCase(
	billRepo repository.BillRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	profile dto.BusinessProfile,
	loc *time.Location,
) *DocumentUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &DocumentUseCase{
		billRepo:     billRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		profile:      profile,
		loc:          loc,
	}
}

// GetDocument devuelve la factura con cliente, ítems (con nombre de producto si el ítem no
// trae descripción), pagos y totales formateados.
func (uc *DocumentUseCase) GetDocument(ctx context.Context, actor entity.Actor, billID string) (*dto.BillDocument, error) {
	if err := domain.Authorize(actor, entity.RoleMember); err != nil {
		return nil, err
	}
	bill, err := uc.billRepo.GetByID(ctx, actor.WorkspaceID, billID)
	if err != nil {
		return nil, fmt.Errorf("documento: obtener factura: %w", err)
	}
	if bill == nil {
		return nil, domain.ErrBillNotFound
	}
	customer, err := uc.customerRepo.GetByID(ctx, actor.WorkspaceID, bill.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("documento: obtener cliente: %w", err)
	}
	if customer == nil {
		return nil, domain.ErrCustomerNotFound
	}

	doc := &dto.BillDocument{
		Business:      uc.profile,
		Customer:      *toCustomerResponse(customer),
		BillID:        bill.ID,
		BillNumber:    bill.BillNumber,
		Date:          bill.CreatedAt.In(uc.loc).Format("02/01/2006 15:04"),
		Status:        bill.Status,
		PaymentStatus: bill.PaymentStatus,
		Lines:         make([]dto.DocumentLine, 0, len(bill.Items)),
		Payments:      make([]dto.DocumentPayment, 0, len(bill.Payments)),
		Subtotal:      money.Format(bill.Subtotal),
		Discount:      money.Format(bill.DiscountAmount),
		Tax:           money.Format(bill.TaxAmount),
		Total:         money.Format(bill.FinalAmount),
		Paid:          money.Format(bill.PaidAmount()),
		BalanceDue:    money.Format(bill.BalanceDue()),
		CancelReason:  bill.CancelReason,
		Notes:         bill.Notes,
	}

	names := make(map[string]string)
	for _, it := range bill.Items {
		description := it.Description
		if description == "" && it.HasProduct() {
			if _, ok := names[it.ProductID]; !ok {
				p, err := uc.productRepo.GetByID(ctx, actor.WorkspaceID, it.ProductID)
				if err != nil {
					return nil, fmt.Errorf("documento: obtener producto: %w", err)
				}
				if p != nil {
					names[it.ProductID] = p.Name
				}
			}
			description = names[it.ProductID]
		}
		line := dto.DocumentLine{
			Position:    it.Position + 1,
			Description: description,
			Quantity:    it.Quantity.String(),
			Unit:        it.Unit,
			UnitPrice:   money.Format(it.UnitPrice),
			LineTotal:   money.Format(it.LineTotal),
		}
		if it.IsTailored {
			line.TailoringCharge = money.Format(it.TailoringCharge)
		}
		if len(it.Measurements) > 0 {
			var m any
			if err := json.Unmarshal(it.Measurements, &m); err == nil {
				line.Measurements = m
			}
		}
		doc.Lines = append(doc.Lines, line)
	}
	for _, p := range bill.Payments {
		doc.Payments = append(doc.Payments, dto.DocumentPayment{
			Method:     p.Method,
			Amount:     money.Format(p.Amount),
			Reference:  p.Reference,
			RecordedAt: p.RecordedAt.In(uc.loc).Format("02/01/2006 15:04"),
		})
	}
	return doc, nil
}
