package billing

import (
	"strings"

	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/money"

	"github.com/shopspring/decimal"
)

// PaymentInput abono tal como llega del llamador.
type PaymentInput struct {
	Amount    decimal.Decimal
	Method    string
	Reference string
}

// ValidatePayment exige monto positivo con máximo 2 decimales y un método conocido.
// index es -1 para un pago suelto y la posición para pagos iniciales.
func ValidatePayment(index int, p PaymentInput) error {
	if !p.Amount.IsPositive() {
		return domain.NewPaymentError(index, "amount", "debe ser mayor que cero")
	}
	if !money.IsMoney(p.Amount) {
		return domain.NewPaymentError(index, "amount", "máximo 2 decimales")
	}
	if !entity.IsValidPaymentMethod(NormalizeMethod(p.Method)) {
		return domain.NewPaymentError(index, "method", "método no soportado")
	}
	return nil
}

// NormalizeMethod pasa el método a mayúsculas sin espacios.
func NormalizeMethod(m string) string {
	return strings.ToUpper(strings.TrimSpace(m))
}

// DerivePaymentStatus deriva el estado de pago. El orden importa: una factura con
// total cero queda PAID aunque no tenga abonos.
func DerivePaymentStatus(final, paid decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(final):
		return entity.PaymentStatusPaid
	case paid.IsPositive():
		return entity.PaymentStatusPartial
	default:
		return entity.PaymentStatusPending
	}
}

// CheckEditable solo se reemplazan ítems en facturas activas sin pagos. Una factura de
// total cero figura PAID sin abonos y sigue siendo editable.
func CheckEditable(b *entity.Bill) error {
	if b.IsCancelled() || len(b.Payments) > 0 {
		return stateError(domain.ErrBillNotEditable, b)
	}
	return nil
}

// CheckPayable solo se abonan facturas activas.
func CheckPayable(b *entity.Bill) error {
	if b.IsCancelled() {
		return stateError(domain.ErrBillNotEditable, b)
	}
	return nil
}

// CheckCancellable la anulación es terminal: una segunda anulación no libera stock.
func CheckCancellable(b *entity.Bill) error {
	if b.IsCancelled() {
		return stateError(domain.ErrAlreadyCancelled, b)
	}
	return nil
}

func stateError(err error, b *entity.Bill) error {
	return &domain.BillStateError{Err: err, BillID: b.ID, Status: b.Status, PaymentStatus: b.PaymentStatus}
}
