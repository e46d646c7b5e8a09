package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la factura. CANCELLED es terminal.
const (
	BillStatusActive    = "ACTIVE"
	BillStatusCancelled = "CANCELLED"
)

// Estados de pago (derivados de la suma de pagos frente a FinalAmount).
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPartial = "PARTIAL"
	PaymentStatusPaid    = "PAID"
)

// Bill representa la cabecera de una factura de punto de venta con sus ítems y pagos.
type Bill struct {
	ID             string
	WorkspaceID    string
	BillNumber     string
	CustomerID     string
	Status         string
	PaymentStatus  string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	FinalAmount    decimal.Decimal
	Items          []BillItem
	Payments       []Payment
	CancelReason   string
	CancelledAt    *time.Time
	Notes          string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsCancelled indica si la factura ya fue anulada.
func (b *Bill) IsCancelled() bool { return b.Status == BillStatusCancelled }

// PaidAmount suma los pagos registrados.
func (b *Bill) PaidAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range b.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// BalanceDue es lo pendiente por cobrar; nunca negativo (el sobrepago no genera saldo a favor).
func (b *Bill) BalanceDue() decimal.Decimal {
	due := b.FinalAmount.Sub(b.PaidAmount())
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// Clone copia profunda (los stores en memoria no comparten slices con el llamador).
func (b *Bill) Clone() *Bill {
	if b == nil {
		return nil
	}
	c := *b
	c.Items = make([]BillItem, len(b.Items))
	for i, it := range b.Items {
		c.Items[i] = it
		if it.Measurements != nil {
			c.Items[i].Measurements = append([]byte(nil), it.Measurements...)
		}
	}
	c.Payments = append([]Payment(nil), b.Payments...)
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}

// BillFilter criterios de listado. Los campos vacíos no filtran.
type BillFilter struct {
	From          *time.Time // inclusive
	To            *time.Time // exclusivo
	Status        string
	PaymentStatus string
	CustomerID    string
	Limit         int
	Offset        int
}
