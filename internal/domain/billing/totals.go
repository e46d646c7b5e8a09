package billing

import (
	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/money"

	"github.com/shopspring/decimal"
)

// Totals montos de cabecera derivados de los ítems.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	FinalAmount    decimal.Decimal
}

// ValidateAdjustments valida descuento e impuesto (montos absolutos ya calculados).
func ValidateAdjustments(discount, tax decimal.Decimal) error {
	if discount.IsNegative() {
		return domain.NewInputError("discountAmount", "no puede ser negativo")
	}
	if tax.IsNegative() {
		return domain.NewInputError("taxAmount", "no puede ser negativo")
	}
	return nil
}

// ComputeTotals subtotal = Σ(lineTotal + tailoringCharge); final = max(0, subtotal - descuento + impuesto).
func ComputeTotals(items []entity.BillItem, discount, tax decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal).Add(it.TailoringCharge)
	}
	subtotal = money.Round(subtotal)
	discount = money.Round(discount)
	tax = money.Round(tax)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		FinalAmount:    money.ClampZero(subtotal.Sub(discount).Add(tax)),
	}
}

// Apply copia los totales en la cabecera de la factura.
func (t Totals) Apply(b *entity.Bill) {
	b.Subtotal = t.Subtotal
	b.DiscountAmount = t.DiscountAmount
	b.TaxAmount = t.TaxAmount
	b.FinalAmount = t.FinalAmount
}

// CheckInvariants verifica que los totales guardados coincidan con los ítems.
func CheckInvariants(b *entity.Bill) bool {
	want := ComputeTotals(b.Items, b.DiscountAmount, b.TaxAmount)
	return want.Subtotal.Equal(b.Subtotal) && want.FinalAmount.Equal(b.FinalAmount)
}
