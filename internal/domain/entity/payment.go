package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de pago aceptados.
const (
	PaymentMethodCash       = "CASH"
	PaymentMethodUPI        = "UPI"
	PaymentMethodCard       = "CARD"
	PaymentMethodNetBanking = "NETBANKING"
)

// PaymentMethods lista ordenada de métodos válidos.
var PaymentMethods = []string{PaymentMethodCash, PaymentMethodUPI, PaymentMethodCard, PaymentMethodNetBanking}

// IsValidPaymentMethod valida el método contra el catálogo.
func IsValidPaymentMethod(m string) bool {
	for _, v := range PaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

// Payment es un abono a la factura. Solo se agregan, nunca se editan ni borran.
type Payment struct {
	ID         string
	BillID     string
	Amount     decimal.Decimal
	Method     string
	Reference  string // ej. id de transacción UPI
	RecordedBy string
	RecordedAt time.Time
}
