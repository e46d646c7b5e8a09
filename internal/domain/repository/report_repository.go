package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BillTotalsRow agregado crudo de facturas por (estado, estado de pago).
// Collected es la suma de todos los pagos de esas facturas.
type BillTotalsRow struct {
	Status        string
	PaymentStatus string
	Count         int
	FinalAmount   decimal.Decimal
	Collected     decimal.Decimal
}

// PaymentTotalsRow agregado crudo de pagos por método.
type PaymentTotalsRow struct {
	Method string
	Count  int
	Amount decimal.Decimal
}

// ReportRepository consultas de solo lectura sobre facturas confirmadas.
// Los rangos son [from, to) en tiempo absoluto; el caso de uso convierte días de negocio.
type ReportRepository interface {
	// BillTotals agrupa las facturas creadas en el rango.
	BillTotals(ctx context.Context, workspaceID string, from, to time.Time) ([]BillTotalsRow, error)
	// PaymentTotals agrupa los pagos registrados en el rango sobre facturas no anuladas.
	PaymentTotals(ctx context.Context, workspaceID string, from, to time.Time) ([]PaymentTotalsRow, error)
}
