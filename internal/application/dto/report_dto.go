package dto

import "github.com/shopspring/decimal"

// StatusBreakdownDTO cantidad y monto por estado de pago.
type StatusBreakdownDTO struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// BillStatsDTO respuesta de GET /api/reports/bills/stats.
// TotalAmount y el desglose excluyen facturas anuladas; TotalBills las incluye.
type BillStatsDTO struct {
	From            string                        `json:"from"`
	To              string                        `json:"to"`
	TotalBills      int                           `json:"total_bills"`
	CancelledBills  int                           `json:"cancelled_bills"`
	TotalAmount     decimal.Decimal               `json:"total_amount"`
	TotalCollected  decimal.Decimal               `json:"total_collected"`
	ByPaymentStatus map[string]StatusBreakdownDTO `json:"by_payment_status"`
}

// MethodBreakdownDTO recaudo por método de pago.
type MethodBreakdownDTO struct {
	Method string          `json:"method"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// DailySalesDTO respuesta de GET /api/reports/sales/daily.
type DailySalesDTO struct {
	Date           string               `json:"date"`
	BillCount      int                  `json:"bill_count"`
	TotalBilled    decimal.Decimal      `json:"total_billed"`
	TotalCollected decimal.Decimal      `json:"total_collected"`
	ByMethod       []MethodBreakdownDTO `json:"by_method"`
}
