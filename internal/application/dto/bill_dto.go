package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// BillItemRequest línea del carrito. El precio lo resuelve el catálogo antes de llamar.
type BillItemRequest struct {
	ProductID       string          `json:"product_id,omitempty"`
	Description     string          `json:"description,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit,omitempty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	IsTailored      bool            `json:"is_tailored"`
	TailoringCharge decimal.Decimal `json:"tailoring_charge"`
	Measurements    json.RawMessage `json:"measurements,omitempty"`
}

// PaymentRequest body para POST /api/bills/:id/payments (y pagos iniciales).
type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"` // CASH|UPI|CARD|NETBANKING
	Reference string          `json:"reference,omitempty"`
}

// CreateBillRequest body para POST /api/bills.
// DiscountAmount y TaxAmount son montos absolutos ya calculados por el llamador.
type CreateBillRequest struct {
	CustomerID      string            `json:"customer_id"`
	Items           []BillItemRequest `json:"items"`
	DiscountAmount  decimal.Decimal   `json:"discount_amount"`
	TaxAmount       decimal.Decimal   `json:"tax_amount"`
	InitialPayments []PaymentRequest  `json:"initial_payments,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// UpdateBillRequest body para PUT /api/bills/:id/items. Descuento e impuesto nulos
// conservan los valores actuales.
type UpdateBillRequest struct {
	Items          []BillItemRequest `json:"items"`
	DiscountAmount *decimal.Decimal  `json:"discount_amount,omitempty"`
	TaxAmount      *decimal.Decimal  `json:"tax_amount,omitempty"`
}

// CancelBillRequest body para POST /api/bills/:id/cancel.
type CancelBillRequest struct {
	Reason string `json:"reason"`
}

// BillListRequest filtros de GET /api/bills (fechas YYYY-MM-DD, días de negocio inclusivos).
type BillListRequest struct {
	From          string `query:"from"`
	To            string `query:"to"`
	Status        string `query:"status"`
	PaymentStatus string `query:"payment_status"`
	CustomerID    string `query:"customer_id"`
	PageRequest
}

// BillItemResponse línea de factura en respuestas.
type BillItemResponse struct {
	ID              string          `json:"id"`
	Position        int             `json:"position"`
	ProductID       string          `json:"product_id,omitempty"`
	Description     string          `json:"description,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	LineTotal       decimal.Decimal `json:"line_total"`
	IsTailored      bool            `json:"is_tailored"`
	TailoringCharge decimal.Decimal `json:"tailoring_charge"`
	Measurements    json.RawMessage `json:"measurements,omitempty"`
}

// PaymentResponse pago registrado.
type PaymentResponse struct {
	ID         string          `json:"id"`
	BillID     string          `json:"bill_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	RecordedBy string          `json:"recorded_by"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// BillResponse factura completa (GET /api/bills/:id y respuestas de mutaciones).
type BillResponse struct {
	ID             string             `json:"id"`
	WorkspaceID    string             `json:"workspace_id"`
	BillNumber     string             `json:"bill_number"`
	CustomerID     string             `json:"customer_id"`
	Status         string             `json:"status"`
	PaymentStatus  string             `json:"payment_status"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	FinalAmount    decimal.Decimal    `json:"final_amount"`
	PaidAmount     decimal.Decimal    `json:"paid_amount"`
	BalanceDue     decimal.Decimal    `json:"balance_due"`
	Items          []BillItemResponse `json:"items"`
	Payments       []PaymentResponse  `json:"payments"`
	CancelReason   string             `json:"cancel_reason,omitempty"`
	CancelledAt    *time.Time         `json:"cancelled_at,omitempty"`
	Notes          string             `json:"notes,omitempty"`
	CreatedBy      string             `json:"created_by"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// BillSummaryResponse cabecera de factura en listados.
type BillSummaryResponse struct {
	ID            string          `json:"id"`
	BillNumber    string          `json:"bill_number"`
	CustomerID    string          `json:"customer_id"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BillListResponse lista paginada de facturas.
type BillListResponse struct {
	Items []BillSummaryResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// AddPaymentResponse pago creado junto con el estado resultante de la factura.
type AddPaymentResponse struct {
	Payment PaymentResponse `json:"payment"`
	Bill    BillResponse    `json:"bill"`
}

// NotifyBillRequest body para POST /api/bills/:id/notify.
type NotifyBillRequest struct {
	Phone   string `json:"phone"`
	Channel string `json:"channel,omitempty"` // whatsapp|sms; por defecto whatsapp
}

// NotifyBillResponse confirmación de la solicitud de envío (no garantiza la entrega).
type NotifyBillResponse struct {
	BillID  string `json:"bill_id"`
	Phone   string `json:"phone"`
	Channel string `json:"channel"`
	Status  string `json:"status"`
}
