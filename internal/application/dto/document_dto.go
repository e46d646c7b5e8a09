package dto

// BusinessProfile datos del negocio impresos en el documento.
type BusinessProfile struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	GSTIN   string `json:"gstin,omitempty"`
}

// DocumentLine línea lista para imprimir (montos ya formateados a 2 decimales).
type DocumentLine struct {
	Position        int    `json:"position"`
	Description     string `json:"description"`
	Quantity        string `json:"quantity"`
	Unit            string `json:"unit"`
	UnitPrice       string `json:"unit_price"`
	LineTotal       string `json:"line_total"`
	TailoringCharge string `json:"tailoring_charge,omitempty"`
	Measurements    any    `json:"measurements,omitempty"`
}

// DocumentPayment pago listo para imprimir.
type DocumentPayment struct {
	Method     string `json:"method"`
	Amount     string `json:"amount"`
	Reference  string `json:"reference,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

// BillDocument instantánea de solo lectura que consumen los renderizadores (PDF/HTML).
type BillDocument struct {
	Business      BusinessProfile   `json:"business"`
	Customer      CustomerResponse  `json:"customer"`
	BillID        string            `json:"bill_id"`
	BillNumber    string            `json:"bill_number"`
	Date          string            `json:"date"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Lines         []DocumentLine    `json:"lines"`
	Payments      []DocumentPayment `json:"payments"`
	Subtotal      string            `json:"subtotal"`
	Discount      string            `json:"discount"`
	Tax           string            `json:"tax"`
	Total         string            `json:"total"`
	Paid          string            `json:"paid"`
	BalanceDue    string            `json:"balance_due"`
	CancelReason  string            `json:"cancel_reason,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}
