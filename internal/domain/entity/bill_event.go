package entity

import "time"

// Tipos de evento publicados por el motor de facturación.
const (
	BillEventCreated      = "bill.created"
	BillEventUpdated      = "bill.updated"
	BillEventCancelled    = "bill.cancelled"
	BillEventPaymentAdded = "bill.payment_added"
)

// BillEvent notifica un cambio confirmado en una factura.
// Days son los días de negocio (YYYY-MM-DD) afectados, usados para invalidar reportes diarios.
type BillEvent struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	WorkspaceID string    `json:"workspace_id"`
	BillID      string    `json:"bill_id"`
	BillNumber  string    `json:"bill_number"`
	Days        []string  `json:"days"`
	OccurredAt  time.Time `json:"occurred_at"`
}
