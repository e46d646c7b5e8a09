package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del ledger.
const (
	MovementTypeReserve = "RESERVE" // salida por factura
	MovementTypeRelease = "RELEASE" // devolución por anulación o cambio de ítems
	MovementTypeRestock = "RESTOCK" // entrada de mercancía
	MovementTypeAdjust  = "ADJUST"  // ajuste manual (+/-)
)

// StockMovement es el diario append-only del ledger. Quantity lleva signo
// (negativo en RESERVE, positivo en RELEASE y RESTOCK).
type StockMovement struct {
	ID          string
	WorkspaceID string
	ProductID   string
	Type        string
	Quantity    decimal.Decimal
	BillID      string // vacío si no viene de una factura
	Notes       string
	CreatedBy   string
	CreatedAt   time.Time
}
