package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock es la fila del ledger: cantidad disponible de un producto.
type Stock struct {
	ProductID string
	Available decimal.Decimal
	UpdatedAt time.Time
}
