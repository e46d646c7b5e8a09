package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. El precio es referencial: la factura
// usa el unitPrice que recibe del carrito.
type Product struct {
	ID          string
	WorkspaceID string
	SKU         string // único por workspace
	Name        string
	Unit        string
	Price       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
