package entity

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DefaultUnit unidad por defecto de un ítem.
const DefaultUnit = "pcs"

// BillItem representa una línea de la factura. LineTotal se guarda redondeado para auditoría.
type BillItem struct {
	ID              string
	BillID          string
	Position        int
	ProductID       string // vacío en ítems libres
	Description     string
	Quantity        decimal.Decimal
	Unit            string
	UnitPrice       decimal.Decimal
	LineTotal       decimal.Decimal
	IsTailored      bool
	TailoringCharge decimal.Decimal
	Measurements    json.RawMessage // opaco, se persiste tal cual
}

// HasProduct indica si el ítem consume stock del ledger.
func (i BillItem) HasProduct() bool { return i.ProductID != "" }
