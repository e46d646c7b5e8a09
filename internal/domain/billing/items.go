// Package billing contiene las reglas puras del agregado Factura: validación de ítems y
// pagos, totales, estado de pago, demanda de stock y formato del consecutivo.
// No conoce la persistencia ni el ledger.
package billing

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/money"

	"github.com/shopspring/decimal"
)

// ItemInput es una línea del carrito tal como llega del llamador.
type ItemInput struct {
	ProductID       string
	Description     string
	Quantity        decimal.Decimal
	Unit            string
	UnitPrice       decimal.Decimal
	IsTailored      bool
	TailoringCharge decimal.Decimal
	Measurements    json.RawMessage
}

// BuildItems valida el carrito y devuelve los ítems normalizados (posición, unidad por
// defecto, montos redondeados y LineTotal calculado). IDs y BillID los asigna el motor.
func BuildItems(in []ItemInput) ([]entity.BillItem, error) {
	if len(in) == 0 {
		return nil, domain.NewItemError(-1, "items", "la factura requiere al menos un ítem")
	}
	items := make([]entity.BillItem, 0, len(in))
	for i, raw := range in {
		item, err := buildItem(i, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func buildItem(i int, raw ItemInput) (entity.BillItem, error) {
	productID := strings.TrimSpace(raw.ProductID)
	description := strings.TrimSpace(raw.Description)
	if productID == "" && description == "" {
		return entity.BillItem{}, domain.NewItemError(i, "description", "requerida en ítems sin producto")
	}
	if !raw.Quantity.IsPositive() {
		return entity.BillItem{}, domain.NewItemError(i, "quantity", "debe ser mayor que cero")
	}
	if !money.IsQuantity(raw.Quantity) {
		return entity.BillItem{}, domain.NewItemError(i, "quantity", "máximo 3 decimales")
	}
	if raw.UnitPrice.IsNegative() {
		return entity.BillItem{}, domain.NewItemError(i, "unitPrice", "no puede ser negativo")
	}
	if raw.TailoringCharge.IsNegative() {
		return entity.BillItem{}, domain.NewItemError(i, "tailoringCharge", "no puede ser negativo")
	}
	if raw.TailoringCharge.IsPositive() && !raw.IsTailored {
		return entity.BillItem{}, domain.NewItemError(i, "tailoringCharge", "solo se admite en ítems de sastrería")
	}
	if len(raw.Measurements) > 0 && !json.Valid(raw.Measurements) {
		return entity.BillItem{}, domain.NewItemError(i, "measurements", "JSON inválido")
	}

	unit := strings.TrimSpace(raw.Unit)
	if unit == "" {
		unit = entity.DefaultUnit
	}
	unitPrice := money.Round(raw.UnitPrice)
	item := entity.BillItem{
		Position:        i,
		ProductID:       productID,
		Description:     description,
		Quantity:        raw.Quantity,
		Unit:            unit,
		UnitPrice:       unitPrice,
		LineTotal:       money.Round(unitPrice.Mul(raw.Quantity)),
		IsTailored:      raw.IsTailored,
		TailoringCharge: money.Round(raw.TailoringCharge),
	}
	if len(raw.Measurements) > 0 {
		item.Measurements = append(json.RawMessage(nil), raw.Measurements...)
	}
	return item, nil
}

// StockLine cantidad agregada por producto. En NetDelta la cantidad lleva signo:
// positiva hay que reservarla, negativa hay que liberarla.
type StockLine struct {
	ProductID string
	Quantity  decimal.Decimal
}

// Demand agrega las cantidades por producto, ordenadas por ProductID. El orden fijo
// evita interbloqueos entre facturas que comparten productos.
func Demand(items []entity.BillItem) []StockLine {
	totals := make(map[string]decimal.Decimal)
	for _, it := range items {
		if !it.HasProduct() {
			continue
		}
		totals[it.ProductID] = totals[it.ProductID].Add(it.Quantity)
	}
	return sortedLines(totals)
}

// NetDelta calcula la diferencia por producto entre los ítems nuevos y los anteriores,
// omitiendo los productos sin cambio.
func NetDelta(oldItems, newItems []entity.BillItem) []StockLine {
	totals := make(map[string]decimal.Decimal)
	for _, l := range Demand(newItems) {
		totals[l.ProductID] = l.Quantity
	}
	for _, l := range Demand(oldItems) {
		totals[l.ProductID] = totals[l.ProductID].Sub(l.Quantity)
	}
	for id, q := range totals {
		if q.IsZero() {
			delete(totals, id)
		}
	}
	return sortedLines(totals)
}

func sortedLines(totals map[string]decimal.Decimal) []StockLine {
	lines := make([]StockLine, 0, len(totals))
	for id, q := range totals {
		lines = append(lines, StockLine{ProductID: id, Quantity: q})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}
