// Package money concentra la política de redondeo de montos y cantidades.
// Todo monto se maneja con shopspring/decimal a 2 decimales, redondeo half-up.
package money

import "github.com/shopspring/decimal"

const (
	// Places decimales de un monto.
	Places = 2
	// QuantityPlaces decimales admitidos en una cantidad (ej. 2.5 m de tela).
	QuantityPlaces = 3
)

// Round redondea a 2 decimales, mitad hacia arriba.
// decimal.Round redondea la mitad alejándose de cero, que para montos no negativos es half-up.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Sum suma y redondea el resultado.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return Round(total)
}

// ClampZero devuelve cero si d es negativo.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// IsMoney indica si d tiene como máximo 2 decimales significativos.
func IsMoney(d decimal.Decimal) bool {
	return hasAtMostPlaces(d, Places)
}

// IsQuantity indica si d tiene como máximo 3 decimales significativos.
func IsQuantity(d decimal.Decimal) bool {
	return hasAtMostPlaces(d, QuantityPlaces)
}

func hasAtMostPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// Format devuelve el monto con exactamente 2 decimales ("944.00").
func Format(d decimal.Decimal) string {
	return Round(d).StringFixed(Places)
}
