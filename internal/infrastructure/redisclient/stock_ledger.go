package redisclient

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.CompensatingLedger = (*StockLedger)(nil)

// quantityScale las cantidades se guardan como enteros en milésimas.
const quantityScale = 3

// StockLedger guarda el disponible de cada producto en la clave stock:{product_id}.
// No participa de la transacción de PostgreSQL: el motor compensa sus reservas.
type StockLedger struct {
	c *Client
}

// NewStockLedger construye el ledger.
func NewStockLedger(c *Client) *StockLedger {
	return &StockLedger{c: c}
}

func stockKey(productID string) string {
	return "stock:" + productID
}

func toUnits(qty decimal.Decimal) int64 {
	return qty.Shift(quantityScale).Round(0).IntPart()
}

func fromUnits(units int64) decimal.Decimal {
	return decimal.New(units, -quantityScale)
}

// NeedsCompensation siempre true: las escrituras son inmediatas.
func (l *StockLedger) NeedsCompensation() bool { return true }

// Reserve descuenta qty con un script que compara y decrementa en un solo paso.
func (l *StockLedger) Reserve(ctx context.Context, productID string, qty decimal.Decimal) error {
	res, err := l.c.reserveScript.Run(ctx, l.c.rdb, []string{stockKey(productID)}, toUnits(qty)).Slice()
	if err != nil {
		return fmt.Errorf("reserve stock script: %w", err)
	}
	if len(res) != 2 {
		return fmt.Errorf("reserve stock script: respuesta inesperada %v", res)
	}
	ok, _ := res[0].(int64)
	available, _ := res[1].(int64)
	if ok != 1 {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: fromUnits(available),
		}
	}
	return nil
}

// Release suma qty (crea la clave si no existe).
func (l *StockLedger) Release(ctx context.Context, productID string, qty decimal.Decimal) error {
	if err := l.c.releaseScript.Run(ctx, l.c.rdb, []string{stockKey(productID)}, toUnits(qty)).Err(); err != nil {
		return fmt.Errorf("release stock script: %w", err)
	}
	return nil
}

// Available devuelve cero si el producto no tiene clave.
func (l *StockLedger) Available(ctx context.Context, productID string) (decimal.Decimal, error) {
	units, err := l.c.rdb.Get(ctx, stockKey(productID)).Int64()
	if err == redis.Nil {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get stock: %w", err)
	}
	return fromUnits(units), nil
}

// bootstrapBatch claves por pipeline en Bootstrap.
const bootstrapBatch = 500

// Set fija el disponible sin importar lo que haya en Redis.
func (l *StockLedger) Set(ctx context.Context, productID string, qty decimal.Decimal) error {
	return l.c.rdb.Set(ctx, stockKey(productID), toUnits(qty), 0).Err()
}

// Bootstrap carga niveles con SETNX: una clave que ya existe en Redis no se pisa, porque en
// ejecución Redis es quien manda sobre el disponible. Devuelve cuántas claves creó.
func (l *StockLedger) Bootstrap(ctx context.Context, levels map[string]decimal.Decimal) (int, error) {
	ids := make([]string, 0, len(levels))
	for id := range levels {
		ids = append(ids, id)
	}
	loaded := 0
	for start := 0; start < len(ids); start += bootstrapBatch {
		end := min(start+bootstrapBatch, len(ids))
		pipe := l.c.rdb.Pipeline()
		cmds := make([]*redis.BoolCmd, 0, end-start)
		for _, id := range ids[start:end] {
			cmds = append(cmds, pipe.SetNX(ctx, stockKey(id), toUnits(levels[id]), 0))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return loaded, fmt.Errorf("bootstrap stock: %w", err)
		}
		for _, cmd := range cmds {
			if cmd.Val() {
				loaded++
			}
		}
	}
	return loaded, nil
}
