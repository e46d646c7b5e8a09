package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ repository.StockLedger = (*StockLedger)(nil)

// StockLedger disponible por producto en la tabla stock_levels (usable con pool o tx).
type StockLedger struct {
	q Querier
}

// NewStockLedger construye el ledger. Pasar pool o tx (Querier).
func NewStockLedger(q Querier) *StockLedger {
	return &StockLedger{q: q}
}

// Reserve descuenta con un UPDATE condicional: la comprobación y la escritura son una sola
// sentencia, y la fila queda bloqueada hasta el fin de la transacción.
func (l *StockLedger) Reserve(ctx context.Context, productID string, qty decimal.Decimal) error {
	query := `
		UPDATE stock_levels
		SET available = available - $2, updated_at = now()
		WHERE product_id = $1 AND available >= $2
		RETURNING available`
	var left decimal.Decimal
	err := l.q.QueryRow(ctx, query, productID, qty).Scan(&left)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("reserve stock: %w", err)
	}
	available, err := l.Available(ctx, productID)
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
}

// Release suma qty; crea la fila si el producto aún no tenía stock.
func (l *StockLedger) Release(ctx context.Context, productID string, qty decimal.Decimal) error {
	query := `
		INSERT INTO stock_levels (product_id, available, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (product_id)
		DO UPDATE SET available = stock_levels.available + EXCLUDED.available, updated_at = now()`
	if _, err := l.q.Exec(ctx, query, productID, qty); err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	return nil
}

func (l *StockLedger) Available(ctx context.Context, productID string) (decimal.Decimal, error) {
	var available decimal.Decimal
	err := l.q.QueryRow(ctx, `SELECT available FROM stock_levels WHERE product_id = $1`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("get stock: %w", err)
	}
	return available, nil
}

// Levels devuelve el disponible de todos los productos. Sirve de carga inicial para un
// ledger externo (Redis) al arrancar.
func (l *StockLedger) Levels(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := l.q.Query(ctx, `SELECT product_id, available FROM stock_levels`)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	levels := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			productID string
			available decimal.Decimal
		)
		if err := rows.Scan(&productID, &available); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		levels[productID] = available
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	return levels, nil
}
