package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/billing-engine/internal/application/billing"
	"github.com/jhoicas/billing-engine/internal/application/inventory"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

// Ensure TxRunner implements inventory.TxRunner and billing.BillingTxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)
var _ billing.BillingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool     *pgxpool.Pool
	external repository.StockLedger
	counter  repository.BillCounterRepository
}

// TxOption reemplaza un adaptador transaccional por uno externo.
type TxOption func(*TxRunner)

// WithExternalLedger usa un ledger fuera de la base (Redis). El motor compensa sus reservas.
func WithExternalLedger(ledger repository.StockLedger) TxOption {
	return func(r *TxRunner) { r.external = ledger }
}

// WithExternalCounter usa un contador fuera de la base (Redis). Un fallo posterior deja hueco.
func WithExternalCounter(counter repository.BillCounterRepository) TxOption {
	return func(r *TxRunner) { r.counter = counter }
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, opts ...TxOption) *TxRunner {
	r := &TxRunner{pool: pool}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TxRunner) ledger(tx pgx.Tx) repository.StockLedger {
	if r.external != nil {
		return r.external
	}
	return NewStockLedger(tx)
}

func (r *TxRunner) counters(tx pgx.Tx) repository.BillCounterRepository {
	if r.counter != nil {
		return r.counter
	}
	return NewBillCounterRepository(tx)
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ledger repository.StockLedger,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(r.ledger(tx), NewStockMovementRepository(tx), NewProductRepository(tx))
	})
}

// RunBilling inicia una transacción con ledger, contador y repos de facturación.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	ledger repository.StockLedger,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	counterRepo repository.BillCounterRepository,
	billRepo repository.BillRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(r.ledger(tx), NewStockMovementRepository(tx), NewProductRepository(tx), r.counters(tx), NewBillRepository(tx))
	})
}
