package memory

import (
	"context"

	"github.com/jhoicas/billing-engine/internal/application/billing"
	"github.com/jhoicas/billing-engine/internal/application/inventory"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)
var _ billing.BillingTxRunner = (*TxRunner)(nil)

// TxRunner serializa las transacciones con el candado exclusivo del Store.
type TxRunner struct {
	store    *Store
	external repository.StockLedger
	counter  repository.BillCounterRepository
}

// TxOption configura adaptadores externos al store.
type TxOption func(*TxRunner)

// WithExternalLedger usa un ledger fuera del store (Redis) en lugar del ledger en memoria.
func WithExternalLedger(ledger repository.StockLedger) TxOption {
	return func(r *TxRunner) { r.external = ledger }
}

// WithExternalCounter usa un contador de consecutivos fuera del store (Redis).
func WithExternalCounter(counter repository.BillCounterRepository) TxOption {
	return func(r *TxRunner) { r.counter = counter }
}

// NewTxRunner construye el runner.
func NewTxRunner(store *Store, opts ...TxOption) *TxRunner {
	r := &TxRunner{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TxRunner) run(ctx context.Context, fn func(tx *txLog) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx := &txLog{}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (r *TxRunner) ledger(tx *txLog) repository.StockLedger {
	if r.external != nil {
		return r.external
	}
	return &StockLedger{scope{r.store, tx}}
}

func (r *TxRunner) counters(tx *txLog) repository.BillCounterRepository {
	if r.counter != nil {
		return r.counter
	}
	return &BillCounterRepository{scope{r.store, tx}}
}

// Run ejecuta fn con ledger, movimientos y productos atados a la transacción.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ledger repository.StockLedger,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.run(ctx, func(tx *txLog) error {
		sc := scope{r.store, tx}
		return fn(r.ledger(tx), &StockMovementRepository{sc}, &ProductRepository{sc})
	})
}

// RunBilling ejecuta fn con todos los repositorios de facturación atados a la transacción.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	ledger repository.StockLedger,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	counterRepo repository.BillCounterRepository,
	billRepo repository.BillRepository,
) error) error {
	return r.run(ctx, func(tx *txLog) error {
		sc := scope{r.store, tx}
		return fn(r.ledger(tx), &StockMovementRepository{sc}, &ProductRepository{sc}, r.counters(tx), &BillRepository{sc})
	})
}
