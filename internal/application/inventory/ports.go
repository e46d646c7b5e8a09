package inventory

import (
	"context"

	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del store, pasando el ledger y
// los repositorios atados a esa transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledger repository.StockLedger,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}
