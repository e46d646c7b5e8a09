package billing

import (
	"context"
	"time"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/application/inventory"
	rules "github.com/jhoicas/billing-engine/internal/domain/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción que incluye el ledger de
// stock y los repositorios de facturación. Si fn devuelve error se hace rollback.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		ledger repository.StockLedger,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		counterRepo repository.BillCounterRepository,
		billRepo repository.BillRepository,
	) error) error
}

// InventoryUseCase integra facturación con el ledger de stock.
// ApplyBillLinesInTx usa los repositorios del caller (misma transacción); si retorna error
// (ej. stock insuficiente) el caller debe abortar. Al crear una factura se usa el par
// ReserveBillLinesInTx / RecordMovementsInTx para guardar los movimientos después de la cabecera.
type InventoryUseCase interface {
	ApplyBillLinesInTx(
		ctx context.Context,
		journal *inventory.Journal,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		actor entity.Actor,
		billID string,
		lines []rules.StockLine,
		now time.Time,
	) error
	ReserveBillLinesInTx(
		ctx context.Context,
		journal *inventory.Journal,
		productRepo repository.ProductRepository,
		actor entity.Actor,
		billID string,
		lines []rules.StockLine,
		now time.Time,
	) ([]*entity.StockMovement, error)
	RecordMovementsInTx(ctx context.Context, movRepo repository.StockMovementRepository, movs []*entity.StockMovement) error
}

// CustomerDirectory resuelve si un cliente existe en el workspace.
type CustomerDirectory interface {
	Exists(ctx context.Context, workspaceID, customerID string) (bool, error)
}

// EventPublisher publica eventos de factura ya confirmados (Kafka o invalidación local).
type EventPublisher interface {
	Publish(ctx context.Context, event entity.BillEvent) error
}

// BillNotification solicitud de envío de una factura a un teléfono.
type BillNotification struct {
	Channel     string           `json:"channel"`
	Phone       string           `json:"phone"`
	WorkspaceID string           `json:"workspace_id"`
	RequestedBy string           `json:"requested_by"`
	RequestedAt time.Time        `json:"requested_at"`
	Document    dto.BillDocument `json:"document"`
}

// MessageDispatcher entrega la solicitud al servicio de mensajería; no envía nada por sí mismo.
type MessageDispatcher interface {
	Dispatch(ctx context.Context, msg BillNotification) error
}
