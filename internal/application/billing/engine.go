package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/application/inventory"
	"github.com/jhoicas/billing-engine/internal/domain"
	rules "github.com/jhoicas/billing-engine/internal/domain/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
	"github.com/jhoicas/billing-engine/pkg/logger"
	"github.com/jhoicas/billing-engine/pkg/metrics"
	"github.com/jhoicas/billing-engine/pkg/tracing"
)

// EngineConfig parámetros del consecutivo.
type EngineConfig struct {
	BillPrefix string
	SeqDigits  int
	Location   *time.Location // zona horaria del día de negocio
}

// Engine es el motor transaccional de facturación: crea, modifica, anula y abona facturas
// manteniendo el ledger de stock consistente. Es el único que escribe facturas.
type Engine struct {
	txRunner  BillingTxRunner
	inventory InventoryUseCase
	customers CustomerDirectory
	billRepo  repository.BillRepository
	publisher EventPublisher
	cfg       EngineConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewEngine construye el motor. publisher puede ser nil (sin eventos).
func NewEngine(
	txRunner BillingTxRunner,
	inventoryUC InventoryUseCase,
	customers CustomerDirectory,
	billRepo repository.BillRepository,
	publisher EventPublisher,
	cfg EngineConfig,
	log *logger.Logger,
) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.SeqDigits <= 0 {
		cfg.SeqDigits = 3
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		txRunner:  txRunner,
		inventory: inventoryUC,
		customers: customers,
		billRepo:  billRepo,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// txRepos repositorios atados a la transacción en curso.
type txRepos struct {
	journal  *inventory.Journal
	movRepo  repository.StockMovementRepository
	products repository.ProductRepository
	counters repository.BillCounterRepository
	bills    repository.BillRepository
}

// inTx ejecuta fn en una transacción y cierra el diario del ledger: compensa las reservas
// de un ledger externo si la transacción falló, o aplica sus liberaciones diferidas.
func (e *Engine) inTx(ctx context.Context, op string, fn func(r txRepos) error) error {
	var journal *inventory.Journal
	err := e.txRunner.RunBilling(ctx, func(
		ledger repository.StockLedger,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		counterRepo repository.BillCounterRepository,
		billRepo repository.BillRepository,
	) error {
		journal = inventory.NewJournal(ledger)
		return fn(txRepos{
			journal:  journal,
			movRepo:  movRepo,
			products: productRepo,
			counters: counterRepo,
			bills:    billRepo,
		})
	})
	if journal == nil || !journal.External() {
		return err
	}
	if ferr := journal.Finish(ctx, err); ferr != nil {
		result := "settle_failed"
		if err != nil {
			result = "compensation_failed"
		}
		metrics.StockCompensationsTotal.WithLabelValues(result).Inc()
		e.log.Error().Err(ferr).Str("operation", op).Msg("ledger externo inconsistente tras la transacción")
	} else if err != nil {
		metrics.StockCompensationsTotal.WithLabelValues("compensated").Inc()
	}
	return err
}

// lockBill lee la factura bloqueando su fila; serializa todas las mutaciones sobre ella.
func lockBill(ctx context.Context, bills repository.BillRepository, workspaceID, billID string) (*entity.Bill, error) {
	bill, err := bills.GetForUpdate(ctx, workspaceID, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrBillNotFound
	}
	return bill, nil
}

func (e *Engine) startSpan(ctx context.Context, op string, actor entity.Actor) (context.Context, trace.Span, time.Time) {
	ctx, span := tracing.StartSpan(ctx, "billing."+op,
		attribute.String("workspace.id", actor.WorkspaceID),
		attribute.String("user.id", actor.UserID),
	)
	return ctx, span, time.Now()
}

func (e *Engine) observe(span trace.Span, op string, start time.Time, err error) {
	metrics.OperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OperationsFailedTotal.WithLabelValues(op, failureReason(err)).Inc()
		if errors.Is(err, domain.ErrInsufficientStock) {
			metrics.StockReservationsFailedTotal.WithLabelValues("insufficient").Inc()
		}
	}
	tracing.End(span, err)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidItem), errors.Is(err, domain.ErrInvalidPayment), errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	case errors.Is(err, domain.ErrBillNotFound), errors.Is(err, domain.ErrCustomerNotFound), errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyCancelled), errors.Is(err, domain.ErrBillNotEditable):
		return "conflict"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthorized):
		return "forbidden"
	default:
		return "internal"
	}
}

// publish notifica un cambio confirmado. Un fallo no revierte la operación: se registra.
func (e *Engine) publish(ctx context.Context, eventType string, bill *entity.Bill, days ...time.Time) {
	if e.publisher == nil {
		return
	}
	keys := make([]string, 0, len(days))
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		k := rules.DayKey(d, e.cfg.Location)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	event := entity.BillEvent{
		EventID:     uuid.New().String(),
		Type:        eventType,
		WorkspaceID: bill.WorkspaceID,
		BillID:      bill.ID,
		BillNumber:  bill.BillNumber,
		Days:        keys,
		OccurredAt:  e.now(),
	}
	if err := e.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		e.log.Warn().Err(err).Str("event", eventType).Str("bill_id", bill.ID).Msg("no se pudo publicar el evento de factura")
	}
}

func toItemInputs(in []dto.BillItemRequest) []rules.ItemInput {
	out := make([]rules.ItemInput, len(in))
	for i, it := range in {
		out[i] = rules.ItemInput{
			ProductID:       it.ProductID,
			Description:     it.Description,
			Quantity:        it.Quantity,
			Unit:            it.Unit,
			UnitPrice:       it.UnitPrice,
			IsTailored:      it.IsTailored,
			TailoringCharge: it.TailoringCharge,
			Measurements:    it.Measurements,
		}
	}
	return out
}

// assignItemIDs fija BillID e IDs nuevos en los ítems normalizados.
func assignItemIDs(billID string, items []entity.BillItem) {
	for i := range items {
		items[i].ID = uuid.New().String()
		items[i].BillID = billID
	}
}

func newPayment(billID string, in rules.PaymentInput, actor entity.Actor, now time.Time) entity.Payment {
	return entity.Payment{
		ID:         uuid.New().String(),
		BillID:     billID,
		Amount:     in.Amount,
		Method:     rules.NormalizeMethod(in.Method),
		Reference:  strings.TrimSpace(in.Reference),
		RecordedBy: actor.UserID,
		RecordedAt: now,
	}
}
