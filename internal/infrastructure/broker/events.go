package broker

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/billing-engine/internal/application/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/logger"
)

var (
	_ billing.EventPublisher    = (*BillEventPublisher)(nil)
	_ billing.MessageDispatcher = (*NotificationDispatcher)(nil)
)

// BillEventPublisher publica eventos de factura con la clave bill_id.
type BillEventPublisher struct {
	producer *Producer
}

// NewBillEventPublisher construye el publicador.
func NewBillEventPublisher(producer *Producer) *BillEventPublisher {
	return &BillEventPublisher{producer: producer}
}

// Publish escribe el evento.
func (p *BillEventPublisher) Publish(ctx context.Context, event entity.BillEvent) error {
	return p.producer.Publish(ctx, event.BillID, event)
}

// NotificationDispatcher encola la solicitud de envío para el servicio de mensajería.
type NotificationDispatcher struct {
	producer *Producer
}

// NewNotificationDispatcher construye el despachador.
func NewNotificationDispatcher(producer *Producer) *NotificationDispatcher {
	return &NotificationDispatcher{producer: producer}
}

// Dispatch escribe la solicitud con la clave del teléfono.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, msg billing.BillNotification) error {
	return d.producer.Publish(ctx, msg.Phone, msg)
}

// BillEventHandler decodifica eventos de factura y los entrega a onEvent.
type BillEventHandler struct {
	onEvent func(context.Context, entity.BillEvent) error
	log     *logger.Logger
}

// NewBillEventHandler construye el manejador (ej. con reporting.CacheInvalidator.HandleBillEvent).
func NewBillEventHandler(onEvent func(context.Context, entity.BillEvent) error, log *logger.Logger) *BillEventHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &BillEventHandler{onEvent: onEvent, log: log}
}

// HandleMessage descarta (confirmando) los mensajes que no se pueden decodificar.
func (h *BillEventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event entity.BillEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("evento de factura ilegible, se descarta")
		return nil
	}
	if event.WorkspaceID == "" || len(event.Days) == 0 {
		h.log.Debug().Str("event_id", event.EventID).Msg("evento sin días afectados")
		return nil
	}
	return h.onEvent(ctx, event)
}
