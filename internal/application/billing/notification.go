package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/logger"
	"github.com/jhoicas/billing-engine/pkg/phone"
)

// Canales de notificación aceptados.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
)

// NotificationUseCase valida el destino y entrega la instantánea de la factura al
// despachador de mensajes. El envío real es responsabilidad de otro servicio.
type NotificationUseCase struct {
	documents          *DocumentUseCase
	dispatcher         MessageDispatcher
	defaultCountryCode string
	log                *logger.Logger
}

// NewNotificationUseCase construye el caso de uso.
func NewNotificationUseCase(documents *DocumentUseCase, dispatcher MessageDispatcher, defaultCountryCode string, log *logger.Logger) *NotificationUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationUseCase{
		documents:          documents,
		dispatcher:         dispatcher,
		defaultCountryCode: defaultCountryCode,
		log:                log,
	}
}

// RequestBillNotification encola el envío de la factura. Sin teléfono explícito usa el del cliente.
func (uc *NotificationUseCase) RequestBillNotification(ctx context.Context, actor entity.Actor, billID string, in dto.NotifyBillRequest) (*dto.NotifyBillResponse, error) {
	channel := strings.ToLower(strings.TrimSpace(in.Channel))
	if channel == "" {
		channel = ChannelWhatsApp
	}
	if channel != ChannelWhatsApp && channel != ChannelSMS {
		return nil, domain.NewInputError("channel", "debe ser whatsapp o sms")
	}

	doc, err := uc.documents.GetDocument(ctx, actor, billID)
	if err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(in.Phone)
	if raw == "" {
		raw = doc.Customer.Phone
	}
	if raw == "" {
		return nil, domain.NewInputError("phone", "el cliente no tiene teléfono registrado")
	}
	if !phone.IsValidPhoneNumber(raw) {
		return nil, domain.NewInputError("phone", "formato inválido")
	}
	normalized, err := phone.Normalize(raw, uc.defaultCountryCode)
	if err != nil {
		return nil, domain.NewInputError("phone", "formato inválido")
	}

	msg := BillNotification{
		Channel:     channel,
		Phone:       normalized,
		WorkspaceID: actor.WorkspaceID,
		RequestedBy: actor.UserID,
		RequestedAt: time.Now(),
		Document:    *doc,
	}
	if err := uc.dispatcher.Dispatch(ctx, msg); err != nil {
		return nil, fmt.Errorf("despachar notificación: %w", err)
	}
	uc.log.Info().Str("bill_id", doc.BillID).Str("channel", channel).Msg("notificación de factura encolada")
	return &dto.NotifyBillResponse{BillID: doc.BillID, Phone: normalized, Channel: channel, Status: "queued"}, nil
}

// LogDispatcher despachador sin broker: solo registra la solicitud.
type LogDispatcher struct {
	log *logger.Logger
}

// NewLogDispatcher construye el despachador de registro.
func NewLogDispatcher(log *logger.Logger) *LogDispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogDispatcher{log: log}
}

// Dispatch registra la notificación y no hace nada más.
func (d *LogDispatcher) Dispatch(_ context.Context, msg BillNotification) error {
	d.log.Info().
		Str("channel", msg.Channel).
		Str("phone", msg.Phone).
		Str("bill_number", msg.Document.BillNumber).
		Msg("notificación sin despachador configurado")
	return nil
}
