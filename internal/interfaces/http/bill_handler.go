package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-engine/internal/application/billing"
	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/pkg/logger"
)

// BillHandler maneja las peticiones HTTP de facturas (protegido).
type BillHandler struct {
	engine        *billing.Engine
	documents     *billing.DocumentUseCase
	notifications *billing.NotificationUseCase
	log           *logger.Logger
}

// NewBillHandler construye el handler.
func NewBillHandler(engine *billing.Engine, documents *billing.DocumentUseCase, notifications *billing.NotificationUseCase, log *logger.Logger) *BillHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &BillHandler{engine: engine, documents: documents, notifications: notifications, log: log}
}

// Create crea una factura reservando el stock de sus ítems.
// POST /api/bills
func (h *BillHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBillRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.engine.CreateBill(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List GET /api/bills?from=&to=&status=&payment_status=&customer_id=&limit=&offset=
func (h *BillHandler) List(c *fiber.Ctx) error {
	var in dto.BillListRequest
	if err := c.QueryParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.engine.ListBills(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID GET /api/bills/:id
func (h *BillHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.engine.GetBill(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpdateItems reemplaza los ítems de una factura editable.
// PUT /api/bills/:id/items
func (h *BillHandler) UpdateItems(c *fiber.Ctx) error {
	var in dto.UpdateBillRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.engine.UpdateBill(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Cancel anula la factura y devuelve su stock.
// POST /api/bills/:id/cancel
func (h *BillHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelBillRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.engine.CancelBill(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// AddPayment POST /api/bills/:id/payments
func (h *BillHandler) AddPayment(c *fiber.Ctx) error {
	var in dto.PaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.engine.AddPayment(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Document GET /api/bills/:id/document
func (h *BillHandler) Document(c *fiber.Ctx) error {
	out, err := h.documents.GetDocument(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Notify encola el envío de la factura por WhatsApp o SMS.
// POST /api/bills/:id/notify
func (h *BillHandler) Notify(c *fiber.Ctx) error {
	var in dto.NotifyBillRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.notifications.RequestBillNotification(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(out)
}
