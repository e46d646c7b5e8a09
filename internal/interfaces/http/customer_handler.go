package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-engine/internal/application/billing"
	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/pkg/logger"
)

// CustomerHandler maneja las peticiones HTTP de clientes (protegido).
type CustomerHandler struct {
	uc  *billing.CustomerUseCase
	log *logger.Logger
}

// NewCustomerHandler construye el handler.
func NewCustomerHandler(uc *billing.CustomerUseCase, log *logger.Logger) *CustomerHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CustomerHandler{uc: uc, log: log}
}

// Create POST /api/customers
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCustomerRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	customer, err := h.uc.Create(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

// List GET /api/customers?limit=20&offset=0
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.UserContext(), GetActor(c), c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(list)
}

// GetByID GET /api/customers/:id
func (h *CustomerHandler) GetByID(c *fiber.Ctx) error {
	customer, err := h.uc.Get(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(customer)
}
