package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/application/inventory"
	"github.com/jhoicas/billing-engine/pkg/logger"
)

// ProductHandler maneja el catálogo y el ledger de stock (protegido).
type ProductHandler struct {
	uc  *inventory.StockUseCase
	log *logger.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *inventory.StockUseCase, log *logger.Logger) *ProductHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductHandler{uc: uc, log: log}
}

// Create POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.CreateProduct(c.UserContext(), GetActor(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List GET /api/products?limit=20&offset=0
func (h *ProductHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit > 100 {
		limit = 100
	}
	out, err := h.uc.ListProducts(c.UserContext(), GetActor(c), limit, c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Stock GET /api/products/:id/stock
func (h *ProductHandler) Stock(c *fiber.Ctx) error {
	out, err := h.uc.GetStock(c.UserContext(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Movements GET /api/products/:id/movements
func (h *ProductHandler) Movements(c *fiber.Ctx) error {
	out, err := h.uc.ListMovements(c.UserContext(), GetActor(c), c.Params("id"), c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Restock POST /api/products/:id/restock
func (h *ProductHandler) Restock(c *fiber.Ctx) error {
	var in dto.StockChangeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Restock(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Adjust POST /api/products/:id/adjust
func (h *ProductHandler) Adjust(c *fiber.Ctx) error {
	var in dto.StockChangeRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Adjust(c.UserContext(), GetActor(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
