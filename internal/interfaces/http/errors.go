package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/pkg/logger"
)

type validationDetail struct {
	Field  string `json:"field"`
	Index  *int   `json:"index,omitempty"`
	Reason string `json:"reason"`
}

type stockDetail struct {
	ProductID string `json:"product_id"`
	Requested string `json:"requested"`
	Available string `json:"available"`
}

// respondError traduce errores de dominio a HTTP. Lo no reconocido se registra y responde
// 500 sin exponer el detalle interno.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var (
		validationErr *domain.ValidationError
		stockErr      *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &validationErr):
		d := validationDetail{Field: validationErr.Field, Reason: validationErr.Reason}
		if validationErr.Index >= 0 {
			idx := validationErr.Index
			d.Index = &idx
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error(), Details: d})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidItem), errors.Is(err, domain.ErrInvalidPayment):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: err.Error(),
			Details: stockDetail{
				ProductID: stockErr.ProductID,
				Requested: stockErr.Requested.String(),
				Available: stockErr.Available.String(),
			},
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrAlreadyCancelled):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_CANCELLED", Message: err.Error()})
	case errors.Is(err, domain.ErrBillNotEditable):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "BILL_NOT_EDITABLE", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrBillNotFound), errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	}
	log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
