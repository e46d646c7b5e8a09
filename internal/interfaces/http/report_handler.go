package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-engine/internal/application/reporting"
	"github.com/jhoicas/billing-engine/pkg/logger"
)

// ReportHandler expone los reportes de facturación (ADMIN).
type ReportHandler struct {
	uc  *reporting.ReportUseCase
	log *logger.Logger
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *reporting.ReportUseCase, log *logger.Logger) *ReportHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportHandler{uc: uc, log: log}
}

// BillStats GET /api/reports/bills/stats?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ReportHandler) BillStats(c *fiber.Ctx) error {
	out, err := h.uc.BillStats(c.UserContext(), GetActor(c), c.Query("from"), c.Query("to"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// DailySales GET /api/reports/sales/daily?date=YYYY-MM-DD
func (h *ReportHandler) DailySales(c *fiber.Ctx) error {
	out, err := h.uc.DailySalesReport(c.UserContext(), GetActor(c), c.Query("date"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}
