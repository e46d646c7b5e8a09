package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/billing-engine/pkg/metrics"
)

// MetricsMiddleware registra latencia y conteo por método, ruta (plantilla, no la URL) y estado.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		// fasthttp reutiliza los buffers de Method y Route().Path; Prometheus guarda las etiquetas.
		labels := []string{utils.CopyString(c.Method()), utils.CopyString(c.Route().Path), strconv.Itoa(status)}
		metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		return err
	}
}
