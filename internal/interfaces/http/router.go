package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/billing-engine/internal/application/billing"
	"github.com/jhoicas/billing-engine/internal/application/inventory"
	"github.com/jhoicas/billing-engine/internal/application/reporting"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/logger"
)

// HealthCheck verifica una dependencia (base, Redis). nil si está sana.
type HealthCheck func(ctx context.Context) error

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine        *billing.Engine
	Documents     *billing.DocumentUseCase
	Notifications *billing.NotificationUseCase
	CustomerUC    *billing.CustomerUseCase
	StockUC       *inventory.StockUseCase
	ReportUC      *reporting.ReportUseCase
	JWTSecret     string
	JWTIssuer     string
	HealthChecks  map[string]HealthCheck
	Logger        *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	app.Use(MetricsMiddleware())
	app.Get("/health", healthHandler(deps.HealthChecks))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer), RequireRole(entity.RoleMember))
	admin := RequireRole(entity.RoleAdmin)

	bills := api.Group("/bills")
	billHandler := NewBillHandler(deps.Engine, deps.Documents, deps.Notifications, log.Named("http.bills"))
	bills.Post("/", billHandler.Create)
	bills.Get("/", billHandler.List)
	bills.Get("/:id", billHandler.GetByID)
	bills.Put("/:id/items", billHandler.UpdateItems)
	bills.Post("/:id/cancel", admin, billHandler.Cancel)
	bills.Post("/:id/payments", billHandler.AddPayment)
	bills.Get("/:id/document", billHandler.Document)
	bills.Post("/:id/notify", billHandler.Notify)

	customers := api.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC, log.Named("http.customers"))
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.StockUC, log.Named("http.products"))
	products.Post("/", admin, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id/stock", productHandler.Stock)
	products.Get("/:id/movements", productHandler.Movements)
	products.Post("/:id/restock", admin, productHandler.Restock)
	products.Post("/:id/adjust", admin, productHandler.Adjust)

	reports := api.Group("/reports", admin)
	reportHandler := NewReportHandler(deps.ReportUC, log.Named("http.reports"))
	reports.Get("/bills/stats", reportHandler.BillStats)
	reports.Get("/sales/daily", reportHandler.DailySales)
}

func healthHandler(checks map[string]HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.Map{}
		healthy := true
		for name, check := range checks {
			if err := check(c.UserContext()); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		if !healthy {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "checks": status})
		}
		return c.JSON(fiber.Map{"status": "ok", "checks": status})
	}
}
