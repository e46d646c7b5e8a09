// Package metrics expone los contadores e histogramas Prometheus del servicio.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BillsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_bills_created_total",
		Help: "Total de facturas creadas",
	})

	BillsUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_bills_updated_total",
		Help: "Total de facturas con ítems reemplazados",
	})

	BillsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_bills_cancelled_total",
		Help: "Total de facturas anuladas",
	})

	PaymentsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_payments_recorded_total",
		Help: "Pagos registrados por método",
	}, []string{"method"})

	OperationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_operations_failed_total",
		Help: "Operaciones del motor fallidas por operación y motivo",
	}, []string{"operation", "reason"})

	StockReservationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_stock_reservations_failed_total",
		Help: "Reservas de stock rechazadas",
	}, []string{"reason"})

	StockCompensationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_stock_compensations_total",
		Help: "Compensaciones de ledger externo ejecutadas",
	}, []string{"result"})

	OperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billing_operation_duration_seconds",
		Help:    "Latencia de las operaciones del motor de facturación",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ReportCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_report_cache_total",
		Help: "Aciertos y fallos de la caché de reportes",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de las peticiones HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total de peticiones HTTP",
	}, []string{"method", "path", "status"})
)
