package reporting

import (
	"context"
	"errors"

	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/pkg/logger"
)

// CacheInvalidator borra de la caché los días afectados por un evento de factura.
// Sirve como EventPublisher en proceso (sin Kafka) y como manejador del consumidor Kafka.
type CacheInvalidator struct {
	cache ReportCache
	log   *logger.Logger
}

// NewCacheInvalidator construye el invalidador. cache nil lo convierte en no-op.
func NewCacheInvalidator(cache ReportCache, log *logger.Logger) *CacheInvalidator {
	if log == nil {
		log = logger.Nop()
	}
	return &CacheInvalidator{cache: cache, log: log}
}

// Publish invalida los días del evento.
func (c *CacheInvalidator) Publish(ctx context.Context, event entity.BillEvent) error {
	return c.HandleBillEvent(ctx, event)
}

// HandleBillEvent invalida los días del evento.
func (c *CacheInvalidator) HandleBillEvent(ctx context.Context, event entity.BillEvent) error {
	if c.cache == nil {
		return nil
	}
	var errs []error
	for _, day := range event.Days {
		if err := c.cache.InvalidateDay(ctx, event.WorkspaceID, day); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	c.log.Debug().Str("event", event.Type).Strs("days", event.Days).Msg("reportes diarios invalidados")
	return nil
}
