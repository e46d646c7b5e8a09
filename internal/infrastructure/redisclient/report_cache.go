package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/application/reporting"
)

var _ reporting.ReportCache = (*ReportCache)(nil)

// ReportCache guarda el reporte diario serializado en JSON con TTL.
type ReportCache struct {
	c   *Client
	ttl time.Duration
}

// NewReportCache construye la caché. ttl <= 0 usa 5 minutos.
func NewReportCache(c *Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportCache{c: c, ttl: ttl}
}

func dailyKey(workspaceID, day string) string {
	return fmt.Sprintf("report:daily:%s:%s", workspaceID, day)
}

// GetDailySales devuelve (nil, false, nil) si no hay entrada.
func (r *ReportCache) GetDailySales(ctx context.Context, workspaceID, day string) (*dto.DailySalesDTO, bool, error) {
	val, err := r.c.rdb.Get(ctx, dailyKey(workspaceID, day)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var report dto.DailySalesDTO
	if err := json.Unmarshal(val, &report); err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

// SetDailySales guarda el reporte.
func (r *ReportCache) SetDailySales(ctx context.Context, workspaceID, day string, report *dto.DailySalesDTO) error {
	if report == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return r.c.rdb.Set(ctx, dailyKey(workspaceID, day), payload, r.ttl).Err()
}

// InvalidateDay borra la entrada del día.
func (r *ReportCache) InvalidateDay(ctx context.Context, workspaceID, day string) error {
	return r.c.rdb.Del(ctx, dailyKey(workspaceID, day)).Err()
}
