package reporting

import (
	"context"

	"github.com/jhoicas/billing-engine/internal/application/dto"
)

// ReportCache guarda reportes diarios ya calculados (Redis con TTL). ReportUseCase acepta
// cache nil y entonces consulta siempre el repositorio.
type ReportCache interface {
	GetDailySales(ctx context.Context, workspaceID, day string) (*dto.DailySalesDTO, bool, error)
	SetDailySales(ctx context.Context, workspaceID, day string, report *dto.DailySalesDTO) error
	InvalidateDay(ctx context.Context, workspaceID, day string) error
}
