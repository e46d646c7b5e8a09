// Package reporting contiene los reportes de solo lectura sobre facturas confirmadas:
// estadísticas por rango y ventas diarias.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	rules "github.com/jhoicas/billing-engine/internal/domain/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
	"github.com/jhoicas/billing-engine/pkg/logger"
	"github.com/jhoicas/billing-engine/pkg/metrics"
	"github.com/jhoicas/billing-engine/pkg/money"
)

// MaxRangeDays rango máximo de BillStats (un año bisiesto).
const MaxRangeDays = 366

// ReportUseCase agrega facturas confirmadas. Nunca escribe; tolera leer de una réplica.
type ReportUseCase struct {
	reportRepo repository.ReportRepository
	cache      ReportCache
	loc        *time.Location
	log        *logger.Logger
}

// NewReportUseCase construye el caso de uso. cache puede ser nil.
func NewReportUseCase(reportRepo repository.ReportRepository, cache ReportCache, loc *time.Location, log *logger.Logger) *ReportUseCase {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReportUseCase{reportRepo: reportRepo, cache: cache, loc: loc, log: log}
}

// BillStats resume las facturas creadas entre from y to (días de negocio YYYY-MM-DD, inclusivos).
// Cuenta todas las facturas; montos y desglose por estado de pago excluyen las anuladas.
func (uc *ReportUseCase) BillStats(ctx context.Context, actor entity.Actor, from, to string) (*dto.BillStatsDTO, error) {
	if err := domain.Authorize(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	start, err := uc.parseDay("from", from)
	if err != nil {
		return nil, err
	}
	last, err := uc.parseDay("to", to)
	if err != nil {
		return nil, err
	}
	if last.Before(start) {
		return nil, domain.NewInputError("to", "debe ser posterior o igual a from")
	}
	end := last.AddDate(0, 0, 1)
	if days := daysBetween(start, end); days > MaxRangeDays {
		return nil, domain.NewInputError("to", fmt.Sprintf("el rango no puede superar %d días", MaxRangeDays))
	}

	rows, err := uc.reportRepo.BillTotals(ctx, actor.WorkspaceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("reporte: totales de facturas: %w", err)
	}

	out := &dto.BillStatsDTO{
		From:           start.Format(rules.DayLayout),
		To:             last.Format(rules.DayLayout),
		TotalAmount:    decimal.Zero,
		TotalCollected: decimal.Zero,
		ByPaymentStatus: map[string]dto.StatusBreakdownDTO{
			entity.PaymentStatusPending: {Amount: decimal.Zero},
			entity.PaymentStatusPartial: {Amount: decimal.Zero},
			entity.PaymentStatusPaid:    {Amount: decimal.Zero},
		},
	}
	for _, r := range rows {
		out.TotalBills += r.Count
		if r.Status == entity.BillStatusCancelled {
			out.CancelledBills += r.Count
			continue
		}
		out.TotalAmount = out.TotalAmount.Add(r.FinalAmount)
		out.TotalCollected = out.TotalCollected.Add(r.Collected)
		b := out.ByPaymentStatus[r.PaymentStatus]
		b.Count += r.Count
		b.Amount = b.Amount.Add(r.FinalAmount)
		out.ByPaymentStatus[r.PaymentStatus] = b
	}
	out.TotalAmount = money.Round(out.TotalAmount)
	out.TotalCollected = money.Round(out.TotalCollected)
	return out, nil
}

// DailySalesReport resume un día de negocio: facturas no anuladas creadas ese día y pagos
// registrados ese día sobre facturas no anuladas, desglosados por método.
//
// Las dos consultas corren en paralelo. El resultado se cachea hasta que un evento de
// factura invalide el día.
func (uc *ReportUseCase) DailySalesReport(ctx context.Context, actor entity.Actor, date string) (*dto.DailySalesDTO, error) {
	if err := domain.Authorize(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	start, err := uc.parseDay("date", date)
	if err != nil {
		return nil, err
	}
	day := start.Format(rules.DayLayout)

	if uc.cache != nil {
		cached, ok, err := uc.cache.GetDailySales(ctx, actor.WorkspaceID, day)
		switch {
		case err != nil:
			uc.log.Warn().Err(err).Str("day", day).Msg("caché de reportes no disponible")
		case ok:
			metrics.ReportCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.ReportCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	end := start.AddDate(0, 0, 1)
	var (
		billRows    []repository.BillTotalsRow
		paymentRows []repository.PaymentTotalsRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := uc.reportRepo.BillTotals(gctx, actor.WorkspaceID, start, end)
		if err != nil {
			return fmt.Errorf("reporte diario: facturas: %w", err)
		}
		billRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := uc.reportRepo.PaymentTotals(gctx, actor.WorkspaceID, start, end)
		if err != nil {
			return fmt.Errorf("reporte diario: pagos: %w", err)
		}
		paymentRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &dto.DailySalesDTO{
		Date:           day,
		TotalBilled:    decimal.Zero,
		TotalCollected: decimal.Zero,
		ByMethod:       make([]dto.MethodBreakdownDTO, 0, len(entity.PaymentMethods)),
	}
	for _, r := range billRows {
		if r.Status == entity.BillStatusCancelled {
			continue
		}
		out.BillCount += r.Count
		out.TotalBilled = out.TotalBilled.Add(r.FinalAmount)
	}
	byMethod := make(map[string]repository.PaymentTotalsRow, len(paymentRows))
	for _, r := range paymentRows {
		byMethod[r.Method] = r
	}
	for _, m := range entity.PaymentMethods {
		r := byMethod[m]
		amount := r.Amount
		if r.Count == 0 {
			amount = decimal.Zero
		}
		out.ByMethod = append(out.ByMethod, dto.MethodBreakdownDTO{Method: m, Count: r.Count, Amount: money.Round(amount)})
		out.TotalCollected = out.TotalCollected.Add(amount)
	}
	out.TotalBilled = money.Round(out.TotalBilled)
	out.TotalCollected = money.Round(out.TotalCollected)

	if uc.cache != nil {
		if err := uc.cache.SetDailySales(ctx, actor.WorkspaceID, day, out); err != nil {
			uc.log.Warn().Err(err).Str("day", day).Msg("no se pudo cachear el reporte diario")
		}
	}
	return out, nil
}

func (uc *ReportUseCase) parseDay(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, domain.NewInputError(field, "requerido (YYYY-MM-DD)")
	}
	t, err := time.ParseInLocation(rules.DayLayout, value, uc.loc)
	if err != nil {
		return time.Time{}, domain.NewInputError(field, "formato YYYY-MM-DD")
	}
	return t, nil
}

// daysBetween cuenta días de calendario en [start, end) aunque haya cambio de horario.
func daysBetween(start, end time.Time) int {
	n := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		n++
		if n > MaxRangeDays {
			break
		}
	}
	return n
}
