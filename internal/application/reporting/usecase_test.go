package reporting_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/application/reporting"
	"github.com/jhoicas/billing-engine/internal/domain"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
	"github.com/jhoicas/billing-engine/internal/infrastructure/memory"
)

var (
	ist   = time.FixedZone("IST", 5*3600+1800)
	admin = entity.Actor{UserID: "u-admin", WorkspaceID: "ws-1", Role: entity.RoleAdmin}
)

// mapCache caché en memoria que cuenta lecturas.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]*dto.DailySalesDTO
	hits    int
}

func newMapCache() *mapCache { return &mapCache{entries: map[string]*dto.DailySalesDTO{}} }

func (c *mapCache) GetDailySales(_ context.Context, ws, day string) (*dto.DailySalesDTO, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[ws+"|"+day]
	if ok {
		c.hits++
	}
	return r, ok, nil
}

func (c *mapCache) SetDailySales(_ context.Context, ws, day string, r *dto.DailySalesDTO) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ws+"|"+day] = r
	return nil
}

func (c *mapCache) InvalidateDay(_ context.Context, ws, day string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ws+"|"+day)
	return nil
}

func at(day, hour int) time.Time {
	return time.Date(2024, 12, day, hour, 0, 0, 0, ist)
}

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewBillRepository(store)
	bills := []*entity.Bill{
		{ID: "b1", BillNumber: "CS241201001", Status: entity.BillStatusActive, PaymentStatus: entity.PaymentStatusPaid, FinalAmount: decimal.NewFromInt(944), CreatedAt: at(1, 10),
			Payments: []entity.Payment{{ID: "p1", Amount: decimal.NewFromInt(500), Method: entity.PaymentMethodUPI, RecordedAt: at(1, 11)}, {ID: "p2", Amount: decimal.NewFromInt(444), Method: entity.PaymentMethodCash, RecordedAt: at(2, 9)}}},
		{ID: "b2", BillNumber: "CS241201002", Status: entity.BillStatusActive, PaymentStatus: entity.PaymentStatusPending, FinalAmount: dec("250.50"), CreatedAt: at(1, 23)},
		{ID: "b3", BillNumber: "CS241201003", Status: entity.BillStatusCancelled, PaymentStatus: entity.PaymentStatusPartial, FinalAmount: decimal.NewFromInt(1000), CreatedAt: at(1, 12),
			Payments: []entity.Payment{{ID: "p3", Amount: decimal.NewFromInt(300), Method: entity.PaymentMethodCard, RecordedAt: at(1, 12)}}},
		{ID: "b4", BillNumber: "CS241202001", Status: entity.BillStatusActive, PaymentStatus: entity.PaymentStatusPartial, FinalAmount: decimal.NewFromInt(600), CreatedAt: at(2, 10),
			Payments: []entity.Payment{{ID: "p4", Amount: decimal.NewFromInt(100), Method: entity.PaymentMethodCash, RecordedAt: at(2, 10)}}},
		{ID: "b5", WorkspaceID: "ws-otro", BillNumber: "CS241201001", Status: entity.BillStatusActive, PaymentStatus: entity.PaymentStatusPending, FinalAmount: decimal.NewFromInt(77), CreatedAt: at(1, 10)},
	}
	for _, b := range bills {
		if b.WorkspaceID == "" {
			b.WorkspaceID = "ws-1"
		}
		require.NoError(t, repo.Create(ctx, b))
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBillStats(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	uc := reporting.NewReportUseCase(memory.NewReportRepository(store), nil, ist, nil)
	ctx := context.Background()

	stats, err := uc.BillStats(ctx, admin, "2024-12-01", "2024-12-01")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalBills, "cuenta también las anuladas")
	assert.Equal(t, 1, stats.CancelledBills)
	assert.Equal(t, "1194.5", stats.TotalAmount.String())
	assert.Equal(t, "944", stats.TotalCollected.String())
	assert.Equal(t, 1, stats.ByPaymentStatus[entity.PaymentStatusPaid].Count)
	assert.Equal(t, 1, stats.ByPaymentStatus[entity.PaymentStatusPending].Count)
	assert.Equal(t, 0, stats.ByPaymentStatus[entity.PaymentStatusPartial].Count, "la anulada no entra al desglose")

	both, err := uc.BillStats(ctx, admin, "2024-12-01", "2024-12-02")
	require.NoError(t, err)
	assert.Equal(t, 4, both.TotalBills)
	assert.Equal(t, "1794.5", both.TotalAmount.String())

	_, err = uc.BillStats(ctx, admin, "2024-12-02", "2024-12-01")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.BillStats(ctx, admin, "2024-01-01", "2025-01-01")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "más de 366 días")
	_, err = uc.BillStats(ctx, admin, "2024-12-01", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.BillStats(ctx, entity.Actor{UserID: "u", WorkspaceID: "ws-1", Role: entity.RoleMember}, "2024-12-01", "2024-12-01")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDailySalesReport(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	uc := reporting.NewReportUseCase(memory.NewReportRepository(store), nil, ist, nil)

	day1, err := uc.DailySalesReport(context.Background(), admin, "2024-12-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-01", day1.Date)
	assert.Equal(t, 2, day1.BillCount)
	assert.Equal(t, "1194.5", day1.TotalBilled.String())
	assert.Equal(t, "500", day1.TotalCollected.String(), "los pagos de facturas anuladas no cuentan")
	require.Len(t, day1.ByMethod, len(entity.PaymentMethods))
	for i, m := range entity.PaymentMethods {
		assert.Equal(t, m, day1.ByMethod[i].Method)
	}
	assert.Equal(t, 1, day1.ByMethod[1].Count)
	assert.Equal(t, 0, day1.ByMethod[2].Count)

	day2, err := uc.DailySalesReport(context.Background(), admin, "2024-12-02")
	require.NoError(t, err)
	assert.Equal(t, 1, day2.BillCount)
	assert.Equal(t, "544", day2.TotalCollected.String(), "cobros del día aunque la factura sea de otro día")
	assert.Equal(t, 2, day2.ByMethod[0].Count)
}

func TestDailySalesReport_CacheAndInvalidation(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	cache := newMapCache()
	uc := reporting.NewReportUseCase(memory.NewReportRepository(store), cache, ist, nil)
	ctx := context.Background()

	first, err := uc.DailySalesReport(ctx, admin, "2024-12-01")
	require.NoError(t, err)
	second, err := uc.DailySalesReport(ctx, admin, "2024-12-01")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first, second)

	invalidator := reporting.NewCacheInvalidator(cache, nil)
	require.NoError(t, invalidator.Publish(ctx, entity.BillEvent{
		Type:        entity.BillEventPaymentAdded,
		WorkspaceID: "ws-1",
		Days:        []string{"2024-12-01"},
	}))
	_, err = uc.DailySalesReport(ctx, admin, "2024-12-01")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits, "tras invalidar se recalcula")

	assert.NoError(t, reporting.NewCacheInvalidator(nil, nil).HandleBillEvent(ctx, entity.BillEvent{Days: []string{"2024-12-01"}}))
}

// failingReports falla en BillTotals y espera a que cancelen PaymentTotals.
type failingReports struct {
	paymentsCancelled chan struct{}
}

func (r *failingReports) BillTotals(context.Context, string, time.Time, time.Time) ([]repository.BillTotalsRow, error) {
	return nil, errors.New("conexión perdida")
}

func (r *failingReports) PaymentTotals(ctx context.Context, _ string, _, _ time.Time) ([]repository.PaymentTotalsRow, error) {
	select {
	case <-ctx.Done():
		close(r.paymentsCancelled)
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return nil, nil
	}
}

func TestDailySalesReport_QueryFailureCancelsSibling(t *testing.T) {
	repo := &failingReports{paymentsCancelled: make(chan struct{})}
	cache := newMapCache()
	uc := reporting.NewReportUseCase(repo, cache, ist, nil)

	_, err := uc.DailySalesReport(context.Background(), admin, "2024-12-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conexión perdida")

	select {
	case <-repo.paymentsCancelled:
	default:
		t.Fatal("la consulta de pagos siguió corriendo tras el fallo")
	}
	assert.Empty(t, cache.entries, "un reporte fallido no se cachea")
}
