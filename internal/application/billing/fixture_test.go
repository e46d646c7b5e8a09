package billing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-engine/internal/application/billing"
	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/application/inventory"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/domain/repository"
	"github.com/jhoicas/billing-engine/internal/infrastructure/memory"
)

const testWorkspace = "ws-tienda-1"

var (
	ist      = time.FixedZone("IST", 5*3600+1800)
	fixedNow = time.Date(2024, 12, 1, 10, 30, 0, 0, ist)
	member   = entity.Actor{UserID: "u-member", WorkspaceID: testWorkspace, Role: entity.RoleMember}
	admin    = entity.Actor{UserID: "u-admin", WorkspaceID: testWorkspace, Role: entity.RoleAdmin}
	outsider = entity.Actor{UserID: "u-otro", WorkspaceID: "ws-otra-tienda", Role: entity.RoleOwner}
)

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.BillEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e entity.BillEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) last() entity.BillEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type fixture struct {
	store     *memory.Store
	ledger    repository.StockLedger
	engine    *billing.Engine
	stock     *inventory.StockUseCase
	customers *billing.CustomerUseCase
	documents *billing.DocumentUseCase
	publisher *recordingPublisher
	clock     time.Time
}

// newFixture arma el motor sobre el store en memoria. Con external != nil el ledger de
// stock queda fuera de las transacciones del store, como Redis.
func newFixture(t *testing.T, external *memory.DetachedLedger) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), publisher: &recordingPublisher{}, clock: fixedNow}

	var opts []memory.TxOption
	f.ledger = memory.NewStockLedger(f.store)
	if external != nil {
		f.ledger = external
		opts = append(opts, memory.WithExternalLedger(external))
	}
	runner := memory.NewTxRunner(f.store, opts...)
	billRepo := memory.NewBillRepository(f.store)
	productRepo := memory.NewProductRepository(f.store)
	customerRepo := memory.NewCustomerRepository(f.store)

	f.stock = inventory.NewStockUseCase(runner, productRepo, memory.NewStockMovementRepository(f.store), f.ledger, nil)
	f.customers = billing.NewCustomerUseCase(customerRepo, "91")
	f.engine = billing.NewEngine(runner, f.stock, f.customers, billRepo, f.publisher, billing.EngineConfig{
		BillPrefix: "CS",
		SeqDigits:  3,
		Location:   ist,
	}, nil).WithClock(func() time.Time { return f.clock })
	f.documents = billing.NewDocumentUseCase(billRepo, customerRepo, productRepo, dto.BusinessProfile{Name: "Casa Sastre"}, ist)
	return f
}

func (f *fixture) product(t *testing.T, sku string, price, stock int64) string {
	t.Helper()
	p, err := f.stock.CreateProduct(context.Background(), admin, dto.CreateProductRequest{
		SKU:          sku,
		Name:         "Producto " + sku,
		Price:        decimal.NewFromInt(price),
		InitialStock: decimal.NewFromInt(stock),
	})
	require.NoError(t, err)
	return p.ID
}

func (f *fixture) customer(t *testing.T) string {
	t.Helper()
	c, err := f.customers.Create(context.Background(), member, dto.CreateCustomerRequest{Name: "Asha", Phone: "98765 43210"})
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) available(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	v, err := f.ledger.Available(context.Background(), productID)
	require.NoError(t, err)
	return v
}

func productLine(productID string, qty, price int64) dto.BillItemRequest {
	return dto.BillItemRequest{
		ProductID: productID,
		Quantity:  decimal.NewFromInt(qty),
		UnitPrice: decimal.NewFromInt(price),
	}
}

func serviceLine(description string, price int64) dto.BillItemRequest {
	return dto.BillItemRequest{
		Description: description,
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(price),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
