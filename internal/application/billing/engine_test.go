package billing_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-engine/internal/application/dto"
	"github.com/jhoicas/billing-engine/internal/domain"
	rules "github.com/jhoicas/billing-engine/internal/domain/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
	"github.com/jhoicas/billing-engine/internal/infrastructure/memory"
)

func TestCreateBill_TotalsAndNumber(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	customerID := f.customer(t)

	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: customerID,
		Items:      []dto.BillItemRequest{serviceLine("Sherwani a medida", 800)},
		TaxAmount:  decimal.NewFromInt(144),
	})
	require.NoError(t, err)

	assert.Equal(t, "CS241201001", bill.BillNumber)
	assert.Equal(t, "800", bill.Subtotal.String())
	assert.Equal(t, "944", bill.FinalAmount.String())
	assert.Equal(t, entity.PaymentStatusPending, bill.PaymentStatus)
	assert.Equal(t, entity.BillStatusActive, bill.Status)
	assert.Equal(t, "944", bill.BalanceDue.String())

	ev := f.publisher.last()
	assert.Equal(t, entity.BillEventCreated, ev.Type)
	assert.Equal(t, []string{"2024-12-01"}, ev.Days)

	second, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: customerID,
		Items:      []dto.BillItemRequest{serviceLine("Arreglo", 150)},
	})
	require.NoError(t, err)
	assert.Equal(t, "CS241201002", second.BillNumber)
}

func TestCreateBill_PaymentsScenario(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{serviceLine("Kurta", 800)},
		TaxAmount:  decimal.NewFromInt(144),
	})
	require.NoError(t, err)

	first, err := f.engine.AddPayment(ctx, member, bill.ID, dto.PaymentRequest{Amount: decimal.NewFromInt(500), Method: "upi"})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPartial, first.Bill.PaymentStatus)
	assert.Equal(t, entity.PaymentMethodUPI, first.Payment.Method)

	second, err := f.engine.AddPayment(ctx, member, bill.ID, dto.PaymentRequest{Amount: decimal.NewFromInt(444), Method: entity.PaymentMethodCash})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, second.Bill.PaymentStatus)
	assert.Equal(t, "944", second.Bill.PaidAmount.String())
	assert.True(t, second.Bill.BalanceDue.IsZero())
	assert.Len(t, second.Bill.Payments, 2)
}

func TestCreateBill_InitialPayments(t *testing.T) {
	f := newFixture(t, nil)
	bill, err := f.engine.CreateBill(context.Background(), member, dto.CreateBillRequest{
		CustomerID:      f.customer(t),
		Items:           []dto.BillItemRequest{serviceLine("Blusa", 1000)},
		DiscountAmount:  decimal.NewFromInt(100),
		InitialPayments: []dto.PaymentRequest{{Amount: decimal.NewFromInt(900), Method: "card"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "900", bill.FinalAmount.String())
	assert.Equal(t, entity.PaymentStatusPaid, bill.PaymentStatus)
	require.Len(t, bill.Payments, 1)
	assert.Equal(t, entity.PaymentMethodCard, bill.Payments[0].Method)
}

func TestCreateBill_InsufficientStockConsumesNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	customerID := f.customer(t)
	shirt := f.product(t, "SHIRT", 400, 5)
	empty := f.product(t, "TIE", 200, 0)

	_, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: customerID,
		Items:      []dto.BillItemRequest{productLine(shirt, 2, 400), productLine(empty, 1, 200)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, empty, stockErr.ProductID)

	assert.Equal(t, "5", f.available(t, shirt).String(), "la reserva parcial se deshace")
	list, err := f.engine.ListBills(ctx, member, dto.BillListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	movs, err := f.stock.ListMovements(ctx, member, shirt, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1, "solo el stock inicial")
	assert.Equal(t, entity.MovementTypeRestock, movs[0].Type)

	ok, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: customerID,
		Items:      []dto.BillItemRequest{productLine(shirt, 2, 400)},
	})
	require.NoError(t, err)
	assert.Equal(t, "CS241201001", ok.BillNumber, "el intento fallido no consumió consecutivo")
	assert.Equal(t, "3", f.available(t, shirt).String())
}

func TestCreateBill_AggregatesDemandPerProduct(t *testing.T) {
	f := newFixture(t, nil)
	shirt := f.product(t, "SHIRT", 400, 3)

	_, err := f.engine.CreateBill(context.Background(), member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{productLine(shirt, 2, 400), productLine(shirt, 2, 400)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "3", f.available(t, shirt).String())
}

func TestCreateBill_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	customerID := f.customer(t)

	cases := []struct {
		name string
		req  dto.CreateBillRequest
		want error
	}{
		{"sin ítems", dto.CreateBillRequest{CustomerID: customerID}, domain.ErrInvalidItem},
		{"sin cliente", dto.CreateBillRequest{Items: []dto.BillItemRequest{serviceLine("x", 1)}}, domain.ErrInvalidInput},
		{"cantidad cero", dto.CreateBillRequest{CustomerID: customerID, Items: []dto.BillItemRequest{{Description: "x", UnitPrice: decimal.NewFromInt(1)}}}, domain.ErrInvalidItem},
		{"descuento negativo", dto.CreateBillRequest{CustomerID: customerID, Items: []dto.BillItemRequest{serviceLine("x", 1)}, DiscountAmount: decimal.NewFromInt(-1)}, domain.ErrInvalidInput},
		{"pago inicial inválido", dto.CreateBillRequest{CustomerID: customerID, Items: []dto.BillItemRequest{serviceLine("x", 1)}, InitialPayments: []dto.PaymentRequest{{Amount: decimal.NewFromInt(1), Method: "CHEQUE"}}}, domain.ErrInvalidPayment},
		{"cliente inexistente", dto.CreateBillRequest{CustomerID: "no-existe", Items: []dto.BillItemRequest{serviceLine("x", 1)}}, domain.ErrCustomerNotFound},
		{"producto inexistente", dto.CreateBillRequest{CustomerID: customerID, Items: []dto.BillItemRequest{productLine("no-existe", 1, 1)}}, domain.ErrProductNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.CreateBill(ctx, member, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEngine_RoleChecks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{serviceLine("Arreglo", 100)},
	})
	require.NoError(t, err)

	_, err = f.engine.CancelBill(ctx, member, bill.ID, dto.CancelBillRequest{Reason: "error de caja"})
	assert.ErrorIs(t, err, domain.ErrForbidden, "anular requiere ADMIN")

	_, err = f.engine.CreateBill(ctx, entity.Actor{WorkspaceID: testWorkspace, Role: entity.RoleOwner}, dto.CreateBillRequest{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.engine.CreateBill(ctx, entity.Actor{UserID: "u", WorkspaceID: testWorkspace, Role: "GUEST"}, dto.CreateBillRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestEngine_OtherWorkspaceCannotSeeBill(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{serviceLine("Arreglo", 100)},
	})
	require.NoError(t, err)

	_, err = f.engine.GetBill(ctx, outsider, bill.ID)
	assert.ErrorIs(t, err, domain.ErrBillNotFound)
	_, err = f.engine.AddPayment(ctx, outsider, bill.ID, dto.PaymentRequest{Amount: decimal.NewFromInt(1), Method: "CASH"})
	assert.ErrorIs(t, err, domain.ErrBillNotFound)
	_, err = f.engine.CancelBill(ctx, outsider, bill.ID, dto.CancelBillRequest{Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrBillNotFound)
}

func TestCancelBill_ReleasesStockOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	shirt := f.product(t, "SHIRT", 400, 10)
	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{productLine(shirt, 2, 400)},
	})
	require.NoError(t, err)
	assert.Equal(t, "8", f.available(t, shirt).String())

	_, err = f.engine.CancelBill(ctx, admin, bill.ID, dto.CancelBillRequest{Reason: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el motivo es obligatorio")

	cancelled, err := f.engine.CancelBill(ctx, admin, bill.ID, dto.CancelBillRequest{Reason: "cliente desistió"})
	require.NoError(t, err)
	assert.Equal(t, entity.BillStatusCancelled, cancelled.Status)
	assert.Equal(t, "cliente desistió", cancelled.CancelReason)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, "10", f.available(t, shirt).String())

	_, err = f.engine.CancelBill(ctx, admin, bill.ID, dto.CancelBillRequest{Reason: "otra vez"})
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	assert.Equal(t, "10", f.available(t, shirt).String(), "la segunda anulación no libera stock")

	_, err = f.engine.AddPayment(ctx, member, bill.ID, dto.PaymentRequest{Amount: decimal.NewFromInt(100), Method: "CASH"})
	assert.ErrorIs(t, err, domain.ErrBillNotEditable)
	var stateErr *domain.BillStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, entity.BillStatusCancelled, stateErr.Status)

	_, err = f.engine.UpdateBill(ctx, member, bill.ID, dto.UpdateBillRequest{Items: []dto.BillItemRequest{productLine(shirt, 1, 400)}})
	assert.ErrorIs(t, err, domain.ErrBillNotEditable)
	assert.Equal(t, "10", f.available(t, shirt).String())
}

func TestCancelBill_KeepsPaymentsAndPublishesPaymentDays(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{serviceLine("Lehenga", 2000)},
	})
	require.NoError(t, err)

	f.clock = fixedNow.AddDate(0, 0, 1)
	_, err = f.engine.AddPayment(ctx, member, bill.ID, dto.PaymentRequest{Amount: decimal.NewFromInt(500), Method: "CASH"})
	require.NoError(t, err)

	cancelled, err := f.engine.CancelBill(ctx, admin, bill.ID, dto.CancelBillRequest{Reason: "devolución"})
	require.NoError(t, err)
	assert.Len(t, cancelled.Payments, 1, "los pagos se conservan al anular")
	assert.Equal(t, entity.PaymentStatusPartial, cancelled.PaymentStatus)

	ev := f.publisher.last()
	assert.Equal(t, entity.BillEventCancelled, ev.Type)
	assert.ElementsMatch(t, []string{"2024-12-01", "2024-12-02"}, ev.Days)
}

func TestUpdateBill_AdjustsStockByNetDelta(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	shirt := f.product(t, "SHIRT", 400, 10)
	pant := f.product(t, "PANT", 600, 5)
	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{productLine(shirt, 3, 400)},
		TaxAmount:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	updated, err := f.engine.UpdateBill(ctx, member, bill.ID, dto.UpdateBillRequest{
		Items: []dto.BillItemRequest{productLine(shirt, 1, 400), productLine(pant, 2, 600)},
	})
	require.NoError(t, err)
	assert.Equal(t, "9", f.available(t, shirt).String())
	assert.Equal(t, "3", f.available(t, pant).String())
	assert.Equal(t, "1600", updated.Subtotal.String())
	assert.Equal(t, "1610", updated.FinalAmount.String(), "conserva el impuesto si no se envía")
	assert.Equal(t, bill.BillNumber, updated.BillNumber)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, 0, updated.Items[0].Position)
	assert.Equal(t, 1, updated.Items[1].Position)

	// Un reemplazo que no alcanza stock deja factura y ledger intactos.
	_, err = f.engine.UpdateBill(ctx, member, bill.ID, dto.UpdateBillRequest{
		Items: []dto.BillItemRequest{productLine(pant, 9, 600)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "9", f.available(t, shirt).String())
	assert.Equal(t, "3", f.available(t, pant).String())
	current, err := f.engine.GetBill(ctx, member, bill.ID)
	require.NoError(t, err)
	assert.Len(t, current.Items, 2)
	assert.Equal(t, "1610", current.FinalAmount.String())
}

func TestUpdateBill_RejectedAfterPayment(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{serviceLine("Arreglo", 300)},
	})
	require.NoError(t, err)
	_, err = f.engine.AddPayment(ctx, member, bill.ID, dto.PaymentRequest{Amount: decimal.NewFromInt(100), Method: "CASH"})
	require.NoError(t, err)

	_, err = f.engine.UpdateBill(ctx, member, bill.ID, dto.UpdateBillRequest{Items: []dto.BillItemRequest{serviceLine("Arreglo", 200)}})
	assert.ErrorIs(t, err, domain.ErrBillNotEditable)
}

func TestUpdateBill_ZeroTotalStaysEditable(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{serviceLine("Prueba de talla", 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, bill.PaymentStatus)

	updated, err := f.engine.UpdateBill(ctx, member, bill.ID, dto.UpdateBillRequest{Items: []dto.BillItemRequest{serviceLine("Arreglo", 250)}})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPending, updated.PaymentStatus)
}

func TestAddPayment_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{serviceLine("Arreglo", 300)},
	})
	require.NoError(t, err)

	for _, in := range []dto.PaymentRequest{
		{Amount: decimal.Zero, Method: "CASH"},
		{Amount: decimal.NewFromInt(-5), Method: "CASH"},
		{Amount: dec("10.005"), Method: "CASH"},
		{Amount: decimal.NewFromInt(10), Method: "BITCOIN"},
	} {
		_, err := f.engine.AddPayment(ctx, member, bill.ID, in)
		assert.ErrorIs(t, err, domain.ErrInvalidPayment, "%s %s", in.Amount, in.Method)
	}
	_, err = f.engine.AddPayment(ctx, member, "no-existe", dto.PaymentRequest{Amount: decimal.NewFromInt(1), Method: "CASH"})
	assert.ErrorIs(t, err, domain.ErrBillNotFound)

	over, err := f.engine.AddPayment(ctx, member, bill.ID, dto.PaymentRequest{Amount: decimal.NewFromInt(500), Method: "NETBANKING"})
	require.NoError(t, err, "el sobrepago se acepta")
	assert.Equal(t, entity.PaymentStatusPaid, over.Bill.PaymentStatus)
	assert.True(t, over.Bill.BalanceDue.IsZero())
}

var statusRank = map[string]int{
	entity.PaymentStatusPending: 0,
	entity.PaymentStatusPartial: 1,
	entity.PaymentStatusPaid:    2,
}

func TestAddPayment_StatusIsMonotonic(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	customerID := f.customer(t)
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
			CustomerID: customerID,
			Items:      []dto.BillItemRequest{serviceLine("Traje", 1000)},
		})
		require.NoError(t, err)

		amounts := []int64{100, 250, 300, 350, 200}
		rng.Shuffle(len(amounts), func(i, j int) { amounts[i], amounts[j] = amounts[j], amounts[i] })
		prev := statusRank[bill.PaymentStatus]
		for _, a := range amounts {
			res, err := f.engine.AddPayment(ctx, member, bill.ID, dto.PaymentRequest{Amount: decimal.NewFromInt(a), Method: "CASH"})
			require.NoError(t, err)
			rank := statusRank[res.Bill.PaymentStatus]
			assert.GreaterOrEqual(t, rank, prev, "el estado de pago no retrocede")
			assert.Equal(t, rules.DerivePaymentStatus(res.Bill.FinalAmount, res.Bill.PaidAmount), res.Bill.PaymentStatus)
			prev = rank
		}
		assert.Equal(t, statusRank[entity.PaymentStatusPaid], prev, bill.BillNumber)
	}
}

func TestAddPayment_ConcurrentPaymentsAllCounted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{serviceLine("Traje", 1000)},
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.AddPayment(ctx, member, bill.ID, dto.PaymentRequest{Amount: decimal.NewFromInt(100), Method: "UPI"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.engine.GetBill(ctx, member, bill.ID)
	require.NoError(t, err)
	assert.Len(t, got.Payments, 10)
	assert.Equal(t, "1000", got.PaidAmount.String())
	assert.Equal(t, entity.PaymentStatusPaid, got.PaymentStatus)
}

func TestCreateBill_ConcurrentNeverOversells(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	customerID := f.customer(t)
	last := f.product(t, "LAST-ONE", 999, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
				CustomerID: customerID,
				Items:      []dto.BillItemRequest{productLine(last, 1, 999)},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.True(t, f.available(t, last).IsZero())
}

func TestCreateBill_ManyConcurrentKeepStockNonNegative(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	customerID := f.customer(t)
	shirt := f.product(t, "SHIRT", 400, 25)
	pant := f.product(t, "PANT", 600, 12)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var created []string
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			items := []dto.BillItemRequest{productLine(shirt, 1, 400)}
			if i%2 == 0 {
				items = []dto.BillItemRequest{productLine(pant, 1, 600), productLine(shirt, 1, 400)}
			}
			bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{CustomerID: customerID, Items: items})
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
				return
			}
			mu.Lock()
			created = append(created, bill.ID)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.False(t, f.available(t, shirt).IsNegative())
	assert.False(t, f.available(t, pant).IsNegative())

	// disponible + reservado por facturas activas = stock inicial
	var shirts, pants int64
	for _, id := range created {
		b, err := f.engine.GetBill(ctx, member, id)
		require.NoError(t, err)
		for _, it := range b.Items {
			switch it.ProductID {
			case shirt:
				shirts += it.Quantity.IntPart()
			case pant:
				pants += it.Quantity.IntPart()
			}
		}
	}
	assert.Equal(t, int64(25), f.available(t, shirt).IntPart()+shirts)
	assert.Equal(t, int64(12), f.available(t, pant).IntPart()+pants)
}

func TestCreateBill_ConcurrentNumbersAreUnique(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	customerID := f.customer(t)

	const n = 1000
	numbers := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
				CustomerID: customerID,
				Items:      []dto.BillItemRequest{serviceLine(fmt.Sprintf("Arreglo %d", i), 50)},
			})
			if assert.NoError(t, err) {
				numbers[i] = bill.BillNumber
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, num := range numbers {
		require.True(t, strings.HasPrefix(num, "CS241201"), num)
		require.False(t, seen[num], "consecutivo duplicado %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen["CS2412011000"], "el consecutivo crece más allá del ancho mínimo")
}

func TestCreateBill_NumberResetsPerDay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	customerID := f.customer(t)
	req := dto.CreateBillRequest{CustomerID: customerID, Items: []dto.BillItemRequest{serviceLine("Arreglo", 50)}}

	first, err := f.engine.CreateBill(ctx, member, req)
	require.NoError(t, err)
	// 23:59 IST sigue siendo el mismo día de negocio.
	f.clock = fixedNow.Add(13*60*60 + 29*60)
	second, err := f.engine.CreateBill(ctx, member, req)
	require.NoError(t, err)
	f.clock = fixedNow.AddDate(0, 0, 1)
	third, err := f.engine.CreateBill(ctx, member, req)
	require.NoError(t, err)

	assert.Equal(t, "CS241201001", first.BillNumber)
	assert.Equal(t, "CS241201002", second.BillNumber)
	assert.Equal(t, "CS241202001", third.BillNumber)
}

func TestEngine_ExternalLedgerCompensatesFailedCreate(t *testing.T) {
	detached := memory.NewDetachedLedger()
	f := newFixture(t, detached)
	ctx := context.Background()
	customerID := f.customer(t)
	shirt := f.product(t, "SHIRT", 400, 4)
	tie := f.product(t, "TIE", 100, 1)
	assert.Equal(t, "4", f.available(t, shirt).String())

	_, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: customerID,
		Items:      []dto.BillItemRequest{productLine(shirt, 3, 400), productLine(tie, 2, 100)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "4", f.available(t, shirt).String(), "la reserva aplicada en el ledger externo se compensa")
	assert.Equal(t, "1", f.available(t, tie).String())

	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: customerID,
		Items:      []dto.BillItemRequest{productLine(shirt, 3, 400)},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", f.available(t, shirt).String())

	// Cancelar libera después del commit.
	_, err = f.engine.CancelBill(ctx, admin, bill.ID, dto.CancelBillRequest{Reason: "prueba"})
	require.NoError(t, err)
	assert.Equal(t, "4", f.available(t, shirt).String())

	// Una cancelación rechazada no libera nada.
	_, err = f.engine.CancelBill(ctx, admin, bill.ID, dto.CancelBillRequest{Reason: "prueba"})
	require.True(t, errors.Is(err, domain.ErrAlreadyCancelled))
	assert.Equal(t, "4", f.available(t, shirt).String())
}

func TestListBills_Filters(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	customerID := f.customer(t)
	req := dto.CreateBillRequest{CustomerID: customerID, Items: []dto.BillItemRequest{serviceLine("Arreglo", 50)}}

	first, err := f.engine.CreateBill(ctx, member, req)
	require.NoError(t, err)
	f.clock = fixedNow.AddDate(0, 0, 1)
	_, err = f.engine.CreateBill(ctx, member, req)
	require.NoError(t, err)
	_, err = f.engine.CancelBill(ctx, admin, first.ID, dto.CancelBillRequest{Reason: "duplicada"})
	require.NoError(t, err)

	day1, err := f.engine.ListBills(ctx, member, dto.BillListRequest{From: "2024-12-01", To: "2024-12-01"})
	require.NoError(t, err)
	require.Len(t, day1.Items, 1)
	assert.Equal(t, first.ID, day1.Items[0].ID)

	active, err := f.engine.ListBills(ctx, member, dto.BillListRequest{Status: "active"})
	require.NoError(t, err)
	require.Len(t, active.Items, 1)
	assert.Equal(t, "CS241202001", active.Items[0].BillNumber)

	_, err = f.engine.ListBills(ctx, member, dto.BillListRequest{Status: "VOID"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.ListBills(ctx, member, dto.BillListRequest{From: "01/12/2024"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.ListBills(ctx, member, dto.BillListRequest{From: "2024-12-03", To: "2024-12-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateBill_RecordsMovementsAfterBill(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	shirt := f.product(t, "SHIRT", 400, 5)
	belt := f.product(t, "BELT", 150, 5)

	bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
		CustomerID: f.customer(t),
		Items:      []dto.BillItemRequest{productLine(shirt, 2, 400), productLine(belt, 1, 150)},
	})
	require.NoError(t, err)

	movs, err := memory.NewStockMovementRepository(f.store).ListByBill(ctx, testWorkspace, bill.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementTypeReserve, m.Type)
		assert.Equal(t, bill.ID, m.BillID)
	}
}

func TestCancelBill_RacingPaymentIsSerialised(t *testing.T) {
	for name, external := range map[string]*memory.DetachedLedger{"transaccional": nil, "externo": memory.NewDetachedLedger()} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, external)
			ctx := context.Background()
			customerID := f.customer(t)
			shirt := f.product(t, "SHIRT", 400, 40)

			for round := 0; round < 20; round++ {
				bill, err := f.engine.CreateBill(ctx, member, dto.CreateBillRequest{
					CustomerID: customerID,
					Items:      []dto.BillItemRequest{productLine(shirt, 2, 400)},
				})
				require.NoError(t, err)

				var wg sync.WaitGroup
				var cancelErr, payErr error
				wg.Add(2)
				go func() {
					defer wg.Done()
					_, cancelErr = f.engine.CancelBill(ctx, admin, bill.ID, dto.CancelBillRequest{Reason: "cliente desistió"})
				}()
				go func() {
					defer wg.Done()
					_, payErr = f.engine.AddPayment(ctx, member, bill.ID, dto.PaymentRequest{Amount: decimal.NewFromInt(300), Method: "CASH"})
				}()
				wg.Wait()

				require.NoError(t, cancelErr)
				got, err := f.engine.GetBill(ctx, member, bill.ID)
				require.NoError(t, err)
				assert.Equal(t, entity.BillStatusCancelled, got.Status)
				if payErr != nil {
					// la anulación ganó: el pago se rechaza y no queda rastro
					assert.ErrorIs(t, payErr, domain.ErrBillNotEditable)
					assert.Empty(t, got.Payments)
				} else {
					// el pago ganó: queda registrado en la factura anulada
					require.Len(t, got.Payments, 1)
					assert.Equal(t, "300", got.PaidAmount.String())
					assert.Equal(t, entity.PaymentStatusPartial, got.PaymentStatus)
				}
				assert.Equal(t, "40", f.available(t, shirt).String(), "ronda %d: el stock se libera una sola vez", round)

				movs, err := memory.NewStockMovementRepository(f.store).ListByBill(ctx, testWorkspace, bill.ID)
				require.NoError(t, err)
				require.Len(t, movs, 2)
				assert.Equal(t, entity.MovementTypeReserve, movs[0].Type)
				assert.Equal(t, entity.MovementTypeRelease, movs[1].Type)
			}
		})
	}
}
