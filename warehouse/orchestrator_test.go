package warehouse_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/warehouse-ledger/ledger"
	"github.com/warp/warehouse-ledger/store/sqlite"
	"github.com/warp/warehouse-ledger/warehouse"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixture struct {
	store *sqlite.Store
	orch  *warehouse.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &fixture{
		store: store,
		orch:  warehouse.New(store, zap.NewNop().Sugar()),
	}
}

func (f *fixture) customer(t *testing.T, oldBalance int64) *ledger.Customer {
	t.Helper()

	c, err := f.orch.CreateCustomer(context.Background(), warehouse.CustomerInput{
		Name:       "Musa Trading",
		Phone:      "0801-000-0000",
		OldBalance: decimal.NewFromInt(oldBalance),
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) item(t *testing.T, id string, qty int, price int64) *ledger.InventoryItem {
	t.Helper()

	now := time.Now().UTC()
	item := &ledger.InventoryItem{
		ID:        ledger.ItemID(id),
		ItemName:  "Cement 50kg",
		Brand:     "Dangote",
		Unit:      "bag",
		Quantity:  qty,
		UnitPrice: decimal.NewFromInt(price),
		CreatedAt: now,
		UpdatedAt: now,
	}
	item.RefreshStatus()
	require.NoError(t, f.store.InsertItem(context.Background(), item))
	return item
}

func (f *fixture) order(t *testing.T, customerID ledger.CustomerID, itemID string, qty int) *ledger.Order {
	t.Helper()

	o, err := f.orch.CreateOrder(context.Background(), warehouse.OrderInput{
		CustomerID: customerID,
		Lines:      []warehouse.OrderLineInput{{InventoryID: ledger.ItemID(itemID), Quantity: qty}},
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) wallet(t *testing.T, id ledger.CustomerID) decimal.Decimal {
	t.Helper()

	c, err := f.store.GetCustomer(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c.Balance
}

// =============================================================================
// ORDER CREATION
// =============================================================================

func TestCreateOrder_SnapshotsAndDeductsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 20, 5000)

	o := f.order(t, c.ID, "i1", 4)

	assert.True(t, o.Total.Equal(decimal.NewFromInt(20000)))
	assert.True(t, o.Balance.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, ledger.PaymentUnpaid, o.PaymentStatus)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Cement 50kg", o.Items[0].ItemName)

	item, err := f.store.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, 16, item.Quantity)

	got, err := f.store.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalOrders)
	assert.True(t, got.TotalPurchases.Equal(decimal.NewFromInt(20000)))
	require.NotNil(t, got.LastOrderDate)
}

func TestCreateOrder_InsufficientStockAbortsEverything(t *testing.T) {
	// GIVEN: An order whose second line exceeds available stock
	// WHEN: Creation runs
	// THEN: Nothing is applied - no order, no stock change, no counters

	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "plenty", 100, 1000)
	f.item(t, "scarce", 2, 1000)

	_, err := f.orch.CreateOrder(ctx, warehouse.OrderInput{
		CustomerID: c.ID,
		Lines: []warehouse.OrderLineInput{
			{InventoryID: "plenty", Quantity: 10},
			{InventoryID: "scarce", Quantity: 5},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInsufficientStock)

	plenty, _ := f.store.GetItem(ctx, "plenty")
	assert.Equal(t, 100, plenty.Quantity, "first line's deduction must roll back")

	orders, err := f.store.ListOrders(ctx, sqlite.OrderFilter{CustomerID: c.ID})
	require.NoError(t, err)
	assert.Empty(t, orders)

	got, _ := f.store.GetCustomer(ctx, c.ID)
	assert.Equal(t, 0, got.TotalOrders)
}

func TestCreateOrder_WalletAutoApplies(t *testing.T) {
	// GIVEN: A customer holding 5000 of wallet credit
	// WHEN: They place a 3000 order
	// THEN: The order is born Paid; the recompute still sees the full payment
	//       history against zero outstanding debt, so the credit remains 5000

	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 50, 1000)

	// Build up wallet credit: a pure overpayment with no open orders
	_, err := f.orch.RecordPayment(ctx, warehouse.PaymentInput{
		CustomerID: c.ID,
		Amount:     decimal.NewFromInt(5000),
		Method:     ledger.MethodCash,
	})
	require.NoError(t, err)
	require.True(t, f.wallet(t, c.ID).Equal(decimal.NewFromInt(5000)))

	o := f.order(t, c.ID, "i1", 3)

	assert.True(t, o.AmountPaid.Equal(decimal.NewFromInt(3000)))
	assert.True(t, o.Balance.IsZero())
	assert.Equal(t, ledger.PaymentPaid, o.PaymentStatus)
	assert.True(t, f.wallet(t, c.ID).Equal(decimal.NewFromInt(5000)))
}

func TestCreateOrder_UnknownCustomerOrItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 10, 100)

	_, err := f.orch.CreateOrder(ctx, warehouse.OrderInput{
		CustomerID: "ghost",
		Lines:      []warehouse.OrderLineInput{{InventoryID: "i1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, ledger.ErrCustomerNotFound)

	_, err = f.orch.CreateOrder(ctx, warehouse.OrderInput{
		CustomerID: c.ID,
		Lines:      []warehouse.OrderLineInput{{InventoryID: "ghost", Quantity: 1}},
	})
	assert.ErrorIs(t, err, ledger.ErrItemNotFound)
}

func TestCreateOrder_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)

	_, err := f.orch.CreateOrder(ctx, warehouse.OrderInput{CustomerID: c.ID})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = f.orch.CreateOrder(ctx, warehouse.OrderInput{
		CustomerID: c.ID,
		Lines:      []warehouse.OrderLineInput{{InventoryID: "i1", Quantity: 0}},
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestCreateOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	// Ten workers race for five units. Exactly five single-unit orders may
	// succeed and the shelf must end at zero, never below.

	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 5, 1000)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orch.CreateOrder(ctx, warehouse.OrderInput{
				CustomerID: c.ID,
				Lines:      []warehouse.OrderLineInput{{InventoryID: "i1", Quantity: 1}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, failed := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ledger.ErrInsufficientStock)
			failed++
		}
	}

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 5, failed)

	item, err := f.store.GetItem(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)
}

func TestUpdateOrderDetails_NeverTouchesFinancials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 20, 5000)
	o := f.order(t, c.ID, "i1", 2)

	updated, err := f.orch.UpdateOrderDetails(ctx, o.ID, warehouse.OrderDetailsInput{
		Status:         ledger.OrderCompleted,
		DeliveryStatus: ledger.DeliveryDelivered,
		Notes:          "left at the gate",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.OrderCompleted, updated.Status)
	assert.Equal(t, ledger.DeliveryDelivered, updated.DeliveryStatus)

	got, _ := f.store.GetOrder(ctx, o.ID)
	assert.True(t, got.Total.Equal(o.Total))
	assert.True(t, got.AmountPaid.Equal(o.AmountPaid))
	assert.True(t, got.Balance.Equal(o.Balance))
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestRecordPayment_OldestFirstAcrossOpenOrders(t *testing.T) {
	// GIVEN: Two open orders, 3000 then 2000, created in that sequence
	// WHEN: A general payment of 4000 arrives
	// THEN: The older order settles fully, the newer absorbs the rest

	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 100, 1000)

	first := f.order(t, c.ID, "i1", 3)
	second := f.order(t, c.ID, "i1", 2)

	_, err := f.orch.RecordPayment(ctx, warehouse.PaymentInput{
		CustomerID: c.ID,
		Amount:     decimal.NewFromInt(4000),
		Method:     ledger.MethodBankTransfer,
	})
	require.NoError(t, err)

	gotFirst, _ := f.store.GetOrder(ctx, first.ID)
	assert.True(t, gotFirst.AmountPaid.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, ledger.PaymentPaid, gotFirst.PaymentStatus)

	gotSecond, _ := f.store.GetOrder(ctx, second.ID)
	assert.True(t, gotSecond.AmountPaid.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, ledger.PaymentPartial, gotSecond.PaymentStatus)

	// Recompute: 4000 paid against the 1000 still outstanding on the newer
	// order leaves 3000 of credit.
	assert.True(t, f.wallet(t, c.ID).Equal(decimal.NewFromInt(3000)))
}

func TestRecordPayment_DirectedAtOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 100, 1000)

	older := f.order(t, c.ID, "i1", 3)
	target := f.order(t, c.ID, "i1", 2)

	_, err := f.orch.RecordPayment(ctx, warehouse.PaymentInput{
		CustomerID: c.ID,
		OrderID:    &target.ID,
		Amount:     decimal.NewFromInt(2000),
		Method:     ledger.MethodCash,
	})
	require.NoError(t, err)

	gotOlder, _ := f.store.GetOrder(ctx, older.ID)
	assert.True(t, gotOlder.AmountPaid.IsZero(), "directed payment skips the walk")

	gotTarget, _ := f.store.GetOrder(ctx, target.ID)
	assert.Equal(t, ledger.PaymentPaid, gotTarget.PaymentStatus)
}

func TestRecordPayment_SurplusBecomesWallet(t *testing.T) {
	// GIVEN: A frozen old balance of 1000 and a 2000 order
	// WHEN: A general payment of 3500 arrives
	// THEN: The order settles and the recompute reconciles the full payment
	//       against what is still owed: 3500 - (1000 + 0) = 2500 of credit

	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 1000)
	f.item(t, "i1", 100, 1000)
	o := f.order(t, c.ID, "i1", 2) // 2000 debt

	_, err := f.orch.RecordPayment(ctx, warehouse.PaymentInput{
		CustomerID: c.ID,
		Amount:     decimal.NewFromInt(3500),
		Method:     ledger.MethodCash,
	})
	require.NoError(t, err)

	got, _ := f.store.GetOrder(ctx, o.ID)
	assert.True(t, got.Balance.IsZero())
	assert.Equal(t, ledger.PaymentPaid, got.PaymentStatus)
	assert.True(t, f.wallet(t, c.ID).Equal(decimal.NewFromInt(2500)))
}

func TestRecordPayment_OldBalanceHoldsWalletAtZero(t *testing.T) {
	// GIVEN: A customer with a frozen old balance of 1000 and no orders
	// WHEN: They pay 600
	// THEN: The wallet stays at zero - old debt absorbs first

	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 1000)

	_, err := f.orch.RecordPayment(ctx, warehouse.PaymentInput{
		CustomerID: c.ID,
		Amount:     decimal.NewFromInt(600),
		Method:     ledger.MethodCash,
	})
	require.NoError(t, err)
	assert.True(t, f.wallet(t, c.ID).IsZero())

	// Paying past the old balance starts building credit
	_, err = f.orch.RecordPayment(ctx, warehouse.PaymentInput{
		CustomerID: c.ID,
		Amount:     decimal.NewFromInt(900),
		Method:     ledger.MethodCash,
	})
	require.NoError(t, err)
	assert.True(t, f.wallet(t, c.ID).Equal(decimal.NewFromInt(500)))
}

func TestRecordPayment_WrongCustomerOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.customer(t, 0)
	b, err := f.orch.CreateCustomer(ctx, warehouse.CustomerInput{
		Name: "Other", Phone: "0802-000-0000",
	})
	require.NoError(t, err)
	f.item(t, "i1", 10, 100)
	o := f.order(t, a.ID, "i1", 1)

	_, err = f.orch.RecordPayment(ctx, warehouse.PaymentInput{
		CustomerID: b.ID,
		OrderID:    &o.ID,
		Amount:     decimal.NewFromInt(100),
		Method:     ledger.MethodCash,
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestDeletePayment_ReversesOrderAndWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 100, 1000)
	o := f.order(t, c.ID, "i1", 2) // 2000 debt

	p, err := f.orch.RecordPayment(ctx, warehouse.PaymentInput{
		CustomerID: c.ID,
		OrderID:    &o.ID,
		Amount:     decimal.NewFromInt(2000),
		Method:     ledger.MethodCash,
	})
	require.NoError(t, err)

	require.NoError(t, f.orch.DeletePayment(ctx, p.ID))

	got, _ := f.store.GetOrder(ctx, o.ID)
	assert.True(t, got.AmountPaid.IsZero())
	assert.Equal(t, ledger.PaymentUnpaid, got.PaymentStatus)
	assert.True(t, f.wallet(t, c.ID).IsZero())

	assert.ErrorIs(t, f.orch.DeletePayment(ctx, p.ID), ledger.ErrPaymentNotFound)
}

// =============================================================================
// ORDER DELETION
// =============================================================================

func TestDeleteOrder_FullReversal(t *testing.T) {
	// GIVEN: An order with stock deducted and a directed payment applied
	// WHEN: The order is deleted
	// THEN: Stock returns, the payment disappears, counters unwind, and the
	//       wallet is recomputed from what is left

	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 10, 1000)
	o := f.order(t, c.ID, "i1", 4)

	_, err := f.orch.RecordPayment(ctx, warehouse.PaymentInput{
		CustomerID: c.ID,
		OrderID:    &o.ID,
		Amount:     decimal.NewFromInt(4000),
		Method:     ledger.MethodCash,
	})
	require.NoError(t, err)

	result, err := f.orch.DeleteOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RestockedLines)
	assert.Equal(t, 1, result.DeletedPayments)
	assert.True(t, result.DeletedPaymentTotal.Equal(decimal.NewFromInt(4000)))

	item, _ := f.store.GetItem(ctx, "i1")
	assert.Equal(t, 10, item.Quantity)

	gone, err := f.store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	got, _ := f.store.GetCustomer(ctx, c.ID)
	assert.Equal(t, 0, got.TotalOrders)
	assert.True(t, got.TotalPurchases.IsZero())
	// The deleted payment left the history with its order
	assert.True(t, got.Balance.IsZero())
}

func TestDeleteOrder_UnrelatedPaymentsSurviveIntoWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 100, 1000)
	o := f.order(t, c.ID, "i1", 3) // 3000 debt

	// General payment settles the order through the oldest-first walk
	_, err := f.orch.RecordPayment(ctx, warehouse.PaymentInput{
		CustomerID: c.ID,
		Amount:     decimal.NewFromInt(3000),
		Method:     ledger.MethodCash,
	})
	require.NoError(t, err)

	// The payment was general, not directed, so deletion keeps it; with no
	// orders left it stands as pure wallet credit.
	result, err := f.orch.DeleteOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.DeletedPayments)
	assert.True(t, result.Wallet.Equal(decimal.NewFromInt(3000)))
	assert.True(t, f.wallet(t, c.ID).Equal(decimal.NewFromInt(3000)))
}

func TestDeleteOrder_StockRoundTripTwice(t *testing.T) {
	// Create-then-delete must restore the shelf exactly, every time.
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 7, 1000)

	for i := 0; i < 2; i++ {
		o := f.order(t, c.ID, "i1", 3)

		item, _ := f.store.GetItem(ctx, "i1")
		require.Equal(t, 4, item.Quantity)

		_, err := f.orch.DeleteOrder(ctx, o.ID)
		require.NoError(t, err)

		item, _ = f.store.GetItem(ctx, "i1")
		require.Equal(t, 7, item.Quantity)
	}
}

func TestDeleteOrder_Missing(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.DeleteOrder(context.Background(), "ghost")
	assert.ErrorIs(t, err, ledger.ErrOrderNotFound)
}

// =============================================================================
// CUSTOMER LIFECYCLE
// =============================================================================

func TestDeleteCustomer_GuardedByOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 0)
	f.item(t, "i1", 10, 100)
	o := f.order(t, c.ID, "i1", 1)

	err := f.orch.DeleteCustomer(ctx, c.ID)
	assert.ErrorIs(t, err, ledger.ErrCustomerHasOrders)

	// Remove the order and the guard lifts
	_, err = f.orch.DeleteOrder(ctx, o.ID)
	require.NoError(t, err)
	require.NoError(t, f.orch.DeleteCustomer(ctx, c.ID))

	got, err := f.store.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateCustomer_FreezesOldBalance(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, 2500)

	assert.True(t, c.OldBalance.Equal(decimal.NewFromInt(2500)))
	assert.True(t, c.OldBalanceRemaining.Equal(decimal.NewFromInt(2500)))
	assert.True(t, c.Balance.IsZero())
	assert.Equal(t, ledger.CustomerActive, c.Status)
	assert.Equal(t, ledger.CustomerRetail, c.Type)
}

func TestUpdateCustomer_ProfileOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, 1000)

	updated, err := f.orch.UpdateCustomer(ctx, c.ID, warehouse.CustomerInput{
		Name:   "Musa & Sons",
		Phone:  c.Phone,
		Status: ledger.CustomerSuspended,
	})
	require.NoError(t, err)
	assert.Equal(t, "Musa & Sons", updated.Name)
	assert.Equal(t, ledger.CustomerSuspended, updated.Status)

	got, _ := f.store.GetCustomer(ctx, c.ID)
	assert.True(t, got.OldBalance.Equal(decimal.NewFromInt(1000)),
		"old balance is frozen across updates")
}

// =============================================================================
// EXPENSES AND TAXES
// =============================================================================

func TestRecordExpense(t *testing.T) {
	f := newFixture(t)

	e, err := f.orch.RecordExpense(context.Background(), warehouse.ExpenseInput{
		Category: "Logistics",
		Amount:   decimal.NewFromInt(12000),
		Method:   ledger.MethodCash,
	})
	require.NoError(t, err)

	prefix := fmt.Sprintf("EXP-%s-", time.Now().UTC().Format("0601"))
	assert.Equal(t, prefix+"00001", e.Number)
	assert.Equal(t, ledger.ExpensePending, e.Status)
}

func TestTaxLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.orch.RecordTax(ctx, warehouse.TaxInput{
		TaxType:   "VAT",
		Period:    "2025-Q3",
		TaxAmount: decimal.NewFromInt(9000),
		DueDate:   time.Now().UTC().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.TaxPending, rec.Status)

	rec, err = f.orch.PayTax(ctx, rec.ID, decimal.NewFromInt(4000))
	require.NoError(t, err)
	assert.Equal(t, ledger.TaxPartiallyPaid, rec.Status)

	rec, err = f.orch.PayTax(ctx, rec.ID, decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.Equal(t, ledger.TaxPaid, rec.Status)

	_, err = f.orch.PayTax(ctx, "ghost", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ledger.ErrTaxNotFound)
}

// =============================================================================
// DOCUMENT NUMBERING
// =============================================================================

func TestOrderNumbersAreSequentialWithinMonth(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, 0)
	f.item(t, "i1", 100, 100)

	first := f.order(t, c.ID, "i1", 1)
	second := f.order(t, c.ID, "i1", 1)

	prefix := fmt.Sprintf("ORD-%s-", time.Now().UTC().Format("0601"))
	assert.Equal(t, prefix+"00001", first.Number)
	assert.Equal(t, prefix+"00002", second.Number)
}
