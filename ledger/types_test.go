package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/warehouse-ledger/ledger"
)

// =============================================================================
// ORDER DERIVED STATE
// =============================================================================

func TestOrderFinalize_DerivesBalanceAndStatus(t *testing.T) {
	cases := []struct {
		name       string
		total      int64
		paid       int64
		wantBal    int64
		wantStatus ledger.PaymentState
	}{
		{"unpaid", 1000, 0, 1000, ledger.PaymentUnpaid},
		{"partial", 1000, 400, 600, ledger.PaymentPartial},
		{"paid exactly", 1000, 1000, 0, ledger.PaymentPaid},
		{"overpaid still paid", 1000, 1200, -200, ledger.PaymentPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := ledger.Order{Total: money(tc.total), AmountPaid: money(tc.paid)}
			o.Finalize()

			assertMoney(t, tc.wantBal, o.Balance)
			assert.Equal(t, tc.wantStatus, o.PaymentStatus)
		})
	}
}

// =============================================================================
// INVENTORY DERIVED STATE
// =============================================================================

func TestInventoryRefreshStatus(t *testing.T) {
	cases := []struct {
		name     string
		quantity int
		reorder  int
		want     ledger.StockStatus
	}{
		{"zero is out", 0, 10, ledger.StockOut},
		{"at reorder level is low", 10, 10, ledger.StockLow},
		{"below reorder level is low", 3, 10, ledger.StockLow},
		{"above reorder level is in", 11, 10, ledger.StockIn},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := ledger.InventoryItem{Quantity: tc.quantity, ReorderLevel: tc.reorder}
			item.RefreshStatus()
			assert.Equal(t, tc.want, item.Status)
		})
	}
}

// =============================================================================
// TAX DERIVED STATE
// =============================================================================

func TestTaxRefreshStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)
	past := now.AddDate(0, -1, 0)

	cases := []struct {
		name   string
		amount int64
		paid   int64
		due    time.Time
		want   ledger.TaxStatus
	}{
		{"nothing paid, not due", 500, 0, future, ledger.TaxPending},
		{"nothing paid, past due", 500, 0, past, ledger.TaxOverdue},
		{"partially paid", 500, 200, past, ledger.TaxPartiallyPaid},
		{"fully paid", 500, 500, past, ledger.TaxPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ledger.TaxRecord{
				TaxAmount:  money(tc.amount),
				AmountPaid: money(tc.paid),
				DueDate:    tc.due,
			}
			rec.RefreshStatus(now)
			assert.Equal(t, tc.want, rec.Status)
		})
	}
}

// =============================================================================
// DECIMAL PARSING
// =============================================================================

func TestMustParseDecimal(t *testing.T) {
	assertMoney(t, 1250, ledger.MustParseDecimal("1250"))
	assert.True(t, ledger.MustParseDecimal("12.50").Equal(ledger.MustParseDecimal("12.5")))
	assertMoney(t, 0, ledger.MustParseDecimal(""))
	assertMoney(t, 0, ledger.MustParseDecimal("not a number"))
}
