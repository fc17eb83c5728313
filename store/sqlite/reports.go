/*
reports.go - Read-side aggregates for the dashboard

PURPOSE:
  Collects the numbers the dashboard endpoint reports. Money columns are
  decimal TEXT, so sums are accumulated in Go with decimal arithmetic rather
  than SUM() over lossy REAL casts; back-office row counts make full scans
  acceptable here.

REVENUE NOTE:
  Revenue counts Confirmed payments only. The wallet recompute deliberately
  counts every payment; the two disagree on purpose - one is a ledger
  invariant, the other a business report.
*/
package sqlite

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/warehouse-ledger/ledger"
)

// DashboardStats is the aggregate snapshot the dashboard endpoint serves.
type DashboardStats struct {
	TotalCustomers   int
	TotalOrders      int
	PendingOrders    int
	TotalRevenue     decimal.Decimal // Confirmed payments only
	TotalOutstanding decimal.Decimal // order balances + frozen old balances
	TotalWallet      decimal.Decimal // customer surplus credit
	TotalExpenses    decimal.Decimal
	InventoryValue   decimal.Decimal // quantity x unit price over all items
	LowStockItems    int
	OutOfStockItems  int
}

// GetDashboardStats assembles the dashboard aggregates in one read pass.
func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &DashboardStats{
		TotalRevenue:     decimal.Zero,
		TotalOutstanding: decimal.Zero,
		TotalWallet:      decimal.Zero,
		TotalExpenses:    decimal.Zero,
		InventoryValue:   decimal.Zero,
	}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM customers").Scan(&stats.TotalCustomers)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders").Scan(&stats.TotalOrders)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE status = ?",
		ledger.OrderPending).Scan(&stats.PendingOrders)
	if err != nil {
		return nil, err
	}

	// Outstanding debt: every order balance plus every frozen old balance
	if err := s.sumColumn(ctx, "SELECT balance FROM orders", &stats.TotalOutstanding); err != nil {
		return nil, err
	}
	if err := s.sumColumn(ctx, "SELECT old_balance FROM customers", &stats.TotalOutstanding); err != nil {
		return nil, err
	}

	if err := s.sumColumn(ctx, "SELECT balance FROM customers", &stats.TotalWallet); err != nil {
		return nil, err
	}

	err = s.sumColumnArgs(ctx,
		"SELECT amount FROM payments WHERE status = ?",
		&stats.TotalRevenue, ledger.PaymentStatusConfirmed)
	if err != nil {
		return nil, err
	}

	err = s.sumColumnArgs(ctx,
		"SELECT amount FROM expenses WHERE status != ?",
		&stats.TotalExpenses, ledger.ExpenseRejected)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT quantity, unit_price, status FROM inventory")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			quantity  int
			unitPrice string
			status    ledger.StockStatus
		)
		if err := rows.Scan(&quantity, &unitPrice, &status); err != nil {
			return nil, err
		}
		stats.InventoryValue = stats.InventoryValue.Add(
			ledger.MustParseDecimal(unitPrice).Mul(decimal.NewFromInt(int64(quantity))))

		switch status {
		case ledger.StockLow:
			stats.LowStockItems++
		case ledger.StockOut:
			stats.OutOfStockItems++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// sumColumn adds every value of a single decimal TEXT column into dst.
func (s *Store) sumColumn(ctx context.Context, query string, dst *decimal.Decimal) error {
	return s.sumColumnArgs(ctx, query, dst)
}

func (s *Store) sumColumnArgs(ctx context.Context, query string, dst *decimal.Decimal, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return err
		}
		*dst = dst.Add(ledger.MustParseDecimal(value))
	}
	return rows.Err()
}
