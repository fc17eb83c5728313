/*
balance.go - The customer wallet recompute engine

PURPOSE:
  Derives a customer's wallet from ground truth: the full set of their
  orders and payments. The wallet is surplus credit and exists only once
  every debt is covered:

    totalPayments  = sum of all payment amounts
    totalOrderDebt = sum of every order's balance (total - amountPaid)
    totalDebt      = oldBalance + totalOrderDebt
    wallet         = max(0, totalPayments - totalDebt)

WHY RECOMPUTE-FROM-SCRATCH?
  The wallet is never adjusted incrementally. Every order or payment
  mutation re-derives it from the complete history inside the same storage
  transaction. That makes the value idempotent: replaying an operation, or
  racing two of them, cannot double-apply a credit. The cost is
  O(orders + payments) per mutation, which is the right trade for a
  back-office ledger where a wrong balance is a customer dispute.

INVARIANTS:
  1. wallet >= 0 always
  2. wallet > 0 implies oldBalance + totalOrderDebt is fully covered
  3. oldBalance is never reduced; it only weighs in as debt

SEE ALSO:
  - allocation.go: how a payment is spread across open orders first
  - warehouse: orchestrators that call Recompute inside their transactions
*/
package ledger

import "github.com/shopspring/decimal"

// =============================================================================
// WALLET COMPUTATION
// =============================================================================

// WalletBreakdown is the recompute's working state, exposed for statements
// and the dashboard.
type WalletBreakdown struct {
	TotalPayments  decimal.Decimal
	TotalOrderDebt decimal.Decimal
	OldBalance     decimal.Decimal
	TotalDebt      decimal.Decimal
	Wallet         decimal.Decimal
}

// ComputeWallet derives the wallet value from the customer's complete order
// and payment history. All persisted payments contribute; status filtering
// is a reporting concern, not a ledger one.
func ComputeWallet(oldBalance decimal.Decimal, orders []Order, payments []Payment) decimal.Decimal {
	return ComputeWalletBreakdown(oldBalance, orders, payments).Wallet
}

// ComputeWalletBreakdown is ComputeWallet with the intermediate terms kept.
func ComputeWalletBreakdown(oldBalance decimal.Decimal, orders []Order, payments []Payment) WalletBreakdown {
	totalPayments := decimal.Zero
	for _, p := range payments {
		totalPayments = totalPayments.Add(p.Amount)
	}

	totalOrderDebt := decimal.Zero
	for _, o := range orders {
		totalOrderDebt = totalOrderDebt.Add(o.Balance)
	}

	totalDebt := oldBalance.Add(totalOrderDebt)

	wallet := totalPayments.Sub(totalDebt)
	if wallet.IsNegative() {
		wallet = decimal.Zero
	}

	return WalletBreakdown{
		TotalPayments:  totalPayments,
		TotalOrderDebt: totalOrderDebt,
		OldBalance:     oldBalance,
		TotalDebt:      totalDebt,
		Wallet:         wallet,
	}
}
