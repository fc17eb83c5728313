/*
allocation.go - Oldest-first payment allocation

PURPOSE:
  Decides how a general payment (one not directed at a specific order) is
  spread across a customer's open orders. The rule is strict creation-time
  ascending: the oldest outstanding order absorbs as much as it can, then
  the next, until the payment runs out or there is nothing left to pay.

  The frozen old balance is never a target of allocation. Whatever is left
  over after the walk is not lost: the wallet recompute that follows every
  payment reconciles the remainder into the customer's wallet.

DETERMINISM:
  Allocation is a pure function of (amount, ordered open orders). Callers
  load open orders sorted by creation time so the same inputs always yield
  the same split; there is no secondary ordering criterion.

SEE ALSO:
  - balance.go: the recompute that absorbs any unallocated remainder
*/
package ledger

import "github.com/shopspring/decimal"

// Allocation is one order's share of a payment.
type Allocation struct {
	OrderID OrderID
	Applied decimal.Decimal
}

// AllocateOldestFirst walks open orders in the given sequence, applying as
// much of amount as each order's outstanding balance absorbs. Orders must be
// sorted oldest-created-first; orders with no outstanding balance are
// skipped. Returns the per-order applications and the unallocated remainder.
func AllocateOldestFirst(amount decimal.Decimal, openOrders []Order) ([]Allocation, decimal.Decimal) {
	remaining := amount
	var allocations []Allocation

	for _, o := range openOrders {
		if !remaining.IsPositive() {
			break
		}
		if !o.Balance.IsPositive() {
			continue
		}

		applied := decimal.Min(remaining, o.Balance)
		allocations = append(allocations, Allocation{OrderID: o.ID, Applied: applied})
		remaining = remaining.Sub(applied)
	}

	return allocations, remaining
}

// AllocateToOrder applies a directed payment to a single order: at most the
// order's outstanding balance. The remainder stays unallocated and is
// reconciled by the wallet recompute.
func AllocateToOrder(amount decimal.Decimal, order Order) decimal.Decimal {
	if !order.Balance.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(amount, order.Balance)
}
