/*
Package warehouse orchestrates the back-office operations over the ledger
core and the storage layer.

PURPOSE:
  Each public method is one business operation - create an order, delete an
  order, record a payment - executed as ONE storage transaction. The package
  owns the sequencing (validate, write, recompute) while the pure arithmetic
  lives in the ledger package.

THE RECOMPUTE RULE:
  Every operation that can change a customer's financial position ends by
  re-deriving the wallet from the complete order and payment history, inside
  the same transaction as the writes that triggered it. No operation adjusts
  the wallet incrementally.

OPERATIONS:
  Customers: CreateCustomer, UpdateCustomer, DeleteCustomer (order guard)
  Orders:    CreateOrder (stock deduction + wallet auto-apply),
             UpdateOrderDetails, DeleteOrder (full reversal)
  Payments:  RecordPayment (directed or oldest-first), DeletePayment
  Finance:   RecordExpense, RecordTax, PayTax

SEE ALSO:
  - ledger: domain types, wallet recompute, allocation
  - store/sqlite: the transactional store underneath
*/
package warehouse

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/warehouse-ledger/ledger"
)

// Orchestrator runs business operations atomically over a ledger.Store.
type Orchestrator struct {
	store ledger.Store
	log   *zap.SugaredLogger
	now   func() time.Time
}

// New creates an Orchestrator. The logger must be non-nil; pass
// zap.NewNop().Sugar() to silence it.
func New(store ledger.Store, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// recomputeWallet re-derives the customer's wallet from their full history
// and persists it. Must run inside the same transaction as the writes it
// reconciles, after those writes.
func (o *Orchestrator) recomputeWallet(ctx context.Context, tx ledger.Tx, id ledger.CustomerID) (decimal.Decimal, error) {
	customer, err := tx.GetCustomer(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if customer == nil {
		return decimal.Zero, ledger.ErrCustomerNotFound
	}

	orders, err := tx.ListCustomerOrders(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	payments, err := tx.ListCustomerPayments(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	wallet := ledger.ComputeWallet(customer.OldBalance, orders, payments)
	if err := tx.SetCustomerWallet(ctx, id, wallet); err != nil {
		return decimal.Zero, err
	}
	return wallet, nil
}

func validationErr(field, message string) error {
	return &ledger.ValidationError{Field: field, Message: message}
}
