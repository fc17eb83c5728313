/*
store.go - Persistence interfaces for the ledger core

PURPOSE:
  Defines the boundary between the orchestrators and the database. Every
  public operation (create order, delete order, record payment) runs inside
  ONE WithTx call; the Tx interface is the set of reads and writes available
  inside that transaction.

ATOMICITY CONTRACT:
  WithTx executes fn inside a single database transaction. If fn returns an
  error the transaction rolls back and no entity of any kind (customer,
  order, payment, inventory) is partially applied. Partial application is a
  correctness violation, not a degraded state.

ISOLATION NOTES:
  - Tx reads observe writes made earlier in the same transaction. The wallet
    recompute depends on this: it reads the order/payment rows the current
    operation just wrote.
  - DeductStock is a conditional decrement; the check and the write are one
    statement, so two concurrent orders cannot both pass a stale
    sufficiency check.

IMPLEMENTATIONS:
  - store/sqlite: production store

SEE ALSO:
  - warehouse: the orchestrators consuming these interfaces
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Transaction entry point
// =============================================================================

// Store opens atomic transactions over the ledger's entities.
type Store interface {
	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// =============================================================================
// TX - Operations available inside a transaction
// =============================================================================

// Tx is the set of reads and writes available inside WithTx. Lookups return
// (nil, nil) when the entity does not exist; orchestrators translate that
// into the typed not-found errors.
type Tx interface {
	// Customers
	GetCustomer(ctx context.Context, id CustomerID) (*Customer, error)
	InsertCustomer(ctx context.Context, c *Customer) error
	UpdateCustomer(ctx context.Context, c *Customer) error
	DeleteCustomer(ctx context.Context, id CustomerID) error
	CountCustomerOrders(ctx context.Context, id CustomerID) (int, error)

	// SetCustomerWallet persists the balance engine's recomputed wallet.
	SetCustomerWallet(ctx context.Context, id CustomerID, wallet decimal.Decimal) error
	// ApplyOrderToCustomer bumps the running counters after order creation.
	ApplyOrderToCustomer(ctx context.Context, id CustomerID, orderTotal decimal.Decimal, placedAt time.Time) error
	// RemoveOrderFromCustomer reverses the counters on order deletion.
	RemoveOrderFromCustomer(ctx context.Context, id CustomerID, orderTotal decimal.Decimal) error

	// Orders
	GetOrder(ctx context.Context, id OrderID) (*Order, error)
	InsertOrder(ctx context.Context, o *Order) error
	UpdateOrderFinancials(ctx context.Context, o *Order) error
	UpdateOrderDetails(ctx context.Context, o *Order) error
	DeleteOrder(ctx context.Context, id OrderID) error
	ListCustomerOrders(ctx context.Context, id CustomerID) ([]Order, error)
	// ListOpenOrders returns orders with balance > 0, oldest-created-first.
	ListOpenOrders(ctx context.Context, id CustomerID) ([]Order, error)
	LastOrderNumber(ctx context.Context, prefix string) (string, error)

	// Inventory
	GetItem(ctx context.Context, id ItemID) (*InventoryItem, error)
	// DeductStock conditionally decrements on-hand quantity. Fails with
	// ErrItemNotFound or an *InsufficientStockError; never drives quantity
	// negative.
	DeductStock(ctx context.Context, id ItemID, qty int) error
	RestoreStock(ctx context.Context, id ItemID, qty int) error

	// Payments
	GetPayment(ctx context.Context, id PaymentID) (*Payment, error)
	InsertPayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, id PaymentID) error
	// DeleteOrderPayments removes every payment referencing the order,
	// returning how many were deleted and their summed amount.
	DeleteOrderPayments(ctx context.Context, id OrderID) (int, decimal.Decimal, error)
	ListCustomerPayments(ctx context.Context, id CustomerID) ([]Payment, error)
	LastPaymentNumber(ctx context.Context, prefix string) (string, error)

	// Expenses and taxes
	InsertExpense(ctx context.Context, e *Expense) error
	LastExpenseNumber(ctx context.Context, prefix string) (string, error)
	InsertTax(ctx context.Context, t *TaxRecord) error
	GetTax(ctx context.Context, id string) (*TaxRecord, error)
	UpdateTax(ctx context.Context, t *TaxRecord) error
	LastTaxNumber(ctx context.Context, prefix string) (string, error)
}
