/*
Package ledger contains the core domain model and the customer balance engine.

PURPOSE:
  This package is the financial heart of the back office. It defines the
  entities the rest of the system persists and moves around (customers,
  orders with line-item snapshots, payments, inventory items) and the pure
  algorithms that keep them consistent: the wallet recompute (balance.go)
  and oldest-first payment allocation (allocation.go).

KEY CONCEPTS IN THIS FILE (types.go):
  - Customer: carries a wallet balance (surplus credit, never negative) and
    a frozen pre-system old balance (display-only debt, never mutated)
  - Order: a customer debt with an immutable financial snapshot; its
    balance and payment status are DERIVED from total and amountPaid
  - Payment: a discrete credit event, optionally tied to one order
  - InventoryItem: on-hand stock with a derived stock status

DESIGN PRINCIPLES:
  1. Precision: all money is decimal.Decimal, never float
  2. Derived state is recomputed, not adjusted: Finalize() and
     RefreshStatus() are called before every persist, so a stored row can
     never disagree with its own fields
  3. Snapshots: an order's line items copy name/brand/unit/price at creation
     time; later inventory edits do not rewrite history

SEE ALSO:
  - balance.go: wallet recompute engine
  - allocation.go: oldest-first payment allocation
  - store.go: persistence interfaces implemented by store/sqlite
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CustomerID string
type OrderID string
type PaymentID string
type ItemID string

// =============================================================================
// CUSTOMER
// =============================================================================

type CustomerType string

const (
	CustomerRetail      CustomerType = "Retail"
	CustomerWholesale   CustomerType = "Wholesale"
	CustomerDistributor CustomerType = "Distributor"
	CustomerIndividual  CustomerType = "Individual"
)

type CustomerStatus string

const (
	CustomerActive    CustomerStatus = "Active"
	CustomerInactive  CustomerStatus = "Inactive"
	CustomerSuspended CustomerStatus = "Suspended"
)

// Address is the customer's physical address.
type Address struct {
	Street  string
	City    string
	State   string
	Country string
}

// Customer is a buyer with a running financial relationship.
//
// Balance is the WALLET: surplus credit that exists only once every debt
// (old balance plus all order balances) is covered. It is always derived by
// the balance engine, never incremented in place.
//
// OldBalance is debt frozen at system cutover. It is display-only and is
// never reduced by payments. OldBalanceRemaining mirrors it at creation and
// is kept for statement display; the engine does not consume it.
type Customer struct {
	ID                  CustomerID
	Name                string
	Phone               string
	Email               string
	Address             Address
	BusinessName        string
	Type                CustomerType
	Balance             decimal.Decimal
	OldBalance          decimal.Decimal
	OldBalanceRemaining decimal.Decimal
	CreditLimit         decimal.Decimal
	Status              CustomerStatus
	TotalOrders         int
	TotalPurchases      decimal.Decimal
	LastOrderDate       *time.Time
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// =============================================================================
// ORDER
// =============================================================================

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderCompleted  OrderStatus = "Completed"
	OrderCancelled  OrderStatus = "Cancelled"
)

// PaymentState is an order's settlement state, derived from amountPaid.
type PaymentState string

const (
	PaymentUnpaid  PaymentState = "Unpaid"
	PaymentPartial PaymentState = "Partial"
	PaymentPaid    PaymentState = "Paid"
)

type DeliveryStatus string

const (
	DeliveryNotDispatched DeliveryStatus = "Not Dispatched"
	DeliveryInTransit     DeliveryStatus = "In Transit"
	DeliveryDelivered     DeliveryStatus = "Delivered"
)

// OrderItem is a line-item snapshot captured at order creation. The
// InventoryID is a weak reference kept for restocking on deletion; the rest
// of the fields are frozen copies.
type OrderItem struct {
	InventoryID ItemID
	ItemName    string
	Brand       string
	Unit        string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// Order is a single customer debt. Total is fixed at creation
// (subtotal - discount + tax); AmountPaid only grows as payments are
// allocated. Balance and PaymentStatus are derived, see Finalize.
type Order struct {
	ID              OrderID
	Number          string
	CustomerID      CustomerID
	Items           []OrderItem
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	AmountPaid      decimal.Decimal
	Balance         decimal.Decimal
	Status          OrderStatus
	PaymentStatus   PaymentState
	DeliveryStatus  DeliveryStatus
	DeliveryAddress string
	DeliveryDate    *time.Time
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Finalize recomputes the derived financial fields. Every persist path must
// call it so Balance and PaymentStatus can never drift from Total and
// AmountPaid.
func (o *Order) Finalize() {
	o.Balance = o.Total.Sub(o.AmountPaid)

	switch {
	case o.AmountPaid.IsZero():
		o.PaymentStatus = PaymentUnpaid
	case o.AmountPaid.GreaterThanOrEqual(o.Total):
		o.PaymentStatus = PaymentPaid
	default:
		o.PaymentStatus = PaymentPartial
	}
}

// =============================================================================
// PAYMENT
// =============================================================================

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "Cash"
	MethodBankTransfer PaymentMethod = "Bank Transfer"
	MethodCheque       PaymentMethod = "Cheque"
	MethodPOS          PaymentMethod = "POS"
	MethodMobileMoney  PaymentMethod = "Mobile Money"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusConfirmed PaymentStatus = "Confirmed"
	PaymentStatusFailed    PaymentStatus = "Failed"
	PaymentStatusRefunded  PaymentStatus = "Refunded"
)

// Payment is a discrete credit event. OrderID is a weak reference: it records
// which order the payment targeted, but the payment's lifecycle does not own
// the order's.
type Payment struct {
	ID              PaymentID
	Number          string
	CustomerID      CustomerID
	OrderID         *OrderID
	Amount          decimal.Decimal
	Method          PaymentMethod
	Date            time.Time
	ReferenceNumber string
	BankName        string
	Notes           string
	Status          PaymentStatus
	ReceivedBy      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// =============================================================================
// INVENTORY
// =============================================================================

type StockStatus string

const (
	StockIn  StockStatus = "In Stock"
	StockLow StockStatus = "Low Stock"
	StockOut StockStatus = "Out of Stock"
)

// Supplier identifies where an inventory item is sourced from.
type Supplier struct {
	Name    string
	Contact string
}

// InventoryItem is on-hand stock. Quantity never goes negative: order
// creation decrements it behind a conditional write, order deletion restores
// it. Price or name edits never touch existing order snapshots.
type InventoryItem struct {
	ID           ItemID
	ItemName     string
	Brand        string
	Category     string
	Unit         string
	Quantity     int
	UnitPrice    decimal.Decimal
	ReorderLevel int
	Location     string
	Supplier     Supplier
	Status       StockStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshStatus recomputes the derived stock status from quantity and
// reorder level. Called before every persist.
func (i *InventoryItem) RefreshStatus() {
	switch {
	case i.Quantity == 0:
		i.Status = StockOut
	case i.Quantity <= i.ReorderLevel:
		i.Status = StockLow
	default:
		i.Status = StockIn
	}
}

// =============================================================================
// EXPENSES AND TAXES
// =============================================================================

type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "Pending"
	ExpenseApproved ExpenseStatus = "Approved"
	ExpensePaid     ExpenseStatus = "Paid"
	ExpenseRejected ExpenseStatus = "Rejected"
)

// Expense is an operating cost record. It does not participate in the
// customer ledger; it exists for the dashboard's profitability view.
type Expense struct {
	ID              string
	Number          string
	Category        string
	Description     string
	Amount          decimal.Decimal
	Vendor          Supplier
	Method          PaymentMethod
	Date            time.Time
	ReferenceNumber string
	InvoiceNumber   string
	Status          ExpenseStatus
	TaxDeductible   bool
	Notes           string
	RecordedBy      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type TaxStatus string

const (
	TaxPending       TaxStatus = "Pending"
	TaxPartiallyPaid TaxStatus = "Partially Paid"
	TaxPaid          TaxStatus = "Paid"
	TaxOverdue       TaxStatus = "Overdue"
)

// TaxRecord tracks a tax obligation for a filing period.
type TaxRecord struct {
	ID         string
	Number     string
	TaxType    string
	Period     string
	TaxAmount  decimal.Decimal
	AmountPaid decimal.Decimal
	DueDate    time.Time
	Status     TaxStatus
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RefreshStatus derives the tax status from amounts and due date.
func (t *TaxRecord) RefreshStatus(now time.Time) {
	switch {
	case t.AmountPaid.GreaterThanOrEqual(t.TaxAmount) && t.TaxAmount.IsPositive():
		t.Status = TaxPaid
	case t.AmountPaid.IsPositive():
		t.Status = TaxPartiallyPaid
	case now.After(t.DueDate):
		t.Status = TaxOverdue
	default:
		t.Status = TaxPending
	}
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// MustParseDecimal parses a stored decimal string, falling back to zero for
// malformed input. Storage writes always go through Decimal.String, so a
// parse failure means a hand-edited row.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
