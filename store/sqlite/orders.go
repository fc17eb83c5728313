/*
orders.go - Order and line-item persistence

PURPOSE:
  Row mapping and queries for the orders and order_items tables. An order and
  its line-item snapshots are written together; deleting the order row
  cascades to its items.

QUERY NOTES:
  - ListOpenOrders is the allocation walk's input: balance > 0,
    oldest-created-first, served by idx_orders_customer_created
  - Financial updates and detail updates are separate statements so a status
    edit can never accidentally rewrite amount_paid
*/
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/warp/warehouse-ledger/ledger"
)

const orderColumns = `id, number, customer_id, subtotal, discount, tax, total,
	amount_paid, balance, status, payment_status, delivery_status,
	delivery_address, delivery_date, notes, created_by, created_at, updated_at`

func scanOrder(row scanner) (*ledger.Order, error) {
	var (
		o               ledger.Order
		subtotal        string
		discount        string
		tax             string
		total           string
		amountPaid      string
		balance         string
		deliveryAddress sql.NullString
		deliveryDate    sql.NullString
		notes           sql.NullString
		createdBy       sql.NullString
		createdAt       string
		updatedAt       string
	)

	err := row.Scan(
		&o.ID, &o.Number, &o.CustomerID, &subtotal, &discount, &tax, &total,
		&amountPaid, &balance, &o.Status, &o.PaymentStatus, &o.DeliveryStatus,
		&deliveryAddress, &deliveryDate, &notes, &createdBy,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Subtotal = ledger.MustParseDecimal(subtotal)
	o.Discount = ledger.MustParseDecimal(discount)
	o.Tax = ledger.MustParseDecimal(tax)
	o.Total = ledger.MustParseDecimal(total)
	o.AmountPaid = ledger.MustParseDecimal(amountPaid)
	o.Balance = ledger.MustParseDecimal(balance)
	o.DeliveryAddress = deliveryAddress.String
	o.DeliveryDate = parseNullTime(deliveryDate)
	o.Notes = notes.String
	o.CreatedBy = createdBy.String
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)

	return &o, nil
}

func loadOrderItems(ctx context.Context, db dbtx, id ledger.OrderID) ([]ledger.OrderItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT inventory_id, item_name, brand, unit, quantity, unit_price, total_price
		FROM order_items WHERE order_id = ? ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ledger.OrderItem
	for rows.Next() {
		var (
			item       ledger.OrderItem
			unitPrice  string
			totalPrice string
		)
		if err := rows.Scan(&item.InventoryID, &item.ItemName, &item.Brand,
			&item.Unit, &item.Quantity, &unitPrice, &totalPrice); err != nil {
			return nil, err
		}
		item.UnitPrice = ledger.MustParseDecimal(unitPrice)
		item.TotalPrice = ledger.MustParseDecimal(totalPrice)
		items = append(items, item)
	}
	return items, rows.Err()
}

func getOrder(ctx context.Context, db dbtx, id ledger.OrderID) (*ledger.Order, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = ?", id)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	o.Items, err = loadOrderItems(ctx, db, id)
	return o, err
}

func queryOrders(ctx context.Context, db dbtx, query string, args ...any) ([]ledger.Order, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []ledger.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// =============================================================================
// TX METHODS (ledger.Tx interface)
// =============================================================================

func (t *Tx) GetOrder(ctx context.Context, id ledger.OrderID) (*ledger.Order, error) {
	return getOrder(ctx, t.tx, id)
}

func (t *Tx) InsertOrder(ctx context.Context, o *ledger.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders
		(id, number, customer_id, subtotal, discount, tax, total, amount_paid,
		 balance, status, payment_status, delivery_status, delivery_address,
		 delivery_date, notes, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Number, o.CustomerID,
		o.Subtotal.String(), o.Discount.String(), o.Tax.String(),
		o.Total.String(), o.AmountPaid.String(), o.Balance.String(),
		o.Status, o.PaymentStatus, o.DeliveryStatus,
		nullString(o.DeliveryAddress), nullTime(o.DeliveryDate),
		nullString(o.Notes), nullString(o.CreatedBy),
		fmtTime(o.CreatedAt), fmtTime(o.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateNumber
		}
		return err
	}

	for _, item := range o.Items {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO order_items
			(order_id, inventory_id, item_name, brand, unit, quantity, unit_price, total_price)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, item.InventoryID, item.ItemName, item.Brand, item.Unit,
			item.Quantity, item.UnitPrice.String(), item.TotalPrice.String(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateOrderFinancials persists amount_paid and the fields derived from it.
// Callers must have run Finalize() first.
func (t *Tx) UpdateOrderFinancials(ctx context.Context, o *ledger.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE orders SET
			amount_paid = ?, balance = ?, payment_status = ?, updated_at = ?
		WHERE id = ?`,
		o.AmountPaid.String(), o.Balance.String(), o.PaymentStatus,
		fmtTime(time.Now()), o.ID,
	)
	return err
}

// UpdateOrderDetails persists the non-financial, operator-editable fields.
func (t *Tx) UpdateOrderDetails(ctx context.Context, o *ledger.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE orders SET
			status = ?, delivery_status = ?, delivery_address = ?,
			delivery_date = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		o.Status, o.DeliveryStatus, nullString(o.DeliveryAddress),
		nullTime(o.DeliveryDate), nullString(o.Notes),
		fmtTime(time.Now()), o.ID,
	)
	return err
}

func (t *Tx) DeleteOrder(ctx context.Context, id ledger.OrderID) error {
	// order_items go with it via ON DELETE CASCADE
	_, err := t.tx.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	return err
}

func (t *Tx) ListCustomerOrders(ctx context.Context, id ledger.CustomerID) ([]ledger.Order, error) {
	return queryOrders(ctx, t.tx,
		"SELECT "+orderColumns+" FROM orders WHERE customer_id = ? ORDER BY created_at ASC",
		id)
}

func (t *Tx) ListOpenOrders(ctx context.Context, id ledger.CustomerID) ([]ledger.Order, error) {
	return queryOrders(ctx, t.tx,
		"SELECT "+orderColumns+` FROM orders
		 WHERE customer_id = ? AND CAST(balance AS REAL) > 0
		 ORDER BY created_at ASC`,
		id)
}

func (t *Tx) LastOrderNumber(ctx context.Context, prefix string) (string, error) {
	return lastNumber(ctx, t.tx, "orders", prefix)
}

// =============================================================================
// STORE READ METHODS (handler-facing)
// =============================================================================

// OrderFilter narrows ListOrders. Zero values mean "no filter".
type OrderFilter struct {
	CustomerID    ledger.CustomerID
	Status        ledger.OrderStatus
	PaymentStatus ledger.PaymentState
}

// GetOrder returns an order with its line items, or nil when absent.
func (s *Store) GetOrder(ctx context.Context, id ledger.OrderID) (*ledger.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getOrder(ctx, s.db, id)
}

// ListOrders returns orders matching the filter, newest first, without line
// items.
func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]ledger.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + orderColumns + " FROM orders WHERE 1=1"
	var args []any

	if f.CustomerID != "" {
		query += " AND customer_id = ?"
		args = append(args, f.CustomerID)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.PaymentStatus != "" {
		query += " AND payment_status = ?"
		args = append(args, f.PaymentStatus)
	}
	query += " ORDER BY created_at DESC"

	return queryOrders(ctx, s.db, query, args...)
}

// ListCustomerOrders returns a customer's orders oldest first, for statement
// assembly.
func (s *Store) ListCustomerOrders(ctx context.Context, id ledger.CustomerID) ([]ledger.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryOrders(ctx, s.db,
		"SELECT "+orderColumns+" FROM orders WHERE customer_id = ? ORDER BY created_at ASC",
		id)
}
