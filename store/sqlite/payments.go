/*
payments.go - Payment persistence

PURPOSE:
  Row mapping and queries for the payments table. order_id is a weak
  reference stored as a nullable column: deleting an order removes its
  payments explicitly (DeleteOrderPayments) inside the same transaction, and
  deleting a payment never deletes the order it pointed at.
*/
package sqlite

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"github.com/warp/warehouse-ledger/ledger"
)

const paymentColumns = `id, number, customer_id, order_id, amount, method,
	date, reference_number, bank_name, notes, status, received_by,
	created_at, updated_at`

func scanPayment(row scanner) (*ledger.Payment, error) {
	var (
		p         ledger.Payment
		orderID   sql.NullString
		amount    string
		date      string
		reference sql.NullString
		bankName  sql.NullString
		notes     sql.NullString
		received  sql.NullString
		createdAt string
		updatedAt string
	)

	err := row.Scan(
		&p.ID, &p.Number, &p.CustomerID, &orderID, &amount, &p.Method,
		&date, &reference, &bankName, &notes, &p.Status, &received,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if orderID.Valid {
		id := ledger.OrderID(orderID.String)
		p.OrderID = &id
	}
	p.Amount = ledger.MustParseDecimal(amount)
	p.Date = parseTime(date)
	p.ReferenceNumber = reference.String
	p.BankName = bankName.String
	p.Notes = notes.String
	p.ReceivedBy = received.String
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)

	return &p, nil
}

func queryPayments(ctx context.Context, db dbtx, query string, args ...any) ([]ledger.Payment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []ledger.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// =============================================================================
// TX METHODS (ledger.Tx interface)
// =============================================================================

func (t *Tx) GetPayment(ctx context.Context, id ledger.PaymentID) (*ledger.Payment, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id = ?", id)

	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (t *Tx) InsertPayment(ctx context.Context, p *ledger.Payment) error {
	var orderID any
	if p.OrderID != nil {
		orderID = string(*p.OrderID)
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO payments
		(id, number, customer_id, order_id, amount, method, date,
		 reference_number, bank_name, notes, status, received_by,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Number, p.CustomerID, orderID, p.Amount.String(), p.Method,
		fmtTime(p.Date), nullString(p.ReferenceNumber),
		nullString(p.BankName), nullString(p.Notes), p.Status,
		nullString(p.ReceivedBy), fmtTime(p.CreatedAt), fmtTime(p.UpdatedAt),
	)
	if isUniqueConstraintError(err) {
		return ledger.ErrDuplicateNumber
	}
	return err
}

func (t *Tx) DeletePayment(ctx context.Context, id ledger.PaymentID) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id)
	return err
}

// DeleteOrderPayments removes every payment referencing the order and reports
// the count and summed amount, which the caller logs.
func (t *Tx) DeleteOrderPayments(ctx context.Context, id ledger.OrderID) (int, decimal.Decimal, error) {
	payments, err := queryPayments(ctx, t.tx,
		"SELECT "+paymentColumns+" FROM payments WHERE order_id = ?", id)
	if err != nil {
		return 0, decimal.Zero, err
	}

	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}

	if _, err := t.tx.ExecContext(ctx,
		"DELETE FROM payments WHERE order_id = ?", id); err != nil {
		return 0, decimal.Zero, err
	}

	return len(payments), total, nil
}

func (t *Tx) ListCustomerPayments(ctx context.Context, id ledger.CustomerID) ([]ledger.Payment, error) {
	return queryPayments(ctx, t.tx,
		"SELECT "+paymentColumns+" FROM payments WHERE customer_id = ? ORDER BY date ASC",
		id)
}

func (t *Tx) LastPaymentNumber(ctx context.Context, prefix string) (string, error) {
	return lastNumber(ctx, t.tx, "payments", prefix)
}

// =============================================================================
// STORE READ METHODS (handler-facing)
// =============================================================================

// PaymentFilter narrows ListPayments. Zero values mean "no filter".
type PaymentFilter struct {
	CustomerID ledger.CustomerID
	OrderID    ledger.OrderID
	Status     ledger.PaymentStatus
}

// GetPayment returns a payment by id, or nil when absent.
func (s *Store) GetPayment(ctx context.Context, id ledger.PaymentID) (*ledger.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id = ?", id)

	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListPayments returns payments matching the filter, newest first.
func (s *Store) ListPayments(ctx context.Context, f PaymentFilter) ([]ledger.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + paymentColumns + " FROM payments WHERE 1=1"
	var args []any

	if f.CustomerID != "" {
		query += " AND customer_id = ?"
		args = append(args, f.CustomerID)
	}
	if f.OrderID != "" {
		query += " AND order_id = ?"
		args = append(args, f.OrderID)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY date DESC"

	return queryPayments(ctx, s.db, query, args...)
}

// ListCustomerPayments returns a customer's payments oldest first, for
// statement assembly.
func (s *Store) ListCustomerPayments(ctx context.Context, id ledger.CustomerID) ([]ledger.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryPayments(ctx, s.db,
		"SELECT "+paymentColumns+" FROM payments WHERE customer_id = ? ORDER BY date ASC",
		id)
}
