/*
customers.go - Customer persistence

PURPOSE:
  Row mapping and queries for the customers table. The Tx methods back the
  orchestrators' transactional work; the Store methods serve the read-only
  listing endpoints.

COLUMN NOTES:
  - balance is the derived wallet; only SetCustomerWallet rewrites it
  - old_balance is frozen at creation and never updated afterwards
  - total_orders / total_purchases / last_order_date are running counters
    maintained by ApplyOrderToCustomer and RemoveOrderFromCustomer
*/
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/warehouse-ledger/ledger"
)

const customerColumns = `id, name, phone, email, street, city, state, country,
	business_name, type, balance, old_balance, old_balance_remaining,
	credit_limit, status, total_orders, total_purchases, last_order_date,
	notes, created_at, updated_at`

func scanCustomer(row scanner) (*ledger.Customer, error) {
	var (
		c                 ledger.Customer
		email, street     sql.NullString
		city, state       sql.NullString
		country, business sql.NullString
		notes             sql.NullString
		balance           string
		oldBalance        string
		oldBalanceRem     string
		creditLimit       string
		totalPurchases    string
		lastOrderDate     sql.NullString
		createdAt         string
		updatedAt         string
	)

	err := row.Scan(
		&c.ID, &c.Name, &c.Phone, &email, &street, &city, &state, &country,
		&business, &c.Type, &balance, &oldBalance, &oldBalanceRem,
		&creditLimit, &c.Status, &c.TotalOrders, &totalPurchases,
		&lastOrderDate, &notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Email = email.String
	c.Address = ledger.Address{
		Street:  street.String,
		City:    city.String,
		State:   state.String,
		Country: country.String,
	}
	c.BusinessName = business.String
	c.Balance = ledger.MustParseDecimal(balance)
	c.OldBalance = ledger.MustParseDecimal(oldBalance)
	c.OldBalanceRemaining = ledger.MustParseDecimal(oldBalanceRem)
	c.CreditLimit = ledger.MustParseDecimal(creditLimit)
	c.TotalPurchases = ledger.MustParseDecimal(totalPurchases)
	c.LastOrderDate = parseNullTime(lastOrderDate)
	c.Notes = notes.String
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)

	return &c, nil
}

func getCustomer(ctx context.Context, db dbtx, id ledger.CustomerID) (*ledger.Customer, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = ?", id)

	c, err := scanCustomer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func insertCustomer(ctx context.Context, db dbtx, c *ledger.Customer) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO customers
		(id, name, phone, email, street, city, state, country, business_name,
		 type, balance, old_balance, old_balance_remaining, credit_limit,
		 status, total_orders, total_purchases, last_order_date, notes,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Phone, nullString(c.Email),
		nullString(c.Address.Street), nullString(c.Address.City),
		nullString(c.Address.State), nullString(c.Address.Country),
		nullString(c.BusinessName), c.Type,
		c.Balance.String(), c.OldBalance.String(),
		c.OldBalanceRemaining.String(), c.CreditLimit.String(),
		c.Status, c.TotalOrders, c.TotalPurchases.String(),
		nullTime(c.LastOrderDate), nullString(c.Notes),
		fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt),
	)
	return err
}

// updateCustomer rewrites the editable profile fields. Financial columns
// (balance, old_balance, counters) have dedicated write paths and are not
// touched here.
func updateCustomer(ctx context.Context, db dbtx, c *ledger.Customer) error {
	_, err := db.ExecContext(ctx, `
		UPDATE customers SET
			name = ?, phone = ?, email = ?, street = ?, city = ?, state = ?,
			country = ?, business_name = ?, type = ?, credit_limit = ?,
			status = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Phone, nullString(c.Email),
		nullString(c.Address.Street), nullString(c.Address.City),
		nullString(c.Address.State), nullString(c.Address.Country),
		nullString(c.BusinessName), c.Type, c.CreditLimit.String(),
		c.Status, nullString(c.Notes), fmtTime(time.Now()),
		c.ID,
	)
	return err
}

// =============================================================================
// TX METHODS (ledger.Tx interface)
// =============================================================================

func (t *Tx) GetCustomer(ctx context.Context, id ledger.CustomerID) (*ledger.Customer, error) {
	return getCustomer(ctx, t.tx, id)
}

func (t *Tx) InsertCustomer(ctx context.Context, c *ledger.Customer) error {
	return insertCustomer(ctx, t.tx, c)
}

func (t *Tx) UpdateCustomer(ctx context.Context, c *ledger.Customer) error {
	return updateCustomer(ctx, t.tx, c)
}

func (t *Tx) DeleteCustomer(ctx context.Context, id ledger.CustomerID) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	return err
}

func (t *Tx) CountCustomerOrders(ctx context.Context, id ledger.CustomerID) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE customer_id = ?", id,
	).Scan(&count)
	return count, err
}

func (t *Tx) SetCustomerWallet(ctx context.Context, id ledger.CustomerID, wallet decimal.Decimal) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE customers SET balance = ?, updated_at = ? WHERE id = ?",
		wallet.String(), fmtTime(time.Now()), id,
	)
	return err
}

func (t *Tx) ApplyOrderToCustomer(ctx context.Context, id ledger.CustomerID, orderTotal decimal.Decimal, placedAt time.Time) error {
	c, err := getCustomer(ctx, t.tx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ledger.ErrCustomerNotFound
	}

	_, err = t.tx.ExecContext(ctx, `
		UPDATE customers SET
			total_orders = total_orders + 1,
			total_purchases = ?,
			last_order_date = ?,
			updated_at = ?
		WHERE id = ?`,
		c.TotalPurchases.Add(orderTotal).String(),
		fmtTime(placedAt), fmtTime(time.Now()), id,
	)
	return err
}

func (t *Tx) RemoveOrderFromCustomer(ctx context.Context, id ledger.CustomerID, orderTotal decimal.Decimal) error {
	c, err := getCustomer(ctx, t.tx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ledger.ErrCustomerNotFound
	}

	purchases := c.TotalPurchases.Sub(orderTotal)
	if purchases.IsNegative() {
		purchases = decimal.Zero
	}

	_, err = t.tx.ExecContext(ctx, `
		UPDATE customers SET
			total_orders = MAX(total_orders - 1, 0),
			total_purchases = ?,
			updated_at = ?
		WHERE id = ?`,
		purchases.String(), fmtTime(time.Now()), id,
	)
	return err
}

// =============================================================================
// STORE READ METHODS (handler-facing)
// =============================================================================

// CustomerFilter narrows ListCustomers. Zero values mean "no filter".
type CustomerFilter struct {
	Search string // matches name, phone or business name
	Status ledger.CustomerStatus
	Type   ledger.CustomerType
}

// GetCustomer returns a customer by id, or nil when absent.
func (s *Store) GetCustomer(ctx context.Context, id ledger.CustomerID) (*ledger.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getCustomer(ctx, s.db, id)
}

// ListCustomers returns customers matching the filter, name-ascending.
func (s *Store) ListCustomers(ctx context.Context, f CustomerFilter) ([]ledger.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + customerColumns + " FROM customers WHERE 1=1"
	var args []any

	if f.Search != "" {
		query += " AND (name LIKE ? OR phone LIKE ? OR business_name LIKE ?)"
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []ledger.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}
