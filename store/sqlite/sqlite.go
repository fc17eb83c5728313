/*
Package sqlite provides the SQLite-backed implementation of the ledger storage
interfaces.

PURPOSE:
  Implements ledger.Store and ledger.Tx using SQLite, plus the read-side
  queries the HTTP handlers use for listings, statements and the dashboard.

INTERFACES IMPLEMENTED:
  ledger.Store: WithTx transaction entry point
  ledger.Tx:    all reads/writes available inside a transaction

KEY TABLES:
  customers:   wallet balance, frozen old balance, running counters
  orders:      customer debts with derived balance/payment_status columns
  order_items: line-item snapshots, cascade-deleted with their order
  payments:    credit events; order_id is a weak reference
  inventory:   on-hand stock with CHECK(quantity >= 0)
  expenses:    operating costs (dashboard only)
  taxes:       tax obligations with derived status

STOCK SAFETY:
  DeductStock is a single conditional UPDATE guarded by "quantity >= ?" and
  backed by the CHECK constraint. Two concurrent orders for the last unit
  cannot both succeed: the check and the decrement are one statement.

CONCURRENCY:
  A sync.RWMutex serializes writers; SQLite is opened in WAL mode so readers
  do not block. All queries issued inside WithTx go directly through the
  *sql.Tx and never touch the mutex, so a transaction can freely call any
  Tx method without re-entering the lock it already holds.

USAGE:
  store, err := sqlite.New("./data/warehouse.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: interface definitions and the atomicity contract
  - warehouse: orchestrators that run their operations through WithTx
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/warehouse-ledger/ledger"
)

// Store implements ledger.Store plus the handler-facing read queries.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite allows a single writer, and with :memory: every
	// pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Customers
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT,
		street TEXT,
		city TEXT,
		state TEXT,
		country TEXT,
		business_name TEXT,
		type TEXT NOT NULL,
		balance TEXT NOT NULL,
		old_balance TEXT NOT NULL,
		old_balance_remaining TEXT NOT NULL,
		credit_limit TEXT NOT NULL,
		status TEXT NOT NULL,
		total_orders INTEGER NOT NULL DEFAULT 0,
		total_purchases TEXT NOT NULL,
		last_order_date TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_customers_status ON customers(status);
	CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name);

	-- Inventory (quantity can never go negative; the decrement is guarded
	-- both by the conditional UPDATE and by this constraint)
	CREATE TABLE IF NOT EXISTS inventory (
		id TEXT PRIMARY KEY,
		item_name TEXT NOT NULL,
		brand TEXT NOT NULL,
		category TEXT,
		unit TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK(quantity >= 0),
		unit_price TEXT NOT NULL,
		reorder_level INTEGER NOT NULL DEFAULT 0,
		location TEXT,
		supplier_name TEXT,
		supplier_contact TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_inventory_status ON inventory(status);

	-- Orders
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		subtotal TEXT NOT NULL,
		discount TEXT NOT NULL,
		tax TEXT NOT NULL,
		total TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		balance TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		delivery_status TEXT NOT NULL,
		delivery_address TEXT,
		delivery_date TEXT,
		notes TEXT,
		created_by TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
	-- Hot path: open-order walks are oldest-created-first per customer
	CREATE INDEX IF NOT EXISTS idx_orders_customer_created
		ON orders(customer_id, created_at ASC);

	-- Line-item snapshots, owned by their order
	CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		inventory_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		brand TEXT NOT NULL,
		unit TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		total_price TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

	-- Payments (order_id is a weak reference: order deletion removes its
	-- payments explicitly inside the same transaction, not via cascade)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		customer_id TEXT NOT NULL REFERENCES customers(id),
		order_id TEXT,
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		date TEXT NOT NULL,
		reference_number TEXT,
		bank_name TEXT,
		notes TEXT,
		status TEXT NOT NULL,
		received_by TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_customer ON payments(customer_id);
	CREATE INDEX IF NOT EXISTS idx_payments_order
		ON payments(order_id) WHERE order_id IS NOT NULL;

	-- Expenses
	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		vendor_name TEXT,
		vendor_contact TEXT,
		method TEXT NOT NULL,
		date TEXT NOT NULL,
		reference_number TEXT,
		invoice_number TEXT,
		status TEXT NOT NULL,
		tax_deductible BOOLEAN NOT NULL DEFAULT FALSE,
		notes TEXT,
		recorded_by TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_category ON expenses(category);

	-- Taxes
	CREATE TABLE IF NOT EXISTS taxes (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		tax_type TEXT NOT NULL,
		period TEXT NOT NULL,
		tax_amount TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		due_date TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_taxes_status ON taxes(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONS (ledger.Store interface)
// =============================================================================

// WithTx executes fn within a database transaction. All queries fn issues
// through the provided ledger.Tx run on the same *sql.Tx; the writer mutex is
// held for the duration and never re-acquired inside.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// Tx implements ledger.Tx over a live *sql.Tx.
type Tx struct {
	tx *sql.Tx
}

// dbtx is the common surface of *sql.DB and *sql.Tx, so the query helpers in
// this package serve both the Store read path and the Tx write path.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// HELPERS
// =============================================================================

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// lastNumber returns the highest document number with the given prefix, or ""
// when none exists. Numbers share a fixed-width suffix, so lexical DESC order
// is numeric order.
func lastNumber(ctx context.Context, db dbtx, table, prefix string) (string, error) {
	var number string
	err := db.QueryRowContext(ctx,
		"SELECT number FROM "+table+" WHERE number LIKE ? ORDER BY number DESC LIMIT 1",
		prefix+"%",
	).Scan(&number)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return number, nil
}
