/*
finance.go - Expense and tax persistence

PURPOSE:
  Row mapping and queries for the expenses and taxes tables. Neither table
  participates in the customer ledger; they feed the dashboard's
  profitability view and the tax obligation tracker.
*/
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/warp/warehouse-ledger/ledger"
)

const expenseColumns = `id, number, category, description, amount,
	vendor_name, vendor_contact, method, date, reference_number,
	invoice_number, status, tax_deductible, notes, recorded_by,
	created_at, updated_at`

const taxColumns = `id, number, tax_type, period, tax_amount, amount_paid,
	due_date, status, notes, created_at, updated_at`

func scanExpense(row scanner) (*ledger.Expense, error) {
	var (
		e              ledger.Expense
		description    sql.NullString
		amount         string
		vendorName     sql.NullString
		vendorContact  sql.NullString
		date           string
		reference      sql.NullString
		invoice        sql.NullString
		notes          sql.NullString
		recordedBy     sql.NullString
		createdAt      string
		updatedAt      string
	)

	err := row.Scan(
		&e.ID, &e.Number, &e.Category, &description, &amount, &vendorName,
		&vendorContact, &e.Method, &date, &reference, &invoice, &e.Status,
		&e.TaxDeductible, &notes, &recordedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Description = description.String
	e.Amount = ledger.MustParseDecimal(amount)
	e.Vendor = ledger.Supplier{Name: vendorName.String, Contact: vendorContact.String}
	e.Date = parseTime(date)
	e.ReferenceNumber = reference.String
	e.InvoiceNumber = invoice.String
	e.Notes = notes.String
	e.RecordedBy = recordedBy.String
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)

	return &e, nil
}

func scanTax(row scanner) (*ledger.TaxRecord, error) {
	var (
		rec        ledger.TaxRecord
		taxAmount  string
		amountPaid string
		dueDate    string
		notes      sql.NullString
		createdAt  string
		updatedAt  string
	)

	err := row.Scan(
		&rec.ID, &rec.Number, &rec.TaxType, &rec.Period, &taxAmount,
		&amountPaid, &dueDate, &rec.Status, &notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.TaxAmount = ledger.MustParseDecimal(taxAmount)
	rec.AmountPaid = ledger.MustParseDecimal(amountPaid)
	rec.DueDate = parseTime(dueDate)
	rec.Notes = notes.String
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)

	return &rec, nil
}

func insertExpense(ctx context.Context, db dbtx, e *ledger.Expense) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO expenses
		(id, number, category, description, amount, vendor_name,
		 vendor_contact, method, date, reference_number, invoice_number,
		 status, tax_deductible, notes, recorded_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Number, e.Category, nullString(e.Description),
		e.Amount.String(), nullString(e.Vendor.Name),
		nullString(e.Vendor.Contact), e.Method, fmtTime(e.Date),
		nullString(e.ReferenceNumber), nullString(e.InvoiceNumber), e.Status,
		e.TaxDeductible, nullString(e.Notes), nullString(e.RecordedBy),
		fmtTime(e.CreatedAt), fmtTime(e.UpdatedAt),
	)
	if isUniqueConstraintError(err) {
		return ledger.ErrDuplicateNumber
	}
	return err
}

func insertTax(ctx context.Context, db dbtx, rec *ledger.TaxRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO taxes
		(id, number, tax_type, period, tax_amount, amount_paid, due_date,
		 status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Number, rec.TaxType, rec.Period, rec.TaxAmount.String(),
		rec.AmountPaid.String(), fmtTime(rec.DueDate), rec.Status,
		nullString(rec.Notes), fmtTime(rec.CreatedAt), fmtTime(rec.UpdatedAt),
	)
	if isUniqueConstraintError(err) {
		return ledger.ErrDuplicateNumber
	}
	return err
}

func getTax(ctx context.Context, db dbtx, id string) (*ledger.TaxRecord, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+taxColumns+" FROM taxes WHERE id = ?", id)

	rec, err := scanTax(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func updateTax(ctx context.Context, db dbtx, rec *ledger.TaxRecord) error {
	_, err := db.ExecContext(ctx, `
		UPDATE taxes SET
			tax_amount = ?, amount_paid = ?, due_date = ?, status = ?,
			notes = ?, updated_at = ?
		WHERE id = ?`,
		rec.TaxAmount.String(), rec.AmountPaid.String(),
		fmtTime(rec.DueDate), rec.Status, nullString(rec.Notes),
		fmtTime(time.Now()), rec.ID,
	)
	return err
}

// =============================================================================
// TX METHODS (ledger.Tx interface)
// =============================================================================

func (t *Tx) InsertExpense(ctx context.Context, e *ledger.Expense) error {
	return insertExpense(ctx, t.tx, e)
}

func (t *Tx) LastExpenseNumber(ctx context.Context, prefix string) (string, error) {
	return lastNumber(ctx, t.tx, "expenses", prefix)
}

func (t *Tx) InsertTax(ctx context.Context, rec *ledger.TaxRecord) error {
	return insertTax(ctx, t.tx, rec)
}

func (t *Tx) GetTax(ctx context.Context, id string) (*ledger.TaxRecord, error) {
	return getTax(ctx, t.tx, id)
}

func (t *Tx) UpdateTax(ctx context.Context, rec *ledger.TaxRecord) error {
	return updateTax(ctx, t.tx, rec)
}

func (t *Tx) LastTaxNumber(ctx context.Context, prefix string) (string, error) {
	return lastNumber(ctx, t.tx, "taxes", prefix)
}

// =============================================================================
// STORE READ METHODS (handler-facing)
// =============================================================================

// ExpenseFilter narrows ListExpenses. Zero values mean "no filter".
type ExpenseFilter struct {
	Category string
	Status   ledger.ExpenseStatus
}

// ListExpenses returns expenses matching the filter, newest first.
func (s *Store) ListExpenses(ctx context.Context, f ExpenseFilter) ([]ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + expenseColumns + " FROM expenses WHERE 1=1"
	var args []any

	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []ledger.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// GetExpense returns an expense by id, or nil when absent.
func (s *Store) GetExpense(ctx context.Context, id string) (*ledger.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)

	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// DeleteExpense removes an expense.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrExpenseNotFound
	}
	return nil
}

// GetTax returns a tax record by id, or nil when absent.
func (s *Store) GetTax(ctx context.Context, id string) (*ledger.TaxRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getTax(ctx, s.db, id)
}

// ListTaxes returns tax records, soonest due first.
func (s *Store) ListTaxes(ctx context.Context, status ledger.TaxStatus) ([]ledger.TaxRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + taxColumns + " FROM taxes"
	var args []any

	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY due_date ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var taxes []ledger.TaxRecord
	for rows.Next() {
		rec, err := scanTax(rows)
		if err != nil {
			return nil, err
		}
		taxes = append(taxes, *rec)
	}
	return taxes, rows.Err()
}
