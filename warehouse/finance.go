/*
finance.go - Expense and tax operations

PURPOSE:
  Records operating expenses and tax obligations. These do not touch the
  customer ledger; they get document numbers (EXP-, TAX-) from the same
  monthly sequence scheme and feed the dashboard.
*/
package warehouse

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/warehouse-ledger/ledger"
)

// ExpenseInput is the payload for recording an expense.
type ExpenseInput struct {
	Category        string
	Description     string
	Amount          decimal.Decimal
	Vendor          ledger.Supplier
	Method          ledger.PaymentMethod
	Date            *time.Time // defaults to now
	ReferenceNumber string
	InvoiceNumber   string
	Status          ledger.ExpenseStatus // defaults to Pending
	TaxDeductible   bool
	Notes           string
	RecordedBy      string
}

func (in ExpenseInput) validate() error {
	if in.Category == "" {
		return validationErr("category", "is required")
	}
	if !in.Amount.IsPositive() {
		return validationErr("amount", "must be positive")
	}
	if in.Method == "" {
		return validationErr("paymentMethod", "is required")
	}
	return nil
}

// RecordExpense registers an operating expense.
func (o *Orchestrator) RecordExpense(ctx context.Context, in ExpenseInput) (*ledger.Expense, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var expense *ledger.Expense
	err := o.store.WithTx(ctx, func(tx ledger.Tx) error {
		now := o.now()
		number, err := nextNumber(ctx, now, "EXP", tx.LastExpenseNumber)
		if err != nil {
			return err
		}

		date := now
		if in.Date != nil {
			date = *in.Date
		}
		status := in.Status
		if status == "" {
			status = ledger.ExpensePending
		}

		expense = &ledger.Expense{
			ID:              uuid.NewString(),
			Number:          number,
			Category:        in.Category,
			Description:     in.Description,
			Amount:          in.Amount,
			Vendor:          in.Vendor,
			Method:          in.Method,
			Date:            date,
			ReferenceNumber: in.ReferenceNumber,
			InvoiceNumber:   in.InvoiceNumber,
			Status:          status,
			TaxDeductible:   in.TaxDeductible,
			Notes:           in.Notes,
			RecordedBy:      in.RecordedBy,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		return tx.InsertExpense(ctx, expense)
	})
	if err != nil {
		return nil, err
	}

	o.log.Infow("expense recorded",
		"expense", expense.Number,
		"category", expense.Category,
		"amount", expense.Amount)
	return expense, nil
}

// TaxInput is the payload for registering a tax obligation.
type TaxInput struct {
	TaxType   string
	Period    string
	TaxAmount decimal.Decimal
	DueDate   time.Time
	Notes     string
}

func (in TaxInput) validate() error {
	if in.TaxType == "" {
		return validationErr("taxType", "is required")
	}
	if in.Period == "" {
		return validationErr("period", "is required")
	}
	if !in.TaxAmount.IsPositive() {
		return validationErr("taxAmount", "must be positive")
	}
	if in.DueDate.IsZero() {
		return validationErr("dueDate", "is required")
	}
	return nil
}

// RecordTax registers a tax obligation for a filing period.
func (o *Orchestrator) RecordTax(ctx context.Context, in TaxInput) (*ledger.TaxRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var record *ledger.TaxRecord
	err := o.store.WithTx(ctx, func(tx ledger.Tx) error {
		now := o.now()
		number, err := nextNumber(ctx, now, "TAX", tx.LastTaxNumber)
		if err != nil {
			return err
		}

		record = &ledger.TaxRecord{
			ID:         uuid.NewString(),
			Number:     number,
			TaxType:    in.TaxType,
			Period:     in.Period,
			TaxAmount:  in.TaxAmount,
			AmountPaid: decimal.Zero,
			DueDate:    in.DueDate,
			Notes:      in.Notes,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		record.RefreshStatus(now)
		return tx.InsertTax(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	o.log.Infow("tax recorded",
		"tax", record.Number,
		"type", record.TaxType,
		"period", record.Period,
		"amount", record.TaxAmount)
	return record, nil
}

// PayTax applies a payment against a tax obligation and re-derives its
// status.
func (o *Orchestrator) PayTax(ctx context.Context, id string, amount decimal.Decimal) (*ledger.TaxRecord, error) {
	if !amount.IsPositive() {
		return nil, validationErr("amount", "must be positive")
	}

	var record *ledger.TaxRecord
	err := o.store.WithTx(ctx, func(tx ledger.Tx) error {
		rec, err := tx.GetTax(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return ledger.ErrTaxNotFound
		}

		rec.AmountPaid = rec.AmountPaid.Add(amount)
		rec.RefreshStatus(o.now())
		if err := tx.UpdateTax(ctx, rec); err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.log.Infow("tax payment applied",
		"tax", record.Number,
		"paid", amount,
		"status", record.Status)
	return record, nil
}
