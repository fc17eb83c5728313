/*
payments.go - Payment recording and deletion

PURPOSE:
  RecordPayment, in one transaction: validate, number the document, spread
  the amount (to a directed order, or oldest-first across open orders),
  insert the payment, recompute the wallet. Any surplus the spread could not
  place is not lost - the closing recompute turns it into wallet credit.

  DeletePayment reverses a standalone payment: if it had been applied to an
  order, that order's amountPaid gives the money back (capped at what the
  order actually absorbed), then the recompute settles the customer.
*/
package warehouse

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/warehouse-ledger/ledger"
)

// PaymentInput is the payload for recording a payment.
type PaymentInput struct {
	CustomerID      ledger.CustomerID
	OrderID         *ledger.OrderID // directed payment when set
	Amount          decimal.Decimal
	Method          ledger.PaymentMethod
	Date            *time.Time // defaults to now
	ReferenceNumber string
	BankName        string
	Notes           string
	Status          ledger.PaymentStatus // defaults to Confirmed
	ReceivedBy      string
}

func (in PaymentInput) validate() error {
	if in.CustomerID == "" {
		return validationErr("customerId", "is required")
	}
	if !in.Amount.IsPositive() {
		return validationErr("amount", "must be positive")
	}
	if in.Method == "" {
		return validationErr("paymentMethod", "is required")
	}
	return nil
}

// RecordPayment registers a credit event for a customer and allocates it.
func (o *Orchestrator) RecordPayment(ctx context.Context, in PaymentInput) (*ledger.Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var payment *ledger.Payment
	err := o.store.WithTx(ctx, func(tx ledger.Tx) error {
		customer, err := tx.GetCustomer(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ledger.ErrCustomerNotFound
		}

		now := o.now()
		number, err := nextNumber(ctx, now, "PAY", tx.LastPaymentNumber)
		if err != nil {
			return err
		}

		if in.OrderID != nil {
			order, err := tx.GetOrder(ctx, *in.OrderID)
			if err != nil {
				return err
			}
			if order == nil {
				return ledger.ErrOrderNotFound
			}
			if order.CustomerID != in.CustomerID {
				return validationErr("orderId", "order belongs to a different customer")
			}

			applied := ledger.AllocateToOrder(in.Amount, *order)
			if applied.IsPositive() {
				order.AmountPaid = order.AmountPaid.Add(applied)
				order.Finalize()
				if err := tx.UpdateOrderFinancials(ctx, order); err != nil {
					return err
				}
			}
		} else {
			open, err := tx.ListOpenOrders(ctx, in.CustomerID)
			if err != nil {
				return err
			}

			allocations, _ := ledger.AllocateOldestFirst(in.Amount, open)
			byID := make(map[ledger.OrderID]decimal.Decimal, len(allocations))
			for _, a := range allocations {
				byID[a.OrderID] = a.Applied
			}
			for i := range open {
				applied, ok := byID[open[i].ID]
				if !ok {
					continue
				}
				open[i].AmountPaid = open[i].AmountPaid.Add(applied)
				open[i].Finalize()
				if err := tx.UpdateOrderFinancials(ctx, &open[i]); err != nil {
					return err
				}
			}
		}

		date := now
		if in.Date != nil {
			date = *in.Date
		}
		status := in.Status
		if status == "" {
			status = ledger.PaymentStatusConfirmed
		}

		payment = &ledger.Payment{
			ID:              ledger.PaymentID(uuid.NewString()),
			Number:          number,
			CustomerID:      in.CustomerID,
			OrderID:         in.OrderID,
			Amount:          in.Amount,
			Method:          in.Method,
			Date:            date,
			ReferenceNumber: in.ReferenceNumber,
			BankName:        in.BankName,
			Notes:           in.Notes,
			Status:          status,
			ReceivedBy:      in.ReceivedBy,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		_, err = o.recomputeWallet(ctx, tx, in.CustomerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.log.Infow("payment recorded",
		"payment", payment.Number,
		"customer_id", payment.CustomerID,
		"amount", payment.Amount,
		"directed", payment.OrderID != nil)
	return payment, nil
}

// DeletePayment removes a payment and gives back what it had applied to its
// order, capped at the order's current amountPaid so later corrections can
// never drive it negative.
func (o *Orchestrator) DeletePayment(ctx context.Context, id ledger.PaymentID) error {
	var customerID ledger.CustomerID
	err := o.store.WithTx(ctx, func(tx ledger.Tx) error {
		payment, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return ledger.ErrPaymentNotFound
		}
		customerID = payment.CustomerID

		if payment.OrderID != nil {
			order, err := tx.GetOrder(ctx, *payment.OrderID)
			if err != nil {
				return err
			}
			// A nil order means it was deleted after this payment; nothing
			// to reverse there.
			if order != nil {
				reversal := decimal.Min(payment.Amount, order.AmountPaid)
				if reversal.IsPositive() {
					order.AmountPaid = order.AmountPaid.Sub(reversal)
					order.Finalize()
					if err := tx.UpdateOrderFinancials(ctx, order); err != nil {
						return err
					}
				}
			}
		}

		if err := tx.DeletePayment(ctx, id); err != nil {
			return err
		}

		_, err = o.recomputeWallet(ctx, tx, customerID)
		return err
	})
	if err != nil {
		return err
	}

	o.log.Infow("payment deleted", "payment_id", id, "customer_id", customerID)
	return nil
}
