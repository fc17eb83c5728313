/*
customers.go - Customer lifecycle operations

PURPOSE:
  Create, update and delete customers. Creation freezes the pre-system old
  balance; deletion is guarded so a customer with order history can never
  vanish from under their ledger.
*/
package warehouse

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/warehouse-ledger/ledger"
)

// CustomerInput is the payload for creating or updating a customer.
type CustomerInput struct {
	Name         string
	Phone        string
	Email        string
	Address      ledger.Address
	BusinessName string
	Type         ledger.CustomerType
	OldBalance   decimal.Decimal // creation only; never updated afterwards
	CreditLimit  decimal.Decimal
	Status       ledger.CustomerStatus
	Notes        string
}

func (in CustomerInput) validate() error {
	if in.Name == "" {
		return validationErr("name", "is required")
	}
	if in.Phone == "" {
		return validationErr("phone", "is required")
	}
	if in.OldBalance.IsNegative() {
		return validationErr("oldBalance", "cannot be negative")
	}
	if in.CreditLimit.IsNegative() {
		return validationErr("creditLimit", "cannot be negative")
	}
	return nil
}

// CreateCustomer registers a new customer. The old balance is frozen at this
// moment: it weighs into every future wallet recompute but is never edited.
func (o *Orchestrator) CreateCustomer(ctx context.Context, in CustomerInput) (*ledger.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := o.now()
	customer := &ledger.Customer{
		ID:                  ledger.CustomerID(uuid.NewString()),
		Name:                in.Name,
		Phone:               in.Phone,
		Email:               in.Email,
		Address:             in.Address,
		BusinessName:        in.BusinessName,
		Type:                in.Type,
		Balance:             decimal.Zero,
		OldBalance:          in.OldBalance,
		OldBalanceRemaining: in.OldBalance,
		CreditLimit:         in.CreditLimit,
		Status:              in.Status,
		TotalPurchases:      decimal.Zero,
		Notes:               in.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if customer.Type == "" {
		customer.Type = ledger.CustomerRetail
	}
	if customer.Status == "" {
		customer.Status = ledger.CustomerActive
	}

	err := o.store.WithTx(ctx, func(tx ledger.Tx) error {
		return tx.InsertCustomer(ctx, customer)
	})
	if err != nil {
		return nil, err
	}

	o.log.Infow("customer created",
		"customer_id", customer.ID,
		"name", customer.Name,
		"old_balance", customer.OldBalance)
	return customer, nil
}

// UpdateCustomer rewrites a customer's profile fields. Financial state
// (wallet, old balance, counters) is owned by the ledger operations and is
// not editable here.
func (o *Orchestrator) UpdateCustomer(ctx context.Context, id ledger.CustomerID, in CustomerInput) (*ledger.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *ledger.Customer
	err := o.store.WithTx(ctx, func(tx ledger.Tx) error {
		customer, err := tx.GetCustomer(ctx, id)
		if err != nil {
			return err
		}
		if customer == nil {
			return ledger.ErrCustomerNotFound
		}

		customer.Name = in.Name
		customer.Phone = in.Phone
		customer.Email = in.Email
		customer.Address = in.Address
		customer.BusinessName = in.BusinessName
		if in.Type != "" {
			customer.Type = in.Type
		}
		customer.CreditLimit = in.CreditLimit
		if in.Status != "" {
			customer.Status = in.Status
		}
		customer.Notes = in.Notes

		if err := tx.UpdateCustomer(ctx, customer); err != nil {
			return err
		}
		updated = customer
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteCustomer removes a customer with no order history. Customers with
// orders are refused: delete the orders first, or mark the customer
// Inactive. Standalone payments are removed with their owner.
func (o *Orchestrator) DeleteCustomer(ctx context.Context, id ledger.CustomerID) error {
	err := o.store.WithTx(ctx, func(tx ledger.Tx) error {
		customer, err := tx.GetCustomer(ctx, id)
		if err != nil {
			return err
		}
		if customer == nil {
			return ledger.ErrCustomerNotFound
		}

		count, err := tx.CountCustomerOrders(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return ledger.ErrCustomerHasOrders
		}

		payments, err := tx.ListCustomerPayments(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range payments {
			if err := tx.DeletePayment(ctx, p.ID); err != nil {
				return err
			}
		}

		return tx.DeleteCustomer(ctx, id)
	})
	if err != nil {
		return err
	}

	o.log.Infow("customer deleted", "customer_id", id)
	return nil
}
