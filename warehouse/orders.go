/*
orders.go - Order creation, update and deletion

PURPOSE:
  The two heavyweight ledger operations live here.

  CreateOrder, in one transaction:
    1. snapshot each line from live inventory (name, brand, unit, price)
    2. price the order: subtotal - discount + tax
    3. auto-apply wallet credit to the new order's amountPaid
    4. insert the order, then conditionally deduct stock per line
    5. bump the customer's counters and recompute the wallet

  Any failure - unknown item, stock shortfall - aborts the whole thing.
  There is no partial order and no lost stock.

  DeleteOrder is the full reversal, also in one transaction: restock every
  line, delete the order's payments, reverse the counters, delete the order,
  recompute the wallet. Money the deleted payments represented simply leaves
  the history; the recompute settles whatever remains.
*/
package warehouse

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/warehouse-ledger/ledger"
)

// OrderLineInput is one requested line of a new order. Pricing and
// descriptions come from live inventory at creation time, not from the
// caller.
type OrderLineInput struct {
	InventoryID ledger.ItemID
	Quantity    int
}

// OrderInput is the payload for creating an order.
type OrderInput struct {
	CustomerID      ledger.CustomerID
	Lines           []OrderLineInput
	Discount        decimal.Decimal
	Tax             decimal.Decimal
	DeliveryAddress string
	DeliveryDate    *time.Time
	Notes           string
	CreatedBy       string
}

func (in OrderInput) validate() error {
	if in.CustomerID == "" {
		return validationErr("customerId", "is required")
	}
	if len(in.Lines) == 0 {
		return validationErr("items", "at least one item is required")
	}
	for _, line := range in.Lines {
		if line.InventoryID == "" {
			return validationErr("items", "inventory id is required")
		}
		if line.Quantity <= 0 {
			return validationErr("items", "quantity must be positive")
		}
	}
	if in.Discount.IsNegative() {
		return validationErr("discount", "cannot be negative")
	}
	if in.Tax.IsNegative() {
		return validationErr("tax", "cannot be negative")
	}
	return nil
}

// CreateOrder places an order for a customer. Wallet credit is applied to
// the new order immediately: amountPaid starts at min(wallet, total), then
// the closing recompute re-derives the wallet from the updated history.
func (o *Orchestrator) CreateOrder(ctx context.Context, in OrderInput) (*ledger.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var order *ledger.Order
	err := o.store.WithTx(ctx, func(tx ledger.Tx) error {
		customer, err := tx.GetCustomer(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ledger.ErrCustomerNotFound
		}

		now := o.now()
		number, err := nextNumber(ctx, now, "ORD", tx.LastOrderNumber)
		if err != nil {
			return err
		}

		// Snapshot every line before touching stock, so a later failure
		// leaves nothing to unwind.
		items := make([]ledger.OrderItem, 0, len(in.Lines))
		subtotal := decimal.Zero
		for _, line := range in.Lines {
			item, err := tx.GetItem(ctx, line.InventoryID)
			if err != nil {
				return err
			}
			if item == nil {
				return ledger.ErrItemNotFound
			}

			lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			items = append(items, ledger.OrderItem{
				InventoryID: item.ID,
				ItemName:    item.ItemName,
				Brand:       item.Brand,
				Unit:        item.Unit,
				Quantity:    line.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalPrice:  lineTotal,
			})
			subtotal = subtotal.Add(lineTotal)
		}

		total := subtotal.Sub(in.Discount).Add(in.Tax)
		if total.IsNegative() {
			return validationErr("discount", "exceeds order subtotal")
		}

		order = &ledger.Order{
			ID:              ledger.OrderID(uuid.NewString()),
			Number:          number,
			CustomerID:      in.CustomerID,
			Items:           items,
			Subtotal:        subtotal,
			Discount:        in.Discount,
			Tax:             in.Tax,
			Total:           total,
			AmountPaid:      decimal.Min(customer.Balance, total),
			Status:          ledger.OrderPending,
			DeliveryStatus:  ledger.DeliveryNotDispatched,
			DeliveryAddress: in.DeliveryAddress,
			DeliveryDate:    in.DeliveryDate,
			Notes:           in.Notes,
			CreatedBy:       in.CreatedBy,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		order.Finalize()

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		for _, item := range items {
			if err := tx.DeductStock(ctx, item.InventoryID, item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.ApplyOrderToCustomer(ctx, in.CustomerID, total, now); err != nil {
			return err
		}

		_, err = o.recomputeWallet(ctx, tx, in.CustomerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.log.Infow("order created",
		"order", order.Number,
		"customer_id", order.CustomerID,
		"total", order.Total,
		"wallet_applied", order.AmountPaid)
	return order, nil
}

// OrderDetailsInput is the payload for the operator-editable order fields.
// Financial fields are deliberately absent: money only moves through
// payments and deletion.
type OrderDetailsInput struct {
	Status          ledger.OrderStatus
	DeliveryStatus  ledger.DeliveryStatus
	DeliveryAddress string
	DeliveryDate    *time.Time
	Notes           string
}

// UpdateOrderDetails updates an order's workflow fields.
func (o *Orchestrator) UpdateOrderDetails(ctx context.Context, id ledger.OrderID, in OrderDetailsInput) (*ledger.Order, error) {
	var updated *ledger.Order
	err := o.store.WithTx(ctx, func(tx ledger.Tx) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return ledger.ErrOrderNotFound
		}

		if in.Status != "" {
			order.Status = in.Status
		}
		if in.DeliveryStatus != "" {
			order.DeliveryStatus = in.DeliveryStatus
		}
		if in.DeliveryAddress != "" {
			order.DeliveryAddress = in.DeliveryAddress
		}
		if in.DeliveryDate != nil {
			order.DeliveryDate = in.DeliveryDate
		}
		if in.Notes != "" {
			order.Notes = in.Notes
		}

		if err := tx.UpdateOrderDetails(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteOrderResult reports what the reversal undid.
type DeleteOrderResult struct {
	Order               *ledger.Order
	RestockedLines      int
	DeletedPayments     int
	DeletedPaymentTotal decimal.Decimal
	Wallet              decimal.Decimal
}

// DeleteOrder reverses an order completely: stock back on the shelf, the
// order's payments gone, customer counters unwound, wallet recomputed from
// what remains.
func (o *Orchestrator) DeleteOrder(ctx context.Context, id ledger.OrderID) (*DeleteOrderResult, error) {
	var result DeleteOrderResult
	err := o.store.WithTx(ctx, func(tx ledger.Tx) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return ledger.ErrOrderNotFound
		}

		for _, item := range order.Items {
			if err := tx.RestoreStock(ctx, item.InventoryID, item.Quantity); err != nil {
				return err
			}
		}

		deleted, total, err := tx.DeleteOrderPayments(ctx, id)
		if err != nil {
			return err
		}

		if err := tx.RemoveOrderFromCustomer(ctx, order.CustomerID, order.Total); err != nil {
			return err
		}

		if err := tx.DeleteOrder(ctx, id); err != nil {
			return err
		}

		wallet, err := o.recomputeWallet(ctx, tx, order.CustomerID)
		if err != nil {
			return err
		}

		result = DeleteOrderResult{
			Order:               order,
			RestockedLines:      len(order.Items),
			DeletedPayments:     deleted,
			DeletedPaymentTotal: total,
			Wallet:              wallet,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.log.Infow("order deleted",
		"order", result.Order.Number,
		"customer_id", result.Order.CustomerID,
		"restocked_lines", result.RestockedLines,
		"deleted_payments", result.DeletedPayments)
	return &result, nil
}
