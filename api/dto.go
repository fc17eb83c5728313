/*
dto.go - Request and response shapes for the HTTP API

PURPOSE:
  JSON-facing structs and their converters. Every response travels in the
  same envelope:

    {"success": true,  "data": ...}
    {"success": false, "message": "..."}

  Money fields serialize as decimal strings (shopspring default), never as
  binary floats.

SEE ALSO:
  - handlers.go: the handlers producing these shapes
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/warehouse-ledger/ledger"
)

// envelope is the uniform response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// =============================================================================
// CUSTOMERS
// =============================================================================

type addressDTO struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

type customerRequest struct {
	Name         string          `json:"name"`
	Phone        string          `json:"phone"`
	Email        string          `json:"email"`
	Address      addressDTO      `json:"address"`
	BusinessName string          `json:"businessName"`
	Type         string          `json:"customerType"`
	OldBalance   decimal.Decimal `json:"oldBalance"`
	CreditLimit  decimal.Decimal `json:"creditLimit"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes"`
}

type customerDTO struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Phone               string          `json:"phone"`
	Email               string          `json:"email,omitempty"`
	Address             addressDTO      `json:"address"`
	BusinessName        string          `json:"businessName,omitempty"`
	Type                string          `json:"customerType"`
	Balance             decimal.Decimal `json:"balance"`
	OldBalance          decimal.Decimal `json:"oldBalance"`
	OldBalanceRemaining decimal.Decimal `json:"oldBalanceRemaining"`
	CreditLimit         decimal.Decimal `json:"creditLimit"`
	Status              string          `json:"status"`
	TotalOrders         int             `json:"totalOrders"`
	TotalPurchases      decimal.Decimal `json:"totalPurchases"`
	LastOrderDate       *string         `json:"lastOrderDate,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	CreatedAt           string          `json:"createdAt"`
	UpdatedAt           string          `json:"updatedAt"`
}

func toCustomerDTO(c *ledger.Customer) customerDTO {
	return customerDTO{
		ID:    string(c.ID),
		Name:  c.Name,
		Phone: c.Phone,
		Email: c.Email,
		Address: addressDTO{
			Street:  c.Address.Street,
			City:    c.Address.City,
			State:   c.Address.State,
			Country: c.Address.Country,
		},
		BusinessName:        c.BusinessName,
		Type:                string(c.Type),
		Balance:             c.Balance,
		OldBalance:          c.OldBalance,
		OldBalanceRemaining: c.OldBalanceRemaining,
		CreditLimit:         c.CreditLimit,
		Status:              string(c.Status),
		TotalOrders:         c.TotalOrders,
		TotalPurchases:      c.TotalPurchases,
		LastOrderDate:       fmtTimePtr(c.LastOrderDate),
		Notes:               c.Notes,
		CreatedAt:           c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           c.UpdatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// ORDERS
// =============================================================================

type orderLineRequest struct {
	InventoryID string `json:"inventoryId"`
	Quantity    int    `json:"quantity"`
}

type orderRequest struct {
	CustomerID      string             `json:"customerId"`
	Items           []orderLineRequest `json:"items"`
	Discount        decimal.Decimal    `json:"discount"`
	Tax             decimal.Decimal    `json:"tax"`
	DeliveryAddress string             `json:"deliveryAddress"`
	DeliveryDate    string             `json:"deliveryDate"` // RFC3339, optional
	Notes           string             `json:"notes"`
	CreatedBy       string             `json:"createdBy"`
}

type orderUpdateRequest struct {
	Status          string `json:"status"`
	DeliveryStatus  string `json:"deliveryStatus"`
	DeliveryAddress string `json:"deliveryAddress"`
	DeliveryDate    string `json:"deliveryDate"`
	Notes           string `json:"notes"`
}

type orderItemDTO struct {
	InventoryID string          `json:"inventoryId"`
	ItemName    string          `json:"itemName"`
	Brand       string          `json:"brand"`
	Unit        string          `json:"unit"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

type orderDTO struct {
	ID              string          `json:"id"`
	Number          string          `json:"orderNumber"`
	CustomerID      string          `json:"customerId"`
	Items           []orderItemDTO  `json:"items,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
	AmountPaid      decimal.Decimal `json:"amountPaid"`
	Balance         decimal.Decimal `json:"balance"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"paymentStatus"`
	DeliveryStatus  string          `json:"deliveryStatus"`
	DeliveryAddress string          `json:"deliveryAddress,omitempty"`
	DeliveryDate    *string         `json:"deliveryDate,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedBy       string          `json:"createdBy,omitempty"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

func toOrderDTO(o *ledger.Order) orderDTO {
	items := make([]orderItemDTO, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemDTO{
			InventoryID: string(item.InventoryID),
			ItemName:    item.ItemName,
			Brand:       item.Brand,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
	}

	return orderDTO{
		ID:              string(o.ID),
		Number:          o.Number,
		CustomerID:      string(o.CustomerID),
		Items:           items,
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		Tax:             o.Tax,
		Total:           o.Total,
		AmountPaid:      o.AmountPaid,
		Balance:         o.Balance,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		DeliveryStatus:  string(o.DeliveryStatus),
		DeliveryAddress: o.DeliveryAddress,
		DeliveryDate:    fmtTimePtr(o.DeliveryDate),
		Notes:           o.Notes,
		CreatedBy:       o.CreatedBy,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// PAYMENTS
// =============================================================================

type paymentRequest struct {
	CustomerID      string          `json:"customerId"`
	OrderID         string          `json:"orderId"` // optional: directed payment
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"paymentMethod"`
	Date            string          `json:"paymentDate"` // RFC3339, optional
	ReferenceNumber string          `json:"referenceNumber"`
	BankName        string          `json:"bankName"`
	Notes           string          `json:"notes"`
	Status          string          `json:"status"`
	ReceivedBy      string          `json:"receivedBy"`
}

type paymentDTO struct {
	ID              string          `json:"id"`
	Number          string          `json:"paymentNumber"`
	CustomerID      string          `json:"customerId"`
	OrderID         *string         `json:"orderId,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"paymentMethod"`
	Date            string          `json:"paymentDate"`
	ReferenceNumber string          `json:"referenceNumber,omitempty"`
	BankName        string          `json:"bankName,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Status          string          `json:"status"`
	ReceivedBy      string          `json:"receivedBy,omitempty"`
	CreatedAt       string          `json:"createdAt"`
}

func toPaymentDTO(p *ledger.Payment) paymentDTO {
	var orderID *string
	if p.OrderID != nil {
		s := string(*p.OrderID)
		orderID = &s
	}

	return paymentDTO{
		ID:              string(p.ID),
		Number:          p.Number,
		CustomerID:      string(p.CustomerID),
		OrderID:         orderID,
		Amount:          p.Amount,
		Method:          string(p.Method),
		Date:            p.Date.Format(time.RFC3339),
		ReferenceNumber: p.ReferenceNumber,
		BankName:        p.BankName,
		Notes:           p.Notes,
		Status:          string(p.Status),
		ReceivedBy:      p.ReceivedBy,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// INVENTORY
// =============================================================================

type inventoryRequest struct {
	ItemName        string          `json:"itemName"`
	Brand           string          `json:"brand"`
	Category        string          `json:"category"`
	Unit            string          `json:"unit"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	ReorderLevel    int             `json:"reorderLevel"`
	Location        string          `json:"location"`
	SupplierName    string          `json:"supplierName"`
	SupplierContact string          `json:"supplierContact"`
}

type inventoryDTO struct {
	ID              string          `json:"id"`
	ItemName        string          `json:"itemName"`
	Brand           string          `json:"brand"`
	Category        string          `json:"category,omitempty"`
	Unit            string          `json:"unit"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	ReorderLevel    int             `json:"reorderLevel"`
	Location        string          `json:"location,omitempty"`
	SupplierName    string          `json:"supplierName,omitempty"`
	SupplierContact string          `json:"supplierContact,omitempty"`
	Status          string          `json:"status"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

func toInventoryDTO(i *ledger.InventoryItem) inventoryDTO {
	return inventoryDTO{
		ID:              string(i.ID),
		ItemName:        i.ItemName,
		Brand:           i.Brand,
		Category:        i.Category,
		Unit:            i.Unit,
		Quantity:        i.Quantity,
		UnitPrice:       i.UnitPrice,
		ReorderLevel:    i.ReorderLevel,
		Location:        i.Location,
		SupplierName:    i.Supplier.Name,
		SupplierContact: i.Supplier.Contact,
		Status:          string(i.Status),
		CreatedAt:       i.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       i.UpdatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// EXPENSES AND TAXES
// =============================================================================

type expenseRequest struct {
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	VendorName      string          `json:"vendorName"`
	VendorContact   string          `json:"vendorContact"`
	Method          string          `json:"paymentMethod"`
	Date            string          `json:"expenseDate"` // RFC3339, optional
	ReferenceNumber string          `json:"referenceNumber"`
	InvoiceNumber   string          `json:"invoiceNumber"`
	Status          string          `json:"status"`
	TaxDeductible   bool            `json:"taxDeductible"`
	Notes           string          `json:"notes"`
	RecordedBy      string          `json:"recordedBy"`
}

type expenseDTO struct {
	ID            string          `json:"id"`
	Number        string          `json:"expenseNumber"`
	Category      string          `json:"category"`
	Description   string          `json:"description,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	VendorName    string          `json:"vendorName,omitempty"`
	Method        string          `json:"paymentMethod"`
	Date          string          `json:"expenseDate"`
	Status        string          `json:"status"`
	TaxDeductible bool            `json:"taxDeductible"`
	CreatedAt     string          `json:"createdAt"`
}

func toExpenseDTO(e *ledger.Expense) expenseDTO {
	return expenseDTO{
		ID:            e.ID,
		Number:        e.Number,
		Category:      e.Category,
		Description:   e.Description,
		Amount:        e.Amount,
		VendorName:    e.Vendor.Name,
		Method:        string(e.Method),
		Date:          e.Date.Format(time.RFC3339),
		Status:        string(e.Status),
		TaxDeductible: e.TaxDeductible,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
}

type taxRequest struct {
	TaxType   string          `json:"taxType"`
	Period    string          `json:"period"`
	TaxAmount decimal.Decimal `json:"taxAmount"`
	DueDate   string          `json:"dueDate"` // RFC3339
	Notes     string          `json:"notes"`
}

type taxPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type taxDTO struct {
	ID         string          `json:"id"`
	Number     string          `json:"taxNumber"`
	TaxType    string          `json:"taxType"`
	Period     string          `json:"period"`
	TaxAmount  decimal.Decimal `json:"taxAmount"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	DueDate    string          `json:"dueDate"`
	Status     string          `json:"status"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  string          `json:"createdAt"`
}

func toTaxDTO(t *ledger.TaxRecord) taxDTO {
	return taxDTO{
		ID:         t.ID,
		Number:     t.Number,
		TaxType:    t.TaxType,
		Period:     t.Period,
		TaxAmount:  t.TaxAmount,
		AmountPaid: t.AmountPaid,
		DueDate:    t.DueDate.Format(time.RFC3339),
		Status:     string(t.Status),
		Notes:      t.Notes,
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func parseTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
