/*
handlers.go - HTTP handlers for the warehouse back office

PURPOSE:
  Exposes the ledger operations via REST. Handlers parse and validate the
  HTTP surface, delegate to the orchestrator (writes) or the store (reads),
  and serialize the envelope.

ERROR HANDLING:
  Domain errors map to HTTP statuses through the ledger helpers:
  - 400: validation failures, malformed bodies
  - 404: missing entities
  - 409: conflicts (insufficient stock, guarded deletes, number collisions)
  - 500: everything else, logged with the request id

SECURITY NOTE:
  No authentication. This service is meant to sit on an internal network
  behind the back-office frontend.

SEE ALSO:
  - dto.go: request/response shapes and the envelope
  - server.go: router setup and middleware
  - reports.go: dashboard and statement handlers
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/warehouse-ledger/ledger"
	"github.com/warp/warehouse-ledger/store/sqlite"
	"github.com/warp/warehouse-ledger/warehouse"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Orch  *warehouse.Orchestrator
	Log   *zap.SugaredLogger
}

// NewHandler creates a handler over the store and orchestrator.
func NewHandler(store *sqlite.Store, orch *warehouse.Orchestrator, log *zap.SugaredLogger) *Handler {
	return &Handler{Store: store, Orch: orch, Log: log}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeDomainError maps a domain error to its HTTP status. Unexpected errors
// are logged with the request id and surfaced as a generic 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeFailure(w, http.StatusNotFound, err.Error())
	case ledger.IsClientError(err):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case ledger.IsConflict(err):
		writeFailure(w, http.StatusConflict, err.Error())
	default:
		h.Log.Errorw("request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		writeFailure(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// =============================================================================
// CUSTOMER HANDLERS
// =============================================================================

// ListCustomers returns customers, optionally filtered.
// GET /api/customers?search=&status=&type=
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Store.ListCustomers(r.Context(), sqlite.CustomerFilter{
		Search: r.URL.Query().Get("search"),
		Status: ledger.CustomerStatus(r.URL.Query().Get("status")),
		Type:   ledger.CustomerType(r.URL.Query().Get("type")),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]customerDTO, len(customers))
	for i := range customers {
		dtos[i] = toCustomerDTO(&customers[i])
	}
	writeData(w, http.StatusOK, dtos)
}

// GetCustomer returns one customer.
// GET /api/customers/{id}
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := ledger.CustomerID(chi.URLParam(r, "id"))

	customer, err := h.Store.GetCustomer(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if customer == nil {
		writeFailure(w, http.StatusNotFound, "customer not found")
		return
	}

	writeData(w, http.StatusOK, toCustomerDTO(customer))
}

// CreateCustomer registers a customer.
// POST /api/customers
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	customer, err := h.Orch.CreateCustomer(r.Context(), customerInputFromRequest(req))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toCustomerDTO(customer))
}

// UpdateCustomer rewrites a customer's profile.
// PUT /api/customers/{id}
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id := ledger.CustomerID(chi.URLParam(r, "id"))

	var req customerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	customer, err := h.Orch.UpdateCustomer(r.Context(), id, customerInputFromRequest(req))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, toCustomerDTO(customer))
}

// DeleteCustomer removes a customer without order history.
// DELETE /api/customers/{id}
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := ledger.CustomerID(chi.URLParam(r, "id"))

	if err := h.Orch.DeleteCustomer(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"id": string(id)})
}

func customerInputFromRequest(req customerRequest) warehouse.CustomerInput {
	return warehouse.CustomerInput{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
		Address: ledger.Address{
			Street:  req.Address.Street,
			City:    req.Address.City,
			State:   req.Address.State,
			Country: req.Address.Country,
		},
		BusinessName: req.BusinessName,
		Type:         ledger.CustomerType(req.Type),
		OldBalance:   req.OldBalance,
		CreditLimit:  req.CreditLimit,
		Status:       ledger.CustomerStatus(req.Status),
		Notes:        req.Notes,
	}
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// ListOrders returns orders, optionally filtered.
// GET /api/orders?customerId=&status=&paymentStatus=
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.ListOrders(r.Context(), sqlite.OrderFilter{
		CustomerID:    ledger.CustomerID(r.URL.Query().Get("customerId")),
		Status:        ledger.OrderStatus(r.URL.Query().Get("status")),
		PaymentStatus: ledger.PaymentState(r.URL.Query().Get("paymentStatus")),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]orderDTO, len(orders))
	for i := range orders {
		dtos[i] = toOrderDTO(&orders[i])
	}
	writeData(w, http.StatusOK, dtos)
}

// GetOrder returns one order with its line items.
// GET /api/orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := ledger.OrderID(chi.URLParam(r, "id"))

	order, err := h.Store.GetOrder(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if order == nil {
		writeFailure(w, http.StatusNotFound, "order not found")
		return
	}

	writeData(w, http.StatusOK, toOrderDTO(order))
}

// CreateOrder places an order.
// POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	deliveryDate, err := parseTimePtr(req.DeliveryDate)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid deliveryDate (use RFC3339)")
		return
	}

	lines := make([]warehouse.OrderLineInput, len(req.Items))
	for i, item := range req.Items {
		lines[i] = warehouse.OrderLineInput{
			InventoryID: ledger.ItemID(item.InventoryID),
			Quantity:    item.Quantity,
		}
	}

	order, err := h.Orch.CreateOrder(r.Context(), warehouse.OrderInput{
		CustomerID:      ledger.CustomerID(req.CustomerID),
		Lines:           lines,
		Discount:        req.Discount,
		Tax:             req.Tax,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    deliveryDate,
		Notes:           req.Notes,
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toOrderDTO(order))
}

// UpdateOrder edits an order's workflow fields.
// PUT /api/orders/{id}
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id := ledger.OrderID(chi.URLParam(r, "id"))

	var req orderUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	deliveryDate, err := parseTimePtr(req.DeliveryDate)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid deliveryDate (use RFC3339)")
		return
	}

	order, err := h.Orch.UpdateOrderDetails(r.Context(), id, warehouse.OrderDetailsInput{
		Status:          ledger.OrderStatus(req.Status),
		DeliveryStatus:  ledger.DeliveryStatus(req.DeliveryStatus),
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    deliveryDate,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, toOrderDTO(order))
}

// DeleteOrder reverses an order completely.
// DELETE /api/orders/{id}
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := ledger.OrderID(chi.URLParam(r, "id"))

	result, err := h.Orch.DeleteOrder(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"orderNumber":     result.Order.Number,
		"restockedLines":  result.RestockedLines,
		"deletedPayments": result.DeletedPayments,
		"wallet":          result.Wallet,
	})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns payments, optionally filtered.
// GET /api/payments?customerId=&orderId=&status=
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.ListPayments(r.Context(), sqlite.PaymentFilter{
		CustomerID: ledger.CustomerID(r.URL.Query().Get("customerId")),
		OrderID:    ledger.OrderID(r.URL.Query().Get("orderId")),
		Status:     ledger.PaymentStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]paymentDTO, len(payments))
	for i := range payments {
		dtos[i] = toPaymentDTO(&payments[i])
	}
	writeData(w, http.StatusOK, dtos)
}

// GetPayment returns one payment.
// GET /api/payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := ledger.PaymentID(chi.URLParam(r, "id"))

	payment, err := h.Store.GetPayment(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if payment == nil {
		writeFailure(w, http.StatusNotFound, "payment not found")
		return
	}

	writeData(w, http.StatusOK, toPaymentDTO(payment))
}

// CreatePayment records a payment.
// POST /api/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	date, err := parseTimePtr(req.Date)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid paymentDate (use RFC3339)")
		return
	}

	var orderID *ledger.OrderID
	if req.OrderID != "" {
		id := ledger.OrderID(req.OrderID)
		orderID = &id
	}

	payment, err := h.Orch.RecordPayment(r.Context(), warehouse.PaymentInput{
		CustomerID:      ledger.CustomerID(req.CustomerID),
		OrderID:         orderID,
		Amount:          req.Amount,
		Method:          ledger.PaymentMethod(req.Method),
		Date:            date,
		ReferenceNumber: req.ReferenceNumber,
		BankName:        req.BankName,
		Notes:           req.Notes,
		Status:          ledger.PaymentStatus(req.Status),
		ReceivedBy:      req.ReceivedBy,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toPaymentDTO(payment))
}

// DeletePayment removes a payment, reversing what it had applied.
// DELETE /api/payments/{id}
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id := ledger.PaymentID(chi.URLParam(r, "id"))

	if err := h.Orch.DeletePayment(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"id": string(id)})
}

// =============================================================================
// INVENTORY HANDLERS
// =============================================================================

// ListInventory returns items, optionally filtered.
// GET /api/inventory?search=&category=&status=
func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context(), sqlite.InventoryFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Status:   ledger.StockStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]inventoryDTO, len(items))
	for i := range items {
		dtos[i] = toInventoryDTO(&items[i])
	}
	writeData(w, http.StatusOK, dtos)
}

// GetInventoryItem returns one item.
// GET /api/inventory/{id}
func (h *Handler) GetInventoryItem(w http.ResponseWriter, r *http.Request) {
	id := ledger.ItemID(chi.URLParam(r, "id"))

	item, err := h.Store.GetItem(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if item == nil {
		writeFailure(w, http.StatusNotFound, "inventory item not found")
		return
	}

	writeData(w, http.StatusOK, toInventoryDTO(item))
}

// CreateInventoryItem adds an item to stock.
// POST /api/inventory
func (h *Handler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := validateInventoryRequest(req); msg != "" {
		writeFailure(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now().UTC()
	item := &ledger.InventoryItem{
		ID:           ledger.ItemID(uuid.NewString()),
		ItemName:     req.ItemName,
		Brand:        req.Brand,
		Category:     req.Category,
		Unit:         req.Unit,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		ReorderLevel: req.ReorderLevel,
		Location:     req.Location,
		Supplier: ledger.Supplier{
			Name:    req.SupplierName,
			Contact: req.SupplierContact,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	item.RefreshStatus()

	if err := h.Store.InsertItem(r.Context(), item); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toInventoryDTO(item))
}

// UpdateInventoryItem rewrites an item. Existing order snapshots keep their
// frozen copies.
// PUT /api/inventory/{id}
func (h *Handler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	id := ledger.ItemID(chi.URLParam(r, "id"))

	var req inventoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if msg := validateInventoryRequest(req); msg != "" {
		writeFailure(w, http.StatusBadRequest, msg)
		return
	}

	item := &ledger.InventoryItem{
		ID:           id,
		ItemName:     req.ItemName,
		Brand:        req.Brand,
		Category:     req.Category,
		Unit:         req.Unit,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		ReorderLevel: req.ReorderLevel,
		Location:     req.Location,
		Supplier: ledger.Supplier{
			Name:    req.SupplierName,
			Contact: req.SupplierContact,
		},
	}
	item.RefreshStatus()

	if err := h.Store.UpdateItem(r.Context(), item); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, toInventoryDTO(item))
}

// DeleteInventoryItem removes an item.
// DELETE /api/inventory/{id}
func (h *Handler) DeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	id := ledger.ItemID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteItem(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"id": string(id)})
}

func validateInventoryRequest(req inventoryRequest) string {
	switch {
	case req.ItemName == "":
		return "itemName is required"
	case req.Brand == "":
		return "brand is required"
	case req.Unit == "":
		return "unit is required"
	case req.Quantity < 0:
		return "quantity cannot be negative"
	case req.UnitPrice.IsNegative():
		return "unitPrice cannot be negative"
	case req.ReorderLevel < 0:
		return "reorderLevel cannot be negative"
	}
	return ""
}

// =============================================================================
// EXPENSE AND TAX HANDLERS
// =============================================================================

// ListExpenses returns expenses, optionally filtered.
// GET /api/expenses?category=&status=
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.Store.ListExpenses(r.Context(), sqlite.ExpenseFilter{
		Category: r.URL.Query().Get("category"),
		Status:   ledger.ExpenseStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]expenseDTO, len(expenses))
	for i := range expenses {
		dtos[i] = toExpenseDTO(&expenses[i])
	}
	writeData(w, http.StatusOK, dtos)
}

// CreateExpense records an expense.
// POST /api/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	date, err := parseTimePtr(req.Date)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid expenseDate (use RFC3339)")
		return
	}

	expense, err := h.Orch.RecordExpense(r.Context(), warehouse.ExpenseInput{
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		Vendor: ledger.Supplier{
			Name:    req.VendorName,
			Contact: req.VendorContact,
		},
		Method:          ledger.PaymentMethod(req.Method),
		Date:            date,
		ReferenceNumber: req.ReferenceNumber,
		InvoiceNumber:   req.InvoiceNumber,
		Status:          ledger.ExpenseStatus(req.Status),
		TaxDeductible:   req.TaxDeductible,
		Notes:           req.Notes,
		RecordedBy:      req.RecordedBy,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toExpenseDTO(expense))
}

// GetExpense returns one expense.
// GET /api/expenses/{id}
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	expense, err := h.Store.GetExpense(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if expense == nil {
		writeFailure(w, http.StatusNotFound, "expense not found")
		return
	}

	writeData(w, http.StatusOK, toExpenseDTO(expense))
}

// DeleteExpense removes an expense record.
// DELETE /api/expenses/{id}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteExpense(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"id": id})
}

// ListTaxes returns tax records.
// GET /api/taxes?status=
func (h *Handler) ListTaxes(w http.ResponseWriter, r *http.Request) {
	taxes, err := h.Store.ListTaxes(r.Context(), ledger.TaxStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]taxDTO, len(taxes))
	for i := range taxes {
		dtos[i] = toTaxDTO(&taxes[i])
	}
	writeData(w, http.StatusOK, dtos)
}

// CreateTax registers a tax obligation.
// POST /api/taxes
func (h *Handler) CreateTax(w http.ResponseWriter, r *http.Request) {
	var req taxRequest
	if !decodeBody(w, r, &req) {
		return
	}

	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid dueDate (use RFC3339)")
		return
	}

	record, err := h.Orch.RecordTax(r.Context(), warehouse.TaxInput{
		TaxType:   req.TaxType,
		Period:    req.Period,
		TaxAmount: req.TaxAmount,
		DueDate:   dueDate,
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toTaxDTO(record))
}

// PayTax applies a payment against a tax obligation.
// POST /api/taxes/{id}/payments
func (h *Handler) PayTax(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req taxPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	record, err := h.Orch.PayTax(r.Context(), id, req.Amount)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, toTaxDTO(record))
}
