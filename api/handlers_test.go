package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/warehouse-ledger/api"
	"github.com/warp/warehouse-ledger/store/sqlite"
	"github.com/warp/warehouse-ledger/warehouse"
)

// =============================================================================
// FIXTURE
// =============================================================================

type fixture struct {
	t      *testing.T
	server *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := zap.NewNop().Sugar()
	orch := warehouse.New(store, log)
	router := api.NewRouter(api.NewHandler(store, orch, log), []string{"*"})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &fixture{t: t, server: server}
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (f *fixture) do(method, path string, body any) (int, response) {
	f.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(f.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.server.Client().Do(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()

	var out response
	require.NoError(f.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (f *fixture) decode(raw json.RawMessage, dst any) {
	f.t.Helper()
	require.NoError(f.t, json.Unmarshal(raw, dst))
}

type customerResp struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Balance    string `json:"balance"`
	OldBalance string `json:"oldBalance"`
	Status     string `json:"status"`
	Type       string `json:"customerType"`
}

type itemResp struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Status   string `json:"status"`
}

type orderResp struct {
	ID            string `json:"id"`
	Number        string `json:"orderNumber"`
	Total         string `json:"total"`
	AmountPaid    string `json:"amountPaid"`
	Balance       string `json:"balance"`
	PaymentStatus string `json:"paymentStatus"`
	Items         []struct {
		ItemName  string `json:"itemName"`
		Quantity  int    `json:"quantity"`
		UnitPrice string `json:"unitPrice"`
	} `json:"items"`
}

type paymentResp struct {
	ID     string  `json:"id"`
	Number string  `json:"paymentNumber"`
	Amount string  `json:"amount"`
	Status string  `json:"status"`
	Order  *string `json:"orderId"`
}

func (f *fixture) createCustomer(name string, oldBalance string) customerResp {
	f.t.Helper()

	status, resp := f.do(http.MethodPost, "/api/customers", map[string]any{
		"name":       name,
		"phone":      "08030000001",
		"oldBalance": oldBalance,
	})
	require.Equal(f.t, http.StatusCreated, status, resp.Message)

	var c customerResp
	f.decode(resp.Data, &c)
	return c
}

func (f *fixture) createItem(name string, quantity int, unitPrice string) itemResp {
	f.t.Helper()

	status, resp := f.do(http.MethodPost, "/api/inventory", map[string]any{
		"itemName":  name,
		"brand":     "Acme",
		"unit":      "bag",
		"quantity":  quantity,
		"unitPrice": unitPrice,
	})
	require.Equal(f.t, http.StatusCreated, status, resp.Message)

	var i itemResp
	f.decode(resp.Data, &i)
	return i
}

func (f *fixture) createOrder(customerID, itemID string, quantity int) orderResp {
	f.t.Helper()

	status, resp := f.do(http.MethodPost, "/api/orders", map[string]any{
		"customerId": customerID,
		"items": []map[string]any{
			{"inventoryId": itemID, "quantity": quantity},
		},
	})
	require.Equal(f.t, http.StatusCreated, status, resp.Message)

	var o orderResp
	f.decode(resp.Data, &o)
	return o
}

// =============================================================================
// CUSTOMER ENDPOINTS
// =============================================================================

func TestCustomerLifecycle(t *testing.T) {
	f := newFixture(t)

	// WHEN a customer is created
	created := f.createCustomer("Bola Stores", "0")

	// THEN it comes back with defaults applied
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Active", created.Status)
	assert.Equal(t, "Retail", created.Type)

	// AND it is retrievable
	status, resp := f.do(http.MethodGet, "/api/customers/"+created.ID, nil)
	require.Equal(t, http.StatusOK, status)

	var got customerResp
	f.decode(resp.Data, &got)
	assert.Equal(t, "Bola Stores", got.Name)

	// AND it can be deleted while it has no orders
	status, _ = f.do(http.MethodDelete, "/api/customers/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, status)

	status, resp = f.do(http.MethodGet, "/api/customers/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, resp.Success)
}

func TestCreateCustomer_MissingName(t *testing.T) {
	f := newFixture(t)

	status, resp := f.do(http.MethodPost, "/api/customers", map[string]any{
		"phone": "08030000001",
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
}

func TestGetCustomer_Missing(t *testing.T) {
	f := newFixture(t)

	status, resp := f.do(http.MethodGet, "/api/customers/ghost", nil)

	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, resp.Success)
}

func TestDeleteCustomer_WithOrdersConflicts(t *testing.T) {
	f := newFixture(t)

	// GIVEN a customer with an order
	customer := f.createCustomer("Bola Stores", "0")
	item := f.createItem("Rice 50kg", 10, "100")
	f.createOrder(customer.ID, item.ID, 1)

	// WHEN deleting the customer
	status, resp := f.do(http.MethodDelete, "/api/customers/"+customer.ID, nil)

	// THEN the guard rejects it
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, resp.Success)
}

// =============================================================================
// ORDER ENDPOINTS
// =============================================================================

func TestCreateOrder_DeductsStockAndSnapshotsLines(t *testing.T) {
	f := newFixture(t)

	customer := f.createCustomer("Bola Stores", "0")
	item := f.createItem("Rice 50kg", 10, "100")

	// WHEN ordering 4 units
	order := f.createOrder(customer.ID, item.ID, 4)

	// THEN the order snapshots the line and derives its totals
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Rice 50kg", order.Items[0].ItemName)
	assert.Equal(t, "400", order.Total)
	assert.Equal(t, "Unpaid", order.PaymentStatus)

	// AND stock went down
	status, resp := f.do(http.MethodGet, "/api/inventory/"+item.ID, nil)
	require.Equal(t, http.StatusOK, status)

	var got itemResp
	f.decode(resp.Data, &got)
	assert.Equal(t, 6, got.Quantity)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t)

	customer := f.createCustomer("Bola Stores", "0")
	item := f.createItem("Rice 50kg", 3, "100")

	status, resp := f.do(http.MethodPost, "/api/orders", map[string]any{
		"customerId": customer.ID,
		"items": []map[string]any{
			{"inventoryId": item.ID, "quantity": 5},
		},
	})

	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, resp.Success)

	// Shelf untouched after the failed order.
	status, resp = f.do(http.MethodGet, "/api/inventory/"+item.ID, nil)
	require.Equal(t, http.StatusOK, status)

	var got itemResp
	f.decode(resp.Data, &got)
	assert.Equal(t, 3, got.Quantity)
}

func TestCreateOrder_UnknownCustomer(t *testing.T) {
	f := newFixture(t)
	item := f.createItem("Rice 50kg", 10, "100")

	status, resp := f.do(http.MethodPost, "/api/orders", map[string]any{
		"customerId": "ghost",
		"items": []map[string]any{
			{"inventoryId": item.ID, "quantity": 1},
		},
	})

	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, resp.Success)
}

func TestCreateOrder_WalletAutoApplies(t *testing.T) {
	f := newFixture(t)

	// GIVEN a customer holding 500 of credit
	customer := f.createCustomer("Bola Stores", "0")
	item := f.createItem("Rice 50kg", 10, "100")
	status, resp := f.do(http.MethodPost, "/api/payments", map[string]any{
		"customerId":    customer.ID,
		"amount":        "500",
		"paymentMethod": "Cash",
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)

	// WHEN they order for 300
	order := f.createOrder(customer.ID, item.ID, 3)

	// THEN the order is born fully paid from the wallet
	assert.Equal(t, "300", order.AmountPaid)
	assert.Equal(t, "0", order.Balance)
	assert.Equal(t, "Paid", order.PaymentStatus)

	// AND the recompute still backs the credit with the full payment history
	// now that no debt is outstanding
	status, resp = f.do(http.MethodGet, "/api/customers/"+customer.ID, nil)
	require.Equal(t, http.StatusOK, status)

	var got customerResp
	f.decode(resp.Data, &got)
	assert.Equal(t, "500", got.Balance)
}

func TestDeleteOrder_RestoresEverything(t *testing.T) {
	f := newFixture(t)

	customer := f.createCustomer("Bola Stores", "0")
	item := f.createItem("Rice 50kg", 10, "100")
	order := f.createOrder(customer.ID, item.ID, 4)

	// WHEN the order is deleted
	status, _ := f.do(http.MethodDelete, "/api/orders/"+order.ID, nil)
	require.Equal(t, http.StatusOK, status)

	// THEN stock is back on the shelf
	status, resp := f.do(http.MethodGet, "/api/inventory/"+item.ID, nil)
	require.Equal(t, http.StatusOK, status)

	var got itemResp
	f.decode(resp.Data, &got)
	assert.Equal(t, 10, got.Quantity)

	// AND the order is gone
	status, _ = f.do(http.MethodGet, "/api/orders/"+order.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListOrders_FilterByCustomer(t *testing.T) {
	f := newFixture(t)

	a := f.createCustomer("Bola Stores", "0")
	b := f.createCustomer("Chidi & Sons", "0")
	item := f.createItem("Rice 50kg", 10, "100")
	f.createOrder(a.ID, item.ID, 1)
	f.createOrder(b.ID, item.ID, 1)

	status, resp := f.do(http.MethodGet, "/api/orders?customerId="+a.ID, nil)
	require.Equal(t, http.StatusOK, status)

	var orders []orderResp
	f.decode(resp.Data, &orders)
	assert.Len(t, orders, 1)
}

// =============================================================================
// PAYMENT ENDPOINTS
// =============================================================================

func TestCreatePayment_SettlesOldestOrderFirst(t *testing.T) {
	f := newFixture(t)

	customer := f.createCustomer("Bola Stores", "0")
	item := f.createItem("Rice 50kg", 20, "100")
	first := f.createOrder(customer.ID, item.ID, 2)  // 200
	second := f.createOrder(customer.ID, item.ID, 3) // 300

	// WHEN 250 arrives undirected
	status, resp := f.do(http.MethodPost, "/api/payments", map[string]any{
		"customerId":    customer.ID,
		"amount":        "250",
		"paymentMethod": "Bank Transfer",
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)

	// THEN the oldest order is settled and the next gets the rest
	status, resp = f.do(http.MethodGet, "/api/orders/"+first.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var got orderResp
	f.decode(resp.Data, &got)
	assert.Equal(t, "Paid", got.PaymentStatus)

	status, resp = f.do(http.MethodGet, "/api/orders/"+second.ID, nil)
	require.Equal(t, http.StatusOK, status)
	f.decode(resp.Data, &got)
	assert.Equal(t, "Partial", got.PaymentStatus)
	assert.Equal(t, "50", got.AmountPaid)
}

func TestCreatePayment_DirectedAtWrongCustomersOrder(t *testing.T) {
	f := newFixture(t)

	a := f.createCustomer("Bola Stores", "0")
	b := f.createCustomer("Chidi & Sons", "0")
	item := f.createItem("Rice 50kg", 10, "100")
	order := f.createOrder(a.ID, item.ID, 1)

	status, resp := f.do(http.MethodPost, "/api/payments", map[string]any{
		"customerId":    b.ID,
		"orderId":       order.ID,
		"amount":        "100",
		"paymentMethod": "Cash",
	})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, resp.Success)
}

func TestDeletePayment_ReversesOrderApplication(t *testing.T) {
	f := newFixture(t)

	customer := f.createCustomer("Bola Stores", "0")
	item := f.createItem("Rice 50kg", 10, "100")
	order := f.createOrder(customer.ID, item.ID, 2) // 200

	status, resp := f.do(http.MethodPost, "/api/payments", map[string]any{
		"customerId":    customer.ID,
		"orderId":       order.ID,
		"amount":        "200",
		"paymentMethod": "Cash",
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)

	var payment paymentResp
	f.decode(resp.Data, &payment)

	// WHEN the payment is deleted
	status, _ = f.do(http.MethodDelete, "/api/payments/"+payment.ID, nil)
	require.Equal(t, http.StatusOK, status)

	// THEN the order owes again
	status, resp = f.do(http.MethodGet, "/api/orders/"+order.ID, nil)
	require.Equal(t, http.StatusOK, status)

	var got orderResp
	f.decode(resp.Data, &got)
	assert.Equal(t, "Unpaid", got.PaymentStatus)
	assert.Equal(t, "200", got.Balance)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestCustomerStatement(t *testing.T) {
	f := newFixture(t)

	customer := f.createCustomer("Bola Stores", "100")
	item := f.createItem("Rice 50kg", 10, "100")
	f.createOrder(customer.ID, item.ID, 2) // 200 debt

	status, resp := f.do(http.MethodPost, "/api/payments", map[string]any{
		"customerId":    customer.ID,
		"amount":        "250",
		"paymentMethod": "Cash",
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)

	status, resp = f.do(http.MethodGet, "/api/customers/"+customer.ID+"/statement", nil)
	require.Equal(t, http.StatusOK, status)

	var statement struct {
		Orders   []orderResp   `json:"orders"`
		Payments []paymentResp `json:"payments"`
		Summary  struct {
			TotalPayments string `json:"totalPayments"`
			OldBalance    string `json:"oldBalance"`
			Wallet        string `json:"wallet"`
		} `json:"summary"`
	}
	f.decode(resp.Data, &statement)

	assert.Len(t, statement.Orders, 1)
	assert.Len(t, statement.Payments, 1)
	assert.Equal(t, "250", statement.Summary.TotalPayments)
	assert.Equal(t, "100", statement.Summary.OldBalance)
	// 250 paid against the frozen 100; the order is settled, leaving 150.
	assert.Equal(t, "150", statement.Summary.Wallet)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)

	customer := f.createCustomer("Bola Stores", "0")
	item := f.createItem("Rice 50kg", 10, "100")
	f.createOrder(customer.ID, item.ID, 2)

	status, resp := f.do(http.MethodGet, "/api/reports/dashboard", nil)
	require.Equal(t, http.StatusOK, status)

	var dash struct {
		TotalCustomers   int    `json:"totalCustomers"`
		TotalOrders      int    `json:"totalOrders"`
		TotalOutstanding string `json:"totalOutstanding"`
	}
	f.decode(resp.Data, &dash)

	assert.Equal(t, 1, dash.TotalCustomers)
	assert.Equal(t, 1, dash.TotalOrders)
	assert.Equal(t, "200", dash.TotalOutstanding)
}

// =============================================================================
// EXPENSES AND TAXES
// =============================================================================

func TestExpenseAndTaxEndpoints(t *testing.T) {
	f := newFixture(t)

	// Expense
	status, resp := f.do(http.MethodPost, "/api/expenses", map[string]any{
		"category":      "Logistics",
		"amount":        "1500",
		"paymentMethod": "Cash",
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)

	var expense struct {
		Number string `json:"expenseNumber"`
		Status string `json:"status"`
	}
	f.decode(resp.Data, &expense)
	assert.Contains(t, expense.Number, "EXP-")
	assert.Equal(t, "Pending", expense.Status)

	// Tax obligation, then a partial payment against it
	dueDate := time.Now().UTC().AddDate(0, 1, 0).Format(time.RFC3339)
	status, resp = f.do(http.MethodPost, "/api/taxes", map[string]any{
		"taxType":   "VAT",
		"period":    "2026-08",
		"taxAmount": "900",
		"dueDate":   dueDate,
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)

	var tax struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	f.decode(resp.Data, &tax)
	assert.Equal(t, "Pending", tax.Status)

	status, resp = f.do(http.MethodPost, fmt.Sprintf("/api/taxes/%s/payments", tax.ID), map[string]any{
		"amount": "400",
	})
	require.Equal(t, http.StatusOK, status, resp.Message)

	var paid struct {
		AmountPaid string `json:"amountPaid"`
		Status     string `json:"status"`
	}
	f.decode(resp.Data, &paid)
	assert.Equal(t, "400", paid.AmountPaid)
	assert.Equal(t, "Partially Paid", paid.Status)
}

func TestInvalidJSONBody(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/customers",
		bytes.NewBufferString("{not json"))
	require.NoError(t, err)

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
