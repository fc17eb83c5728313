/*
reports.go - Read-only reporting endpoints

PURPOSE:
  Aggregated views over the ledger: the dashboard snapshot and per-customer
  account statements. Everything here is derived; nothing mutates.

SEE ALSO:
  - store/sqlite/reports.go: the dashboard aggregation
  - ledger/balance.go: the wallet breakdown math
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/warehouse-ledger/ledger"
	"github.com/warp/warehouse-ledger/store/sqlite"
)

type dashboardDTO struct {
	TotalCustomers   int             `json:"totalCustomers"`
	TotalOrders      int             `json:"totalOrders"`
	PendingOrders    int             `json:"pendingOrders"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	TotalWallet      decimal.Decimal `json:"totalWallet"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	InventoryValue   decimal.Decimal `json:"inventoryValue"`
	LowStockItems    int             `json:"lowStockItems"`
	OutOfStockItems  int             `json:"outOfStockItems"`
}

func toDashboardDTO(s *sqlite.DashboardStats) dashboardDTO {
	return dashboardDTO{
		TotalCustomers:   s.TotalCustomers,
		TotalOrders:      s.TotalOrders,
		PendingOrders:    s.PendingOrders,
		TotalRevenue:     s.TotalRevenue,
		TotalOutstanding: s.TotalOutstanding,
		TotalWallet:      s.TotalWallet,
		TotalExpenses:    s.TotalExpenses,
		InventoryValue:   s.InventoryValue,
		LowStockItems:    s.LowStockItems,
		OutOfStockItems:  s.OutOfStockItems,
	}
}

// Dashboard returns the business-wide snapshot.
// GET /api/reports/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.GetDashboardStats(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toDashboardDTO(stats))
}

type statementSummaryDTO struct {
	TotalPayments  decimal.Decimal `json:"totalPayments"`
	TotalOrderDebt decimal.Decimal `json:"totalOrderDebt"`
	OldBalance     decimal.Decimal `json:"oldBalance"`
	TotalDebt      decimal.Decimal `json:"totalDebt"`
	Wallet         decimal.Decimal `json:"wallet"`
}

type statementDTO struct {
	Customer customerDTO         `json:"customer"`
	Orders   []orderDTO          `json:"orders"`
	Payments []paymentDTO        `json:"payments"`
	Summary  statementSummaryDTO `json:"summary"`
}

// CustomerStatement returns a customer's full account statement: profile,
// order history, payment history and the wallet breakdown that reconciles
// them.
// GET /api/customers/{id}/statement
func (h *Handler) CustomerStatement(w http.ResponseWriter, r *http.Request) {
	id := ledger.CustomerID(chi.URLParam(r, "id"))
	ctx := r.Context()

	customer, err := h.Store.GetCustomer(ctx, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if customer == nil {
		writeFailure(w, http.StatusNotFound, "customer not found")
		return
	}

	orders, err := h.Store.ListCustomerOrders(ctx, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	payments, err := h.Store.ListCustomerPayments(ctx, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	breakdown := ledger.ComputeWalletBreakdown(customer.OldBalance, orders, payments)

	orderDTOs := make([]orderDTO, len(orders))
	for i := range orders {
		orderDTOs[i] = toOrderDTO(&orders[i])
	}
	paymentDTOs := make([]paymentDTO, len(payments))
	for i := range payments {
		paymentDTOs[i] = toPaymentDTO(&payments[i])
	}

	writeData(w, http.StatusOK, statementDTO{
		Customer: toCustomerDTO(customer),
		Orders:   orderDTOs,
		Payments: paymentDTOs,
		Summary: statementSummaryDTO{
			TotalPayments:  breakdown.TotalPayments,
			TotalOrderDebt: breakdown.TotalOrderDebt,
			OldBalance:     breakdown.OldBalance,
			TotalDebt:      breakdown.TotalDebt,
			Wallet:         breakdown.Wallet,
		},
	})
}
