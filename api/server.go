/*
server.go - Router assembly

PURPOSE:
  Wires the chi router: request id, panic recovery, structured access log,
  CORS, then the REST routes under /api.

SEE ALSO:
  - handlers.go: the handlers behind each route
  - middleware.go: the access logger
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP routing tree over the handler.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Post("/", h.CreateCustomer)
			r.Get("/{id}", h.GetCustomer)
			r.Put("/{id}", h.UpdateCustomer)
			r.Delete("/{id}", h.DeleteCustomer)
			r.Get("/{id}/statement", h.CustomerStatement)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}", h.UpdateOrder)
			r.Delete("/{id}", h.DeleteOrder)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreatePayment)
			r.Get("/{id}", h.GetPayment)
			r.Delete("/{id}", h.DeletePayment)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.ListInventory)
			r.Post("/", h.CreateInventoryItem)
			r.Get("/{id}", h.GetInventoryItem)
			r.Put("/{id}", h.UpdateInventoryItem)
			r.Delete("/{id}", h.DeleteInventoryItem)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Get("/{id}", h.GetExpense)
			r.Delete("/{id}", h.DeleteExpense)
		})

		r.Route("/taxes", func(r chi.Router) {
			r.Get("/", h.ListTaxes)
			r.Post("/", h.CreateTax)
			r.Post("/{id}/payments", h.PayTax)
		})

		r.Get("/reports/dashboard", h.Dashboard)
	})

	return r
}
