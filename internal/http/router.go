package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cartH *CartHandler, orderH *OrderHandler, analyticsH *AnalyticsHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler)

	r.Group(func(r chi.Router) {
		r.Use(RequireUserID)

		r.Route("/api/cart", func(r chi.Router) {
			r.Post("/items", cartH.AddItem)
			r.Get("/", cartH.ViewCart)
			r.Delete("/items/{lineId}", cartH.RemoveItem)
		})

		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/checkout", orderH.Checkout)
			r.Get("/", orderH.History)
			r.Get("/items/{lineId}", orderH.LineDetail)
		})
	})

	r.Route("/api/merchants/{merchantId}", func(r chi.Router) {
		r.Get("/total-orders", analyticsH.TotalOrders)
		r.Get("/total-revenue", analyticsH.TotalRevenue)
		r.Get("/stats", analyticsH.Stats)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "order-service",
	})
}

// apiResponse is the envelope every endpoint returns.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, apiResponse{Success: true, Message: msg, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiResponse{Success: false, Message: msg})
}
