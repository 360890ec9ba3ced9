package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilarsid/order-service/internal/checkout"
	"github.com/nikhilarsid/order-service/internal/order"
)

// CheckoutService is what the order handlers need from internal/checkout.
type CheckoutService interface {
	Checkout(ctx context.Context, userID string) (string, error)
	OrderHistory(ctx context.Context, userID string) ([]order.Order, error)
	OrderLineDetail(ctx context.Context, lineID string) (*order.Line, error)
}

type OrderHandler struct {
	svc CheckoutService
}

func NewOrderHandler(svc CheckoutService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	// No request body: checkout acts on the authenticated user's whole cart.
	// No overall deadline either; each catalog call carries its own retry
	// budget and the pipeline must not be cut off mid-line.
	orderNumber, err := h.svc.Checkout(r.Context(), UserID(r.Context()))
	if err != nil {
		var unavailable *checkout.ProductUnavailableError
		var stock *checkout.InsufficientStockError
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &unavailable):
			writeError(w, http.StatusConflict, unavailable.Error())
		case errors.As(err, &stock):
			writeError(w, http.StatusConflict, stock.Error())
		default:
			writeError(w, http.StatusInternalServerError, "checkout failed")
		}
		return
	}

	writeData(w, http.StatusOK, "order placed successfully", orderNumber)
}

func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.svc.OrderHistory(ctx, UserID(ctx))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	writeData(w, http.StatusOK, "order history fetched", orders)
}

func (h *OrderHandler) LineDetail(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	line, err := h.svc.OrderLineDetail(ctx, lineID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load order item")
		return
	}
	writeData(w, http.StatusOK, "item details fetched", line)
}
