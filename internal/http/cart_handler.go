package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilarsid/order-service/internal/cart"
	"github.com/nikhilarsid/order-service/internal/catalog"
)

// CartService is what the cart handlers need from internal/cart.
type CartService interface {
	AddItem(ctx context.Context, userID string, productID int64, variantID, merchantID string, quantity int) error
	View(ctx context.Context, userID string) (*cart.View, error)
	RemoveItem(ctx context.Context, userID, lineID string, quantity int) error
}

type CartHandler struct {
	svc CartService
}

func NewCartHandler(svc CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

type addItemRequest struct {
	ProductID  int64  `json:"productId"`
	VariantID  string `json:"variantId"`
	MerchantID string `json:"merchantId"`
	Quantity   int    `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == 0 || req.MerchantID == "" || req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "productId, merchantId and quantity >= 1 are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	err := h.svc.AddItem(ctx, UserID(ctx), req.ProductID, req.VariantID, req.MerchantID, req.Quantity)
	if err != nil {
		var stockErr *cart.StockError
		switch {
		case errors.As(err, &stockErr):
			writeError(w, http.StatusConflict, stockErr.Error())
		case errors.Is(err, catalog.ErrNotFound):
			writeError(w, http.StatusNotFound, "could not find merchant for the selected product/variant")
		default:
			writeError(w, http.StatusInternalServerError, "failed to add item to cart")
		}
		return
	}

	writeData(w, http.StatusOK, "item added to cart", nil)
}

func (h *CartHandler) ViewCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	v, err := h.svc.View(ctx, UserID(ctx))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeData(w, http.StatusOK, "cart retrieved", v)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineId")
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil || quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity query parameter must be a positive integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.RemoveItem(ctx, UserID(ctx), lineID, quantity); err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found in your cart")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}
	writeData(w, http.StatusOK, "cart updated", nil)
}
