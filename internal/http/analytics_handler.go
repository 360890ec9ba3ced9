package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilarsid/order-service/internal/analytics"
)

// AnalyticsStore is what the merchant stats handlers need.
type AnalyticsStore interface {
	TotalOrders(ctx context.Context, merchantID string) (int, error)
	TotalRevenue(ctx context.Context, merchantID string) (float64, error)
	Get(ctx context.Context, merchantID string, productID int64, variantID string) (analytics.Stats, error)
}

type AnalyticsHandler struct {
	store AnalyticsStore
}

func NewAnalyticsHandler(store AnalyticsStore) *AnalyticsHandler {
	return &AnalyticsHandler{store: store}
}

func (h *AnalyticsHandler) TotalOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	total, err := h.store.TotalOrders(ctx, chi.URLParam(r, "merchantId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load merchant stats")
		return
	}
	writeData(w, http.StatusOK, "total orders fetched", total)
}

func (h *AnalyticsHandler) TotalRevenue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	total, err := h.store.TotalRevenue(ctx, chi.URLParam(r, "merchantId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load merchant stats")
		return
	}
	writeData(w, http.StatusOK, "total revenue fetched", total)
}

func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.URL.Query().Get("productId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "productId query parameter must be an integer")
		return
	}
	variantID := r.URL.Query().Get("variantId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	stats, err := h.store.Get(ctx, chi.URLParam(r, "merchantId"), productID, variantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load merchant stats")
		return
	}
	writeData(w, http.StatusOK, "stats fetched", stats)
}
