package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhilarsid/order-service/internal/analytics"
	"github.com/nikhilarsid/order-service/internal/cart"
	"github.com/nikhilarsid/order-service/internal/catalog"
	"github.com/nikhilarsid/order-service/internal/checkout"
	"github.com/nikhilarsid/order-service/internal/order"
)

type fakeCartService struct {
	addErr    error
	view      *cart.View
	viewErr   error
	removeErr error

	gotUserID   string
	gotLineID   string
	gotQuantity int
}

func (f *fakeCartService) AddItem(ctx context.Context, userID string, productID int64, variantID, merchantID string, quantity int) error {
	f.gotUserID = userID
	f.gotQuantity = quantity
	return f.addErr
}

func (f *fakeCartService) View(ctx context.Context, userID string) (*cart.View, error) {
	f.gotUserID = userID
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	if f.view != nil {
		return f.view, nil
	}
	return &cart.View{UserID: userID, Items: []cart.ViewItem{}}, nil
}

func (f *fakeCartService) RemoveItem(ctx context.Context, userID, lineID string, quantity int) error {
	f.gotUserID = userID
	f.gotLineID = lineID
	f.gotQuantity = quantity
	return f.removeErr
}

type fakeCheckoutService struct {
	orderNumber string
	checkoutErr error
	orders      []order.Order
	line        *order.Line
	lineErr     error
}

func (f *fakeCheckoutService) Checkout(ctx context.Context, userID string) (string, error) {
	if f.checkoutErr != nil {
		return "", f.checkoutErr
	}
	return f.orderNumber, nil
}

func (f *fakeCheckoutService) OrderHistory(ctx context.Context, userID string) ([]order.Order, error) {
	return f.orders, nil
}

func (f *fakeCheckoutService) OrderLineDetail(ctx context.Context, lineID string) (*order.Line, error) {
	if f.lineErr != nil {
		return nil, f.lineErr
	}
	return f.line, nil
}

type fakeAnalyticsStore struct {
	orders  int
	revenue float64
	stats   analytics.Stats
	err     error
}

func (f *fakeAnalyticsStore) TotalOrders(ctx context.Context, merchantID string) (int, error) {
	return f.orders, f.err
}

func (f *fakeAnalyticsStore) TotalRevenue(ctx context.Context, merchantID string) (float64, error) {
	return f.revenue, f.err
}

func (f *fakeAnalyticsStore) Get(ctx context.Context, merchantID string, productID int64, variantID string) (analytics.Stats, error) {
	return f.stats, f.err
}

type testEnv struct {
	carts     *fakeCartService
	checkouts *fakeCheckoutService
	stats     *fakeAnalyticsStore
	router    http.Handler
}

func newTestEnv() *testEnv {
	e := &testEnv{
		carts:     &fakeCartService{},
		checkouts: &fakeCheckoutService{orderNumber: "number-1"},
		stats:     &fakeAnalyticsStore{},
	}
	e.router = NewRouter(NewCartHandler(e.carts), NewOrderHandler(e.checkouts), NewAnalyticsHandler(e.stats))
	return e
}

func (e *testEnv) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authed {
		req.Header.Set(HeaderUserID, "user-1")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	rec := newTestEnv().do(t, http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingUserIDHeader(t *testing.T) {
	env := newTestEnv()
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/cart/"},
		{http.MethodPost, "/api/orders/checkout"},
		{http.MethodGet, "/api/orders/"},
	} {
		rec := env.do(t, tc.method, tc.path, "", false)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAddItem_OK(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodPost, "/api/cart/items",
		`{"productId":101,"variantId":"v1","merchantId":"m1","quantity":2}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", env.carts.gotUserID)
	require.Equal(t, 2, env.carts.gotQuantity)
	require.True(t, decodeResponse(t, rec).Success)
}

func TestAddItem_InvalidBody(t *testing.T) {
	rec := newTestEnv().do(t, http.MethodPost, "/api/cart/items", `{not json`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_MissingFields(t *testing.T) {
	rec := newTestEnv().do(t, http.MethodPost, "/api/cart/items", `{"productId":101}`, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_StockConflict(t *testing.T) {
	env := newTestEnv()
	env.carts.addErr = &cart.StockError{Requested: 5, Available: 1}

	rec := env.do(t, http.MethodPost, "/api/cart/items",
		`{"productId":101,"merchantId":"m1","quantity":5}`, true)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.False(t, decodeResponse(t, rec).Success)
}

func TestAddItem_ProductNotFound(t *testing.T) {
	env := newTestEnv()
	env.carts.addErr = catalog.ErrNotFound

	rec := env.do(t, http.MethodPost, "/api/cart/items",
		`{"productId":101,"merchantId":"m-unknown","quantity":1}`, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViewCart(t *testing.T) {
	env := newTestEnv()
	env.carts.view = &cart.View{
		UserID: "user-1",
		Items:  []cart.ViewItem{{LineID: "line-1", ProductID: 101, Quantity: 2, Price: 10, SubTotal: 20}},
		Total:  20,
	}

	rec := env.do(t, http.MethodGet, "/api/cart/", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, 20.0, data["totalValue"])
}

func TestRemoveItem_RequiresQuantity(t *testing.T) {
	rec := newTestEnv().do(t, http.MethodDelete, "/api/cart/items/line-1", "", true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveItem_NotFound(t *testing.T) {
	env := newTestEnv()
	env.carts.removeErr = cart.ErrNotFound

	rec := env.do(t, http.MethodDelete, "/api/cart/items/line-1?quantity=1", "", true)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "line-1", env.carts.gotLineID)
}

func TestCheckout_OK(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodPost, "/api/orders/checkout", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)
	require.Equal(t, "number-1", resp.Data)
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := newTestEnv()
	env.checkouts.checkoutErr = checkout.ErrEmptyCart

	rec := env.do(t, http.MethodPost, "/api/orders/checkout", "", true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_ProductUnavailable(t *testing.T) {
	env := newTestEnv()
	env.checkouts.checkoutErr = &checkout.ProductUnavailableError{ProductID: 101, Err: catalog.ErrNotFound}

	rec := env.do(t, http.MethodPost, "/api/orders/checkout", "", true)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	env := newTestEnv()
	env.checkouts.checkoutErr = &checkout.InsufficientStockError{Product: "P", Requested: 5, Available: 1}

	rec := env.do(t, http.MethodPost, "/api/orders/checkout", "", true)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckout_InternalError(t *testing.T) {
	env := newTestEnv()
	env.checkouts.checkoutErr = errors.New("db down")

	rec := env.do(t, http.MethodPost, "/api/orders/checkout", "", true)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOrderHistory(t *testing.T) {
	env := newTestEnv()
	env.checkouts.orders = []order.Order{{ID: "order-1", OrderNumber: "number-1", Status: order.StatusConfirmed}}

	rec := env.do(t, http.MethodGet, "/api/orders/", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
}

func TestOrderLineDetail_NotFound(t *testing.T) {
	env := newTestEnv()
	env.checkouts.lineErr = order.ErrNotFound

	rec := env.do(t, http.MethodGet, "/api/orders/items/missing", "", true)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMerchantStats_Public(t *testing.T) {
	env := newTestEnv()
	env.stats.orders = 7
	env.stats.revenue = 350.0

	// No X-User-Id header: merchant stats are not user scoped
	rec := env.do(t, http.MethodGet, "/api/merchants/m1/total-orders", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 7.0, decodeResponse(t, rec).Data)

	rec = env.do(t, http.MethodGet, "/api/merchants/m1/total-revenue", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 350.0, decodeResponse(t, rec).Data)
}

func TestMerchantStats_RequiresProductID(t *testing.T) {
	rec := newTestEnv().do(t, http.MethodGet, "/api/merchants/m1/stats", "", false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMerchantStats_ByKey(t *testing.T) {
	env := newTestEnv()
	env.stats.stats = analytics.Stats{MerchantID: "m1", ProductID: 101, VariantID: "v1", UnitsSold: 2, Revenue: 200}

	rec := env.do(t, http.MethodGet, "/api/merchants/m1/stats?productId=101&variantId=v1", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	data, ok := decodeResponse(t, rec).Data.(map[string]any)
	require.True(t, ok)
	require.Equal(t, 2.0, data["unitsSold"])
	require.Equal(t, 200.0, data["revenue"])
}
