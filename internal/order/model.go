package order

import "time"

type Status string

const (
	// StatusConfirmed is the only status checkout produces. Cancellation
	// and fulfillment are handled outside this service.
	StatusConfirmed Status = "CONFIRMED"
)

// Line is an immutable snapshot of one cart line at checkout time. Price,
// merchant name and image come from the catalog verification, never from
// the cart.
type Line struct {
	ID           string  `json:"lineId"`
	OrderID      string  `json:"-"`
	ProductID    int64   `json:"productId"`
	VariantID    string  `json:"variantId"`
	MerchantID   string  `json:"merchantId"`
	MerchantName string  `json:"merchantName"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	ImageURL     string  `json:"imageUrl"`
}

type Order struct {
	ID          string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	UserID      string    `json:"userId"`
	Status      Status    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
	Lines       []Line    `json:"items"`
}
