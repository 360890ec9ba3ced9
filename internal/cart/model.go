package cart

import "time"

// Line is one product/variant/merchant entry in a user's cart.
// Price is the verified unit price at the time the line was added;
// checkout re-verifies it against the catalog and never trusts it.
type Line struct {
	ID         string    `json:"lineId"`
	UserID     string    `json:"userId"`
	ProductID  int64     `json:"productId"`
	VariantID  string    `json:"variantId"`
	MerchantID string    `json:"merchantId"`
	Quantity   int       `json:"quantity"`
	Price      float64   `json:"price"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// View is the cart as returned to the user: lines with subtotals and a
// running total. It is what the cache stores.
type View struct {
	UserID string     `json:"userId"`
	Items  []ViewItem `json:"items"`
	Total  float64    `json:"totalValue"`
}

type ViewItem struct {
	LineID     string  `json:"lineId"`
	ProductID  int64   `json:"productId"`
	VariantID  string  `json:"variantId"`
	MerchantID string  `json:"merchantId"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	SubTotal   float64 `json:"subTotal"`
}
