package checkout

import (
	"errors"
	"fmt"
)

// ErrEmptyCart means checkout was attempted with no cart lines. Nothing is
// written before this check.
var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

// ProductUnavailableError aborts checkout: a cart line's product/merchant
// offer could not be verified after retries. The cart is left untouched.
type ProductUnavailableError struct {
	ProductID int64
	Err       error
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("item out of stock or unavailable: product %d", e.ProductID)
}

func (e *ProductUnavailableError) Unwrap() error { return e.Err }

// InsufficientStockError aborts checkout: verified stock is below the
// requested quantity.
type InsufficientStockError struct {
	Product   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.Product, e.Requested, e.Available)
}
