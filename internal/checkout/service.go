// Package checkout turns a user's mutable cart into an immutable order.
//
// The pipeline re-verifies every line against the live catalog, commits
// order lines one by one, and treats analytics and remote inventory updates
// as best-effort side effects. A verification or stock failure aborts the
// whole checkout and leaves the cart untouched; the order shell and any
// lines committed before the failing line remain (no compensating delete).
package checkout

import (
	"context"
	"fmt"
	"log"

	"github.com/nikhilarsid/order-service/internal/cart"
	"github.com/nikhilarsid/order-service/internal/catalog"
	"github.com/nikhilarsid/order-service/internal/order"
)

// CartStore is the slice of the cart service checkout needs.
type CartStore interface {
	Lines(ctx context.Context, userID string) ([]cart.Line, error)
	Clear(ctx context.Context, userID string) error
}

type OrderStore interface {
	Create(ctx context.Context, o *order.Order) error
	AppendLine(ctx context.Context, l *order.Line) error
	UpdateTotal(ctx context.Context, orderID string, total float64) error
	ListByUser(ctx context.Context, userID string) ([]order.Order, error)
	GetLine(ctx context.Context, lineID string) (*order.Line, error)
}

type Catalog interface {
	Verify(ctx context.Context, productID int64, variantID, merchantID string) (catalog.Snapshot, error)
	ReduceStock(ctx context.Context, productID int64, variantID, merchantID string, quantity int) error
}

type Analytics interface {
	RecordSale(ctx context.Context, merchantID string, productID int64, variantID string, quantity int, unitPrice float64) error
}

// Publisher emits the order-confirmed event after a successful checkout.
type Publisher interface {
	PublishOrderConfirmed(ctx context.Context, o *order.Order) error
}

type Service struct {
	carts     CartStore
	orders    OrderStore
	catalog   Catalog
	analytics Analytics
	events    Publisher // optional
	logger    *log.Logger
}

func NewService(carts CartStore, orders OrderStore, cat Catalog, analytics Analytics, events Publisher, logger *log.Logger) *Service {
	return &Service{
		carts:     carts,
		orders:    orders,
		catalog:   cat,
		analytics: analytics,
		events:    events,
		logger:    logger,
	}
}

// Checkout drains the user's cart into a new order and returns the order
// number. Lines are processed strictly in cart retrieval order; the first
// verification or stock failure aborts before any later line is written.
func (s *Service) Checkout(ctx context.Context, userID string) (string, error) {
	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	// The order shell is persisted first so lines reference a stable id.
	// An abort below leaves it behind with whatever lines were committed.
	o := &order.Order{
		UserID: userID,
		Status: order.StatusConfirmed,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	s.logger.Printf("checkout started: user=%s order=%s lines=%d", userID, o.ID, len(lines))

	total := 0.0
	for _, cl := range lines {
		snap, err := s.catalog.Verify(ctx, cl.ProductID, cl.VariantID, cl.MerchantID)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", &ProductUnavailableError{ProductID: cl.ProductID, Err: err}
		}

		if snap.Stock < cl.Quantity {
			return "", &InsufficientStockError{
				Product:   snap.Name,
				Requested: cl.Quantity,
				Available: snap.Stock,
			}
		}

		// The verified price overrides whatever the cart stored at add time.
		ol := &order.Line{
			OrderID:      o.ID,
			ProductID:    cl.ProductID,
			VariantID:    cl.VariantID,
			MerchantID:   cl.MerchantID,
			MerchantName: snap.MerchantName,
			Quantity:     cl.Quantity,
			Price:        snap.Price,
			ImageURL:     snap.ImageURL,
		}
		if err := s.orders.AppendLine(ctx, ol); err != nil {
			return "", fmt.Errorf("append order line: %w", err)
		}
		o.Lines = append(o.Lines, *ol)
		total += snap.Price * float64(cl.Quantity)

		// Best effort from here: a failed counter update or remote decrement
		// never rolls back a committed order line.
		if err := s.analytics.RecordSale(ctx, cl.MerchantID, cl.ProductID, cl.VariantID, cl.Quantity, snap.Price); err != nil {
			s.logger.Printf("analytics update failed: order=%s merchant=%s product=%d: %v", o.ID, cl.MerchantID, cl.ProductID, err)
		}
		if err := s.catalog.ReduceStock(ctx, cl.ProductID, cl.VariantID, cl.MerchantID, cl.Quantity); err != nil {
			s.logger.Printf("inventory decrement failed: order=%s product=%d qty=%d: %v", o.ID, cl.ProductID, cl.Quantity, err)
		}
	}

	if err := s.orders.UpdateTotal(ctx, o.ID, total); err != nil {
		return "", fmt.Errorf("finalize order total: %w", err)
	}
	o.TotalAmount = total

	if err := s.carts.Clear(ctx, userID); err != nil {
		return "", fmt.Errorf("clear cart: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishOrderConfirmed(ctx, o); err != nil {
			s.logger.Printf("order confirmed event failed: order=%s: %v", o.ID, err)
		}
	}

	s.logger.Printf("checkout complete: user=%s order=%s number=%s total=%.2f", userID, o.ID, o.OrderNumber, total)
	return o.OrderNumber, nil
}

// OrderHistory lists the user's past orders, newest first.
func (s *Service) OrderHistory(ctx context.Context, userID string) ([]order.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// OrderLineDetail returns a single order line by id.
func (s *Service) OrderLineDetail(ctx context.Context, lineID string) (*order.Line, error) {
	return s.orders.GetLine(ctx, lineID)
}
