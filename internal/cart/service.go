package cart

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/nikhilarsid/order-service/internal/catalog"
)

// StockError is returned when the requested quantity exceeds the verified
// stock at add time.
type StockError struct {
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("stock not available: only %d items left, requested %d", e.Available, e.Requested)
}

// Catalog is the slice of the catalog client the cart needs.
type Catalog interface {
	Verify(ctx context.Context, productID int64, variantID, merchantID string) (catalog.Snapshot, error)
}

// Service implements cart operations: items are verified against the live
// catalog before they enter the cart, and the stored price is the verified
// price at add time.
type Service struct {
	repo    Repository
	catalog Catalog
	cache   Cache // optional
	logger  *log.Logger
}

func NewService(repo Repository, cat Catalog, cache Cache, logger *log.Logger) *Service {
	return &Service{repo: repo, catalog: cat, cache: cache, logger: logger}
}

// AddItem verifies the product/merchant offer and upserts a cart line.
// Adding a product/variant already in the cart merges quantities.
func (s *Service) AddItem(ctx context.Context, userID string, productID int64, variantID, merchantID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}

	snap, err := s.catalog.Verify(ctx, productID, variantID, merchantID)
	if err != nil {
		return fmt.Errorf("verify product %d: %w", productID, err)
	}
	if quantity > snap.Stock {
		return &StockError{Requested: quantity, Available: snap.Stock}
	}

	line, err := s.repo.Find(ctx, userID, productID, variantID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("find cart line: %w", err)
	}

	if line == nil {
		line = &Line{
			UserID:    userID,
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
		}
	} else {
		line.Quantity += quantity
	}
	line.MerchantID = merchantID
	line.Price = snap.Price

	if err := s.repo.Upsert(ctx, line); err != nil {
		return fmt.Errorf("upsert cart line: %w", err)
	}

	s.invalidate(ctx, userID)
	return nil
}

// View returns the user's cart with subtotals, served from cache when warm.
func (s *Service) View(ctx context.Context, userID string) (*View, error) {
	if s.cache != nil {
		v, err := s.cache.Get(ctx, userID)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Printf("cart cache read failed for user %s: %v", userID, err)
		}
	}

	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}

	v := &View{UserID: userID, Items: make([]ViewItem, 0, len(lines))}
	for _, l := range lines {
		sub := l.Price * float64(l.Quantity)
		v.Items = append(v.Items, ViewItem{
			LineID:     l.ID,
			ProductID:  l.ProductID,
			VariantID:  l.VariantID,
			MerchantID: l.MerchantID,
			Quantity:   l.Quantity,
			Price:      l.Price,
			SubTotal:   sub,
		})
		v.Total += sub
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, v); err != nil {
			s.logger.Printf("cart cache write failed for user %s: %v", userID, err)
		}
	}
	return v, nil
}

// RemoveItem reduces a line's quantity, deleting it when the removal covers
// the whole line. The line must belong to the user.
func (s *Service) RemoveItem(ctx context.Context, userID, lineID string, quantity int) error {
	line, err := s.repo.FindByID(ctx, userID, lineID)
	if err != nil {
		return err
	}

	if quantity >= line.Quantity {
		if err := s.repo.Delete(ctx, userID, lineID); err != nil {
			return fmt.Errorf("delete cart line: %w", err)
		}
	} else {
		line.Quantity -= quantity
		if err := s.repo.Upsert(ctx, line); err != nil {
			return fmt.Errorf("reduce cart line: %w", err)
		}
	}

	s.invalidate(ctx, userID)
	return nil
}

// Lines returns the raw cart lines in stable retrieval order. Checkout
// iterates these directly, bypassing the cached view.
func (s *Service) Lines(ctx context.Context, userID string) ([]Line, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Clear deletes every cart line for the user.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Printf("cart cache invalidation failed for user %s: %v", userID, err)
	}
}
