// Package analytics maintains running per-(merchant, product, variant)
// sales counters. Counters accumulate on every recorded sale; there is no
// idempotency key, so each call must correspond to a distinct order line.
package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Stats is one counter row keyed by merchant/product/variant.
type Stats struct {
	MerchantID string  `json:"merchantId"`
	ProductID  int64   `json:"productId"`
	VariantID  string  `json:"variantId"`
	UnitsSold  int     `json:"unitsSold"`
	Revenue    float64 `json:"revenue"`
}

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	// RecordSale adds quantity to units sold and quantity*unitPrice to
	// revenue, creating the counter row on first sale of the key.
	RecordSale(ctx context.Context, merchantID string, productID int64, variantID string, quantity int, unitPrice float64) error
	TotalOrders(ctx context.Context, merchantID string) (int, error)
	TotalRevenue(ctx context.Context, merchantID string) (float64, error)
	Get(ctx context.Context, merchantID string, productID int64, variantID string) (Stats, error)
}

type repo struct {
	pool DBPool
}

func NewRepository(pool DBPool) Repository {
	return &repo{pool: pool}
}

func (r *repo) RecordSale(ctx context.Context, merchantID string, productID int64, variantID string, quantity int, unitPrice float64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO merchant_analytics (merchant_id, product_id, variant_id, units_sold, revenue)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (merchant_id, product_id, variant_id) DO UPDATE
		SET units_sold = merchant_analytics.units_sold + EXCLUDED.units_sold,
		    revenue = merchant_analytics.revenue + EXCLUDED.revenue
	`, merchantID, productID, variantID, quantity, float64(quantity)*unitPrice)
	if err != nil {
		return fmt.Errorf("record sale: %w", err)
	}
	return nil
}

func (r *repo) TotalOrders(ctx context.Context, merchantID string) (int, error) {
	var total *int
	err := r.pool.QueryRow(ctx,
		`SELECT SUM(units_sold) FROM merchant_analytics WHERE merchant_id = $1`,
		merchantID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum units sold: %w", err)
	}
	if total == nil {
		// No rows for this merchant yet
		return 0, nil
	}
	return *total, nil
}

func (r *repo) TotalRevenue(ctx context.Context, merchantID string) (float64, error) {
	var total *float64
	err := r.pool.QueryRow(ctx,
		`SELECT SUM(revenue) FROM merchant_analytics WHERE merchant_id = $1`,
		merchantID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// Get returns the counter row for the key, or a zero-valued Stats carrying
// the key when no sale has been recorded yet.
func (r *repo) Get(ctx context.Context, merchantID string, productID int64, variantID string) (Stats, error) {
	s := Stats{MerchantID: merchantID, ProductID: productID, VariantID: variantID}
	err := r.pool.QueryRow(ctx,
		`SELECT units_sold, revenue FROM merchant_analytics
         WHERE merchant_id = $1 AND product_id = $2 AND variant_id = $3`,
		merchantID, productID, variantID,
	).Scan(&s.UnitsSold, &s.Revenue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, nil
		}
		return Stats{}, fmt.Errorf("select stats: %w", err)
	}
	return s, nil
}
