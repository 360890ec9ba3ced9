package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("order not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	// Create persists the order shell so lines can reference a stable id.
	Create(ctx context.Context, o *Order) error
	AppendLine(ctx context.Context, l *Line) error
	UpdateTotal(ctx context.Context, orderID string, total float64) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	GetLine(ctx context.Context, lineID string) (*Line, error)
}

type repo struct {
	pool DBPool
}

func NewRepository(pool DBPool) Repository {
	return &repo{pool: pool}
}

func (r *repo) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO orders (id, order_number, user_id, status, total_amount, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.OrderNumber, o.UserID, string(o.Status), o.TotalAmount, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *repo) AppendLine(ctx context.Context, l *Line) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO order_lines (id, order_id, product_id, variant_id, merchant_id, merchant_name, quantity, price, image_url)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.OrderID, l.ProductID, l.VariantID, l.MerchantID, l.MerchantName, l.Quantity, l.Price, l.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("insert order line: %w", err)
	}
	return nil
}

func (r *repo) UpdateTotal(ctx context.Context, orderID string, total float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET total_amount = $2 WHERE id = $1`,
		orderID, total,
	)
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_number, user_id, status, total_amount, created_at
         FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		var status string
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.UserID, &status, &o.TotalAmount, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = Status(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		lines, err := r.linesForOrder(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

func (r *repo) linesForOrder(ctx context.Context, orderID string) ([]Line, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product_id, variant_id, merchant_id, merchant_name, quantity, price, image_url
         FROM order_lines WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("select order lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.VariantID, &l.MerchantID, &l.MerchantName, &l.Quantity, &l.Price, &l.ImageURL); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return lines, nil
}

func (r *repo) GetLine(ctx context.Context, lineID string) (*Line, error) {
	var l Line
	err := r.pool.QueryRow(ctx,
		`SELECT id, order_id, product_id, variant_id, merchant_id, merchant_name, quantity, price, image_url
         FROM order_lines WHERE id = $1`,
		lineID,
	).Scan(&l.ID, &l.OrderID, &l.ProductID, &l.VariantID, &l.MerchantID, &l.MerchantName, &l.Quantity, &l.Price, &l.ImageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order line: %w", err)
	}
	return &l, nil
}
