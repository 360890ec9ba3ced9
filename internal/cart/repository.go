package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("cart line not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Line, error)
	Find(ctx context.Context, userID string, productID int64, variantID string) (*Line, error)
	FindByID(ctx context.Context, userID, lineID string) (*Line, error)
	Upsert(ctx context.Context, l *Line) error
	Delete(ctx context.Context, userID, lineID string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type repo struct {
	pool DBPool
}

func NewRepository(pool DBPool) Repository {
	return &repo{pool: pool}
}

const lineColumns = `id, user_id, product_id, variant_id, merchant_id, quantity, price, updated_at`

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Line, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+lineColumns+` FROM cart_lines WHERE user_id = $1 ORDER BY updated_at, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.VariantID, &l.MerchantID, &l.Quantity, &l.Price, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) Find(ctx context.Context, userID string, productID int64, variantID string) (*Line, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+lineColumns+` FROM cart_lines WHERE user_id = $1 AND product_id = $2 AND variant_id = $3`,
		userID, productID, variantID,
	)
	return scanLine(row)
}

func (r *repo) FindByID(ctx context.Context, userID, lineID string) (*Line, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+lineColumns+` FROM cart_lines WHERE id = $1 AND user_id = $2`,
		lineID, userID,
	)
	return scanLine(row)
}

func scanLine(row pgx.Row) (*Line, error) {
	var l Line
	err := row.Scan(&l.ID, &l.UserID, &l.ProductID, &l.VariantID, &l.MerchantID, &l.Quantity, &l.Price, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Upsert inserts the line, or on (user, product, variant) conflict replaces
// quantity, merchant and price. Callers merge quantities before calling.
func (r *repo) Upsert(ctx context.Context, l *Line) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cart_lines (id, user_id, product_id, variant_id, merchant_id, quantity, price, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (user_id, product_id, variant_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    merchant_id = EXCLUDED.merchant_id,
		    price = EXCLUDED.price,
		    updated_at = now()
	`, l.ID, l.UserID, l.ProductID, l.VariantID, l.MerchantID, l.Quantity, l.Price)
	return err
}

func (r *repo) Delete(ctx context.Context, userID, lineID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cart_lines WHERE id = $1 AND user_id = $2`,
		lineID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID)
	return err
}
