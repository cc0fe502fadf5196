package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velmart/checkout-core/internal/domain/stock"
)

var _ stock.Repository = (*StockRepository)(nil)

// StockRepository implements stock.Repository backed by PostgreSQL.
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository returns a StockRepository that uses the given pool.
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

// DecrementClamped subtracts qty from the product's quantity, clamped at
// zero, as a single statement. Row-level locking in PostgreSQL serializes
// concurrent decrements of the same product, so both always apply.
func (r *StockRepository) DecrementClamped(ctx context.Context, productID string, qty int) (int, error) {
	var remaining int
	err := r.pool.QueryRow(ctx, `
		UPDATE product_stock
		SET quantity = GREATEST(quantity - $2, 0), updated_at = now()
		WHERE product_id = $1
		RETURNING quantity`,
		productID, qty,
	).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, stock.ErrProductUnknown
		}
		return 0, errors.Wrapf(err, "decrement stock for %q", productID)
	}
	return remaining, nil
}

// Quantity reads the current available quantity.
func (r *StockRepository) Quantity(ctx context.Context, productID string) (int, error) {
	var qty int
	err := r.pool.QueryRow(ctx,
		`SELECT quantity FROM product_stock WHERE product_id = $1`, productID,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, stock.ErrProductUnknown
		}
		return 0, errors.Wrapf(err, "select stock for %q", productID)
	}
	return qty, nil
}

// Upsert sets the absolute quantity for a product. Used by seeding and the
// bulk feed loader, not by order flow.
func (r *StockRepository) Upsert(ctx context.Context, productID string, qty int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO product_stock (product_id, quantity, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (product_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, updated_at = now()`,
		productID, qty,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert stock for %q", productID)
	}
	return nil
}

// RecordFailedAdjustment appends a durable record of a decrement that could
// not be applied, for manual reconciliation.
func (r *StockRepository) RecordFailedAdjustment(ctx context.Context, productID string, qty int, reason string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stock_adjustment_failures (product_id, quantity, reason)
		VALUES ($1, $2, $3)`,
		productID, qty, reason,
	)
	if err != nil {
		return errors.Wrapf(err, "record failed adjustment for %q", productID)
	}
	return nil
}
