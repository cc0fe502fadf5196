// Package stock owns per-product available-quantity bookkeeping.
package stock

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/velmart/checkout-core/internal/fault"
)

// ErrProductUnknown is returned when a decrement targets a product with no
// stock row.
var ErrProductUnknown = errors.New("product has no stock entry")

// Repository is the persistence contract for stock quantities.
//
// DecrementClamped must be a single atomic conditional statement at the
// store (e.g. "quantity = GREATEST(quantity - n, 0)"), never a read followed
// by a write from application code: concurrent decrements of the same
// product must both be reflected. It returns ErrProductUnknown when the row
// does not exist.
type Repository interface {
	DecrementClamped(ctx context.Context, productID string, qty int) (remaining int, err error)
	Quantity(ctx context.Context, productID string) (int, error)
	Upsert(ctx context.Context, productID string, qty int) error
	RecordFailedAdjustment(ctx context.Context, productID string, qty int, reason string) error
}

// Ledger is the exclusive owner of stock decrements applied for orders.
type Ledger struct {
	repo Repository
	lg   *zap.Logger
}

// NewLedger creates a Ledger backed by the given repository.
func NewLedger(repo Repository, lg *zap.Logger) *Ledger {
	return &Ledger{repo: repo, lg: lg}
}

// Decrement subtracts qty from the product's available quantity, clamping at
// zero. Failures are classified as dependency errors; a failed decrement is
// additionally written to the failed-adjustment log (best effort) so manual
// reconciliation has a queue to drain instead of a silent loss.
func (l *Ledger) Decrement(ctx context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, fault.Newf(fault.KindValidation, "decrement quantity must be positive, got %d", qty)
	}

	remaining, err := l.repo.DecrementClamped(ctx, productID, qty)
	if err != nil {
		if recErr := l.repo.RecordFailedAdjustment(ctx, productID, qty, err.Error()); recErr != nil {
			l.lg.Warn("failed adjustment not recorded",
				zap.String("product_id", productID),
				zap.Int("quantity", qty),
				zap.Error(recErr),
			)
		}
		return 0, fault.Wrap(fault.KindDependency, err, "decrement stock")
	}

	return remaining, nil
}

// Quantity reports the current available quantity for a product.
func (l *Ledger) Quantity(ctx context.Context, productID string) (int, error) {
	qty, err := l.repo.Quantity(ctx, productID)
	if err != nil {
		return 0, fault.Wrap(fault.KindDependency, err, "read stock")
	}
	return qty, nil
}
