// Package invoice issues immutable, sequentially numbered billing snapshots,
// at most one per paid order.
package invoice

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/velmart/checkout-core/internal/domain/order"
	"github.com/velmart/checkout-core/internal/fault"
)

// Repository errors.
var (
	// ErrNoInvoice is returned by FindByOrderID when the order has no
	// invoice yet.
	ErrNoInvoice = errors.New("no invoice for order")
	// ErrDuplicateOrder is returned by Insert when the unique constraint on
	// the order reference fires; it is the backstop for the idempotency
	// check's race window.
	ErrDuplicateOrder = fault.New(fault.KindConflict, "invoice already exists for order")
)

// Invoice is an immutable billing snapshot of an order at issuance time.
// There is no update path.
type Invoice struct {
	ID            string
	Number        int64
	OrderID       string
	CustomerName  string
	CustomerEmail string
	Shipping      order.Address
	Items         []order.Item
	Subtotal      decimal.Decimal
	ShippingFee   decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	PaymentStatus order.PaymentStatus
	IssuedAt      time.Time
}

// Repository defines persistence for invoices.
//
// Insert must assign Number from a single atomic counter inside the insert
// statement itself, so that concurrent issuances for distinct orders never
// share a number, and must enforce uniqueness on OrderID, returning
// ErrDuplicateOrder on violation.
type Repository interface {
	FindByOrderID(ctx context.Context, orderID string) (*Invoice, error)
	Insert(ctx context.Context, inv *Invoice) (*Invoice, error)
}
