package invoice

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/velmart/checkout-core/internal/domain/order"
	"github.com/velmart/checkout-core/internal/fault"
)

// Sequencer issues invoices. Issuance is idempotent per order: retries and
// races all converge on the first issued invoice.
type Sequencer struct {
	invoices Repository
	orders   order.Repository
}

// NewSequencer creates a Sequencer.
func NewSequencer(invoices Repository, orders order.Repository) *Sequencer {
	return &Sequencer{invoices: invoices, orders: orders}
}

// Issue returns the order's invoice, creating it on first call. existed
// reports whether the invoice predates this call. A concurrent issuance for
// the same order is resolved by returning the winner's invoice, not an
// error.
func (s *Sequencer) Issue(ctx context.Context, orderID string) (inv *Invoice, existed bool, err error) {
	inv, err = s.invoices.FindByOrderID(ctx, orderID)
	switch {
	case err == nil:
		return inv, true, nil
	case !errors.Is(err, ErrNoInvoice):
		return nil, false, fault.Wrap(fault.KindDependency, err, "look up invoice")
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	candidate := &Invoice{
		ID:            uuid.New().String(),
		OrderID:       o.ID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Shipping:      o.Shipping,
		Items:         o.Items,
		Subtotal:      o.Subtotal,
		ShippingFee:   o.ShippingFee,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		IssuedAt:      time.Now().UTC(),
	}

	created, err := s.invoices.Insert(ctx, candidate)
	if err != nil {
		if errors.Is(err, ErrDuplicateOrder) {
			// Lost the race: a concurrent issuance for this order committed
			// first. Its invoice is the invoice.
			winner, findErr := s.invoices.FindByOrderID(ctx, orderID)
			if findErr != nil {
				return nil, false, fault.Wrap(fault.KindDependency, findErr, "fetch winning invoice")
			}
			return winner, true, nil
		}
		return nil, false, fault.Wrap(fault.KindDependency, err, "insert invoice")
	}

	return created, false, nil
}
