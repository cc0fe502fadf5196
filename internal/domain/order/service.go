package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/velmart/checkout-core/internal/domain/stock"
	"github.com/velmart/checkout-core/internal/fault"
)

// Validation sentinels. All carry KindValidation so handlers can map them
// without string matching.
var (
	ErrEmptyItems      = fault.New(fault.KindValidation, "order items required")
	ErrMissingContact  = fault.New(fault.KindValidation, "customer name and email required")
	ErrMissingShipping = fault.New(fault.KindValidation, "shipping line1, city and pincode required")
	ErrNotFound        = fault.New(fault.KindValidation, "order not found")
)

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return "quantity must be greater than 0 for product " + e.ProductID
}

// Kind classifies the error for handler mapping.
func (e *InvalidQuantityError) Kind() fault.Kind { return fault.KindValidation }

// PlaceOrderRequest holds the input for placing an order. Subtotal and unit
// prices are taken as submitted: the core snapshots cart-time prices rather
// than revalidating them against the current catalog (price lock at cart
// time; see DESIGN.md).
type PlaceOrderRequest struct {
	UserID        string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Shipping      Address
	Items         []Item
	Subtotal      decimal.Decimal
	ShippingFee   decimal.Decimal
	PaymentMethod string
}

// Service sequences order creation: validate, persist as placed/pending,
// then apply stock decrements per line item.
type Service struct {
	orders Repository
	ledger *stock.Ledger
	lg     *zap.Logger
}

// NewService creates an order Service with the required dependencies.
func NewService(orders Repository, ledger *stock.Ledger, lg *zap.Logger) *Service {
	return &Service{orders: orders, ledger: ledger, lg: lg}
}

// PlaceOrder validates the cart, computes the total once as
// subtotal + shipping, persists the order in placed/pending, and hands each
// line item to the stock ledger. Ledger failures are logged and skipped:
// a lost stock decrement is recoverable by reconciliation, a lost order
// record is not, so the persisted order is authoritative even when stock
// bookkeeping lags.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
	}
	if req.CustomerName == "" || req.CustomerEmail == "" {
		return nil, ErrMissingContact
	}
	if req.Shipping.Line1 == "" || req.Shipping.City == "" || req.Shipping.Pincode == "" {
		return nil, ErrMissingShipping
	}

	now := time.Now().UTC()
	o := &Order{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Shipping:      req.Shipping,
		Items:         req.Items,
		Subtotal:      req.Subtotal.Round(2),
		ShippingFee:   req.ShippingFee.Round(2),
		Total:         req.Subtotal.Add(req.ShippingFee).Round(2),
		PaymentMethod: req.PaymentMethod,
		Status:        StatusPlaced,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fault.Wrap(fault.KindDependency, err, "create order")
	}

	for _, item := range o.Items {
		if _, err := s.ledger.Decrement(ctx, item.ProductID, item.Quantity); err != nil {
			s.lg.Warn("stock decrement skipped",
				zap.String("order_id", o.ID),
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}

	return o, nil
}

// Get fetches an order by id.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ApplyPatch merges an administrator's partial update into the order and
// persists it. Transitions violating the state machine are rejected before
// any write.
func (s *Service) ApplyPatch(ctx context.Context, id string, p Patch) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(o); err != nil {
		return nil, err
	}
	o.UpdatedAt = time.Now().UTC()
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fault.Wrap(fault.KindDependency, err, "update order")
	}
	return o, nil
}
