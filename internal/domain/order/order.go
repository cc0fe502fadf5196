package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of an order.
type Status string

const (
	StatusPlaced    Status = "placed"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Item is a single order line with the unit price captured at order time.
// Catalog edits after placement never change historical orders.
type Item struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Address is the shipping destination for an order.
type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// GatewayRef is the payment gateway correlation triple. It is recorded
// together on the paid transition or not at all; a partially populated
// triple is a defect.
type GatewayRef struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Order is a customer's committed purchase request.
type Order struct {
	ID            string
	UserID        string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Shipping      Address
	Items         []Item
	Subtotal      decimal.Decimal
	ShippingFee   decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	Status        Status
	PaymentStatus PaymentStatus
	Gateway       GatewayRef
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository defines persistence operations for orders. MarkPaid is the
// single write path for the pending→confirmed transition and must apply the
// status flip and the gateway triple in one conditional statement, reporting
// applied=false when the order was already completed.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	MarkPaid(ctx context.Context, id string, ref GatewayRef) (applied bool, err error)
	Update(ctx context.Context, o *Order) error
}
