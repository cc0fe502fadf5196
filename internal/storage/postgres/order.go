package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velmart/checkout-core/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items and the shipping address are serialized to JSONB columns; money
// fields are NUMERIC.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}
	shippingJSON, err := json.Marshal(o.Shipping)
	if err != nil {
		return errors.Wrap(err, "marshal shipping address")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (
			id, user_id, customer_name, customer_email, customer_phone,
			shipping_address, items, subtotal, shipping_fee, total,
			payment_method, order_status, payment_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.UserID, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		shippingJSON, itemsJSON, o.Subtotal, o.ShippingFee, o.Total,
		o.PaymentMethod, o.Status, o.PaymentStatus, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}
	return nil
}

// Get fetches an order by id. Returns order.ErrNotFound when absent.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var (
		o            order.Order
		itemsJSON    []byte
		shippingJSON []byte
		gwOrder      *string
		gwPayment    *string
		gwSignature  *string
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, customer_name, customer_email, customer_phone,
		       shipping_address, items, subtotal, shipping_fee, total,
		       payment_method, order_status, payment_status,
		       gateway_order_id, gateway_payment_id, gateway_signature,
		       created_at, updated_at
		FROM orders WHERE id = $1`, id,
	).Scan(
		&o.ID, &o.UserID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&shippingJSON, &itemsJSON, &o.Subtotal, &o.ShippingFee, &o.Total,
		&o.PaymentMethod, &o.Status, &o.PaymentStatus,
		&gwOrder, &gwPayment, &gwSignature,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select order %q", id)
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal order items")
	}
	if err := json.Unmarshal(shippingJSON, &o.Shipping); err != nil {
		return nil, errors.Wrap(err, "unmarshal shipping address")
	}
	if gwOrder != nil {
		o.Gateway.OrderID = *gwOrder
	}
	if gwPayment != nil {
		o.Gateway.PaymentID = *gwPayment
	}
	if gwSignature != nil {
		o.Gateway.Signature = *gwSignature
	}

	return &o, nil
}

// MarkPaid applies the pending→confirmed transition and records the gateway
// triple in one conditional statement. applied is false when the order was
// already past pending (duplicate callback); order.ErrNotFound when the
// order does not exist.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string, ref order.GatewayRef) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'completed', order_status = 'confirmed',
		    gateway_order_id = $2, gateway_payment_id = $3, gateway_signature = $4,
		    updated_at = now()
		WHERE id = $1 AND payment_status = 'pending'`,
		id, ref.OrderID, ref.PaymentID, ref.Signature,
	)
	if err != nil {
		return false, errors.Wrapf(err, "mark order %q paid", id)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// No row transitioned: either the order is already completed or it does
	// not exist. Disambiguate for the caller.
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return false, errors.Wrapf(err, "check order %q", id)
	}
	if !exists {
		return false, order.ErrNotFound
	}
	return false, nil
}

// Update persists mutable order fields. Status fields are validated by the
// domain before this is called.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	shippingJSON, err := json.Marshal(o.Shipping)
	if err != nil {
		return errors.Wrap(err, "marshal shipping address")
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET customer_phone = $2, shipping_address = $3,
		    order_status = $4, payment_status = $5, updated_at = $6
		WHERE id = $1`,
		o.ID, o.CustomerPhone, shippingJSON, o.Status, o.PaymentStatus, o.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "update order %q", o.ID)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}
