package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velmart/checkout-core/internal/domain/invoice"
)

var _ invoice.Repository = (*InvoiceRepository)(nil)

// InvoiceRepository implements invoice.Repository backed by PostgreSQL.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository returns an InvoiceRepository that uses the given pool.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

// Insert persists a new invoice. The invoice number is drawn from the
// invoice_numbers sequence inside the insert itself, so concurrent inserts
// can never share a number. The UNIQUE constraint on order_id turns a
// concurrent issuance for the same order into invoice.ErrDuplicateOrder.
func (r *InvoiceRepository) Insert(ctx context.Context, inv *invoice.Invoice) (*invoice.Invoice, error) {
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return nil, errors.Wrap(err, "marshal invoice items")
	}
	shippingJSON, err := json.Marshal(inv.Shipping)
	if err != nil {
		return nil, errors.Wrap(err, "marshal invoice shipping")
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (
			id, invoice_number, order_id, customer_name, customer_email,
			shipping_address, items, subtotal, shipping_fee, total,
			payment_method, payment_status, issued_at
		) VALUES ($1, nextval('invoice_numbers'), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING invoice_number`,
		inv.ID, inv.OrderID, inv.CustomerName, inv.CustomerEmail,
		shippingJSON, itemsJSON, inv.Subtotal, inv.ShippingFee, inv.Total,
		inv.PaymentMethod, inv.PaymentStatus, inv.IssuedAt,
	)

	created := *inv
	if err := row.Scan(&created.Number); err != nil {
		if isUniqueViolation(err) {
			return nil, invoice.ErrDuplicateOrder
		}
		return nil, errors.Wrapf(err, "insert invoice for order %q", inv.OrderID)
	}
	return &created, nil
}

// FindByOrderID fetches the invoice referencing the given order. Returns
// invoice.ErrNoInvoice when none exists.
func (r *InvoiceRepository) FindByOrderID(ctx context.Context, orderID string) (*invoice.Invoice, error) {
	var (
		inv          invoice.Invoice
		itemsJSON    []byte
		shippingJSON []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, invoice_number, order_id, customer_name, customer_email,
		       shipping_address, items, subtotal, shipping_fee, total,
		       payment_method, payment_status, issued_at
		FROM invoices WHERE order_id = $1`, orderID,
	).Scan(
		&inv.ID, &inv.Number, &inv.OrderID, &inv.CustomerName, &inv.CustomerEmail,
		&shippingJSON, &itemsJSON, &inv.Subtotal, &inv.ShippingFee, &inv.Total,
		&inv.PaymentMethod, &inv.PaymentStatus, &inv.IssuedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoice.ErrNoInvoice
		}
		return nil, errors.Wrapf(err, "select invoice for order %q", orderID)
	}

	if err := json.Unmarshal(itemsJSON, &inv.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal invoice items")
	}
	if err := json.Unmarshal(shippingJSON, &inv.Shipping); err != nil {
		return nil, errors.Wrap(err, "unmarshal invoice shipping")
	}

	return &inv, nil
}
