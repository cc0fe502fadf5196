// Package handler exposes the checkout core over a narrow HTTP JSON
// contract: order creation, payment session opening, the gateway callback,
// invoice issuance, and the admin order patch.
package handler

import (
	"net/http"

	"github.com/velmart/checkout-core/internal/domain/auth"
	"github.com/velmart/checkout-core/internal/domain/invoice"
	"github.com/velmart/checkout-core/internal/domain/order"
	"github.com/velmart/checkout-core/internal/domain/payment"
)

// Handler wires HTTP requests to the domain services.
type Handler struct {
	orders    *order.Service
	sessions  payment.SessionClient
	verifier  *payment.Verifier
	sequencer *invoice.Sequencer
	security  *Security
	currency  string
}

// Config holds non-dependency handler configuration.
type Config struct {
	// Currency is the ISO code sent to the gateway when the caller omits
	// one.
	Currency string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	orders *order.Service,
	sessions payment.SessionClient,
	verifier *payment.Verifier,
	sequencer *invoice.Sequencer,
	security *Security,
) *Handler {
	return &Handler{
		orders:    orders,
		sessions:  sessions,
		verifier:  verifier,
		sequencer: sequencer,
		security:  security,
		currency:  cfg.Currency,
	}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/orders", h.security.Require(auth.ScopeOrders, http.HandlerFunc(h.createOrder)))
	mux.Handle("POST /api/payments/session", h.security.Require(auth.ScopeOrders, http.HandlerFunc(h.openSession)))
	mux.Handle("POST /api/payments/verify", http.HandlerFunc(h.verifyPayment))
	mux.Handle("POST /api/orders/{id}/invoice", h.security.Require(auth.ScopeOrders, http.HandlerFunc(h.issueInvoice)))
	mux.Handle("PATCH /api/orders/{id}", h.security.Require(auth.ScopeAdmin, http.HandlerFunc(h.patchOrder)))
}
