// Package payment integrates the checkout core with the external payment
// provider: opening payment sessions and verifying signed callbacks.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/velmart/checkout-core/internal/fault"
)

// SessionRequest describes the payment session to open. Amount is in major
// currency units (e.g. rupees); the client converts it to the gateway's
// integer minor units. This is the single conversion point between the two
// representations.
type SessionRequest struct {
	Amount     decimal.Decimal
	Currency   string
	ReceiptRef string
	Notes      map[string]string
}

// Session is the provider's handle for an amount awaiting payment.
type Session struct {
	ID          string
	AmountMinor int64
	Currency    string
}

// SessionClient opens payment sessions with the external provider.
type SessionClient interface {
	OpenSession(ctx context.Context, req SessionRequest) (*Session, error)
}

// GatewayConfig holds the provider credentials and endpoint. Credentials are
// injected here at construction; business logic never reads them from the
// environment.
type GatewayConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// GatewayClient is the HTTP SessionClient for the hosted payment provider.
type GatewayClient struct {
	cfg  GatewayConfig
	http *http.Client
}

var _ SessionClient = (*GatewayClient)(nil)

// NewGatewayClient creates a GatewayClient. The zero Timeout defaults to 10s.
func NewGatewayClient(cfg GatewayConfig) *GatewayClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &GatewayClient{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// sessionBody is the provider's order-create payload. Amount is in integer
// minor units.
type sessionBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type sessionResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type gatewayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// OpenSession converts the amount to minor units and opens a session with
// the provider. A missing credential pair is a configuration failure; a
// provider rejection propagates the provider's reason verbatim.
func (c *GatewayClient) OpenSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if c.cfg.KeyID == "" || c.cfg.KeySecret == "" {
		return nil, fault.New(fault.KindDependency, "payment gateway credentials not configured")
	}
	if !req.Amount.IsPositive() {
		return nil, fault.New(fault.KindValidation, "session amount must be positive")
	}

	minor := req.Amount.Shift(2)
	if !minor.IsInteger() {
		return nil, fault.Newf(fault.KindValidation, "amount %s has sub-minor-unit precision", req.Amount)
	}

	body, err := json.Marshal(sessionBody{
		Amount:   minor.IntPart(),
		Currency: req.Currency,
		Receipt:  req.ReceiptRef,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode session request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build session request")
	}
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fault.Wrap(fault.KindDependency, err, "call payment gateway")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ge gatewayError
		if decErr := json.NewDecoder(resp.Body).Decode(&ge); decErr == nil && ge.Error.Description != "" {
			return nil, fault.Newf(fault.KindDependency, "gateway rejected session: %s", ge.Error.Description)
		}
		return nil, fault.Newf(fault.KindDependency, "gateway rejected session: status %d", resp.StatusCode)
	}

	var sr sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fault.Wrap(fault.KindDependency, err, "decode gateway response")
	}

	return &Session{
		ID:          sr.ID,
		AmountMinor: sr.Amount,
		Currency:    sr.Currency,
	}, nil
}
