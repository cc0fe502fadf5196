package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"

	"github.com/velmart/checkout-core/internal/domain/order"
	"github.com/velmart/checkout-core/internal/fault"
)

// VerifyRequest is a payment callback from the gateway.
type VerifyRequest struct {
	SessionID string
	PaymentID string
	Signature string
	OrderID   string
}

// VerifyResult reports the outcome of a callback verification.
//
// Verified is true whenever the signature checked out, even when the
// subsequent persistence failed; callers must distinguish "verified but not
// recorded" (Verified true + error) from "invalid" (Verified false + error).
type VerifyResult struct {
	Verified bool
	// Applied is true on the first pending→confirmed transition. A duplicate
	// delivery of the same valid callback reports AlreadyProcessed instead;
	// downstream side effects (invoice issuance) key off Applied.
	Applied          bool
	AlreadyProcessed bool
}

// Verifier validates gateway callbacks and owns the pending→confirmed order
// transition.
type Verifier struct {
	secret []byte
	orders order.Repository
	guard  *ReplayGuard
	lg     *zap.Logger
}

// NewVerifier creates a Verifier. The signing secret is injected at
// construction. guard may be nil; the conditional database update is the
// idempotency authority and the guard only short-circuits duplicate work.
func NewVerifier(secret []byte, orders order.Repository, guard *ReplayGuard, lg *zap.Logger) *Verifier {
	return &Verifier{secret: secret, orders: orders, guard: guard, lg: lg}
}

// Signature computes the expected callback signature: hex-encoded
// HMAC-SHA256 over "sessionID|paymentID" with the server-held secret.
func (v *Verifier) Signature(sessionID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(sessionID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the callback's authenticity and, on the first valid
// delivery, flips the order to confirmed/completed, recording the gateway
// triple together. A forged or missing signature never changes state.
// Duplicate deliveries of a valid callback succeed without re-applying side
// effects.
func (v *Verifier) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	if req.SessionID == "" || req.PaymentID == "" || req.Signature == "" || req.OrderID == "" {
		return nil, fault.New(fault.KindValidation, "session id, payment id, signature and order id are required")
	}

	expected := v.Signature(req.SessionID, req.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
		v.lg.Warn("payment signature mismatch",
			zap.String("order_id", req.OrderID),
			zap.String("gateway_session_id", req.SessionID),
			zap.String("gateway_payment_id", req.PaymentID),
		)
		return nil, fault.New(fault.KindAuthenticity, "payment signature mismatch")
	}

	// Signature is good from here on. Any failure below must surface as
	// "verified but not persisted", never as "invalid".
	if v.guard != nil && v.guard.Observe(ctx, req.SessionID, req.PaymentID) {
		if o, err := v.orders.Get(ctx, req.OrderID); err == nil &&
			o.PaymentStatus == order.PaymentCompleted && o.Gateway.PaymentID == req.PaymentID {
			return &VerifyResult{Verified: true, AlreadyProcessed: true}, nil
		}
		// Guard said duplicate but the order disagrees: fall through to the
		// authoritative conditional update.
	}

	applied, err := v.orders.MarkPaid(ctx, req.OrderID, order.GatewayRef{
		OrderID:   req.SessionID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		if fault.IsKind(err, fault.KindValidation) {
			// Unknown order: verified signature, nothing to transition.
			return &VerifyResult{Verified: true}, err
		}
		return &VerifyResult{Verified: true}, fault.Wrap(fault.KindDependency, err, "record verified payment")
	}

	if !applied {
		return &VerifyResult{Verified: true, AlreadyProcessed: true}, nil
	}
	return &VerifyResult{Verified: true, Applied: true}, nil
}
