package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/velmart/checkout-core/internal/domain/payment"
	"github.com/velmart/checkout-core/internal/fault"
)

type openSessionRequest struct {
	Amount     decimal.Decimal   `json:"amount"`
	Currency   string            `json:"currency"`
	ReceiptRef string            `json:"receiptRef"`
	Notes      map[string]string `json:"notes,omitempty"`
}

type openSessionResponse struct {
	SessionID   string `json:"sessionId"`
	AmountMinor int64  `json:"amountMinor"`
	Currency    string `json:"currency"`
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Amount.IsZero() {
		respondError(w, r, fault.New(fault.KindValidation, "amount is required"))
		return
	}
	if req.Currency == "" {
		req.Currency = h.currency
	}

	sess, err := h.sessions.OpenSession(r.Context(), payment.SessionRequest{
		Amount:     req.Amount,
		Currency:   req.Currency,
		ReceiptRef: req.ReceiptRef,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, openSessionResponse{
		SessionID:   sess.ID,
		AmountMinor: sess.AmountMinor,
		Currency:    sess.Currency,
	})
}

type verifyRequest struct {
	SessionID string `json:"sessionId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
	OrderID   string `json:"orderId"`
}

type verifyResponse struct {
	Verified         bool   `json:"verified"`
	Recorded         bool   `json:"recorded"`
	AlreadyProcessed bool   `json:"alreadyProcessed,omitempty"`
	InvoiceNumber    int64  `json:"invoiceNumber,omitempty"`
	Message          string `json:"message,omitempty"`
}

// verifyPayment handles the gateway callback. The response must keep
// "verified but not recorded" (500, verified=true) distinguishable from
// "invalid" (400, verified=false): a caller retries the former and alerts on
// the latter.
func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.verifier.Verify(r.Context(), payment.VerifyRequest{
		SessionID: req.SessionID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		OrderID:   req.OrderID,
	})
	if err != nil {
		if result != nil && result.Verified && fault.IsKind(err, fault.KindDependency) {
			zctx.From(r.Context()).Error("verified payment not persisted",
				zap.String("order_id", req.OrderID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, verifyResponse{
				Verified: true,
				Recorded: false,
				Message:  "payment verified but not recorded; retry the callback",
			})
			return
		}
		respondError(w, r, err)
		return
	}

	resp := verifyResponse{
		Verified:         true,
		Recorded:         true,
		AlreadyProcessed: result.AlreadyProcessed,
	}

	// First paid transition triggers invoice issuance. A failure here never
	// un-verifies the payment; the explicit issuance endpoint covers retries.
	if result.Applied {
		if inv, _, err := h.sequencer.Issue(r.Context(), req.OrderID); err != nil {
			zctx.From(r.Context()).Error("invoice issuance after payment failed",
				zap.String("order_id", req.OrderID), zap.Error(err))
		} else {
			resp.InvoiceNumber = inv.Number
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
