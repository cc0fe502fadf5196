package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/velmart/checkout-core/internal/domain/order"
	"github.com/velmart/checkout-core/internal/fault"
)

type orderItemDTO struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type createOrderRequest struct {
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerPhone string          `json:"customerPhone"`
	Shipping      order.Address   `json:"shipping"`
	Items         []orderItemDTO  `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingFee   decimal.Decimal `json:"shippingFee"`
	PaymentMethod string          `json:"paymentMethod"`
}

type orderDTO struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	Shipping      order.Address   `json:"shipping"`
	Items         []orderItemDTO  `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingFee   decimal.Decimal `json:"shippingFee"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func toOrderDTO(o *order.Order) orderDTO {
	items := make([]orderItemDTO, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemDTO{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return orderDTO{
		ID:            o.ID,
		UserID:        o.UserID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,
		Shipping:      o.Shipping,
		Items:         items,
		Subtotal:      o.Subtotal,
		ShippingFee:   o.ShippingFee,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	items := make([]order.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.Item{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}

	o, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		UserID:        identity.UserID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Shipping:      req.Shipping,
		Items:         items,
		Subtotal:      req.Subtotal,
		ShippingFee:   req.ShippingFee,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderDTO(o))
}

type patchOrderRequest struct {
	Status        *string        `json:"status"`
	PaymentStatus *string        `json:"paymentStatus"`
	CustomerPhone *string        `json:"customerPhone"`
	Shipping      *order.Address `json:"shipping"`
}

func (h *Handler) patchOrder(w http.ResponseWriter, r *http.Request) {
	var req patchOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	patch := order.Patch{
		CustomerPhone: req.CustomerPhone,
		Shipping:      req.Shipping,
	}
	if req.Status != nil {
		s := order.Status(*req.Status)
		if s != order.StatusPlaced && s != order.StatusConfirmed && s != order.StatusCancelled {
			respondError(w, r, fault.Newf(fault.KindValidation, "unknown order status %q", *req.Status))
			return
		}
		patch.Status = &s
	}
	if req.PaymentStatus != nil {
		p := order.PaymentStatus(*req.PaymentStatus)
		if p != order.PaymentPending && p != order.PaymentCompleted && p != order.PaymentFailed {
			respondError(w, r, fault.Newf(fault.KindValidation, "unknown payment status %q", *req.PaymentStatus))
			return
		}
		patch.PaymentStatus = &p
	}

	o, err := h.orders.ApplyPatch(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderDTO(o))
}
