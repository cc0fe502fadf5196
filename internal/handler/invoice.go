package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/velmart/checkout-core/internal/domain/invoice"
	"github.com/velmart/checkout-core/internal/domain/order"
)

type invoiceDTO struct {
	ID            string          `json:"id"`
	Number        int64           `json:"invoiceNumber"`
	OrderID       string          `json:"orderId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Shipping      order.Address   `json:"shipping"`
	Items         []orderItemDTO  `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingFee   decimal.Decimal `json:"shippingFee"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentStatus string          `json:"paymentStatus"`
	IssuedAt      time.Time       `json:"issuedAt"`
}

type issueInvoiceResponse struct {
	Invoice        invoiceDTO `json:"invoice"`
	AlreadyExisted bool       `json:"alreadyExisted"`
}

func toInvoiceDTO(inv *invoice.Invoice) invoiceDTO {
	items := make([]orderItemDTO, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = orderItemDTO{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return invoiceDTO{
		ID:            inv.ID,
		Number:        inv.Number,
		OrderID:       inv.OrderID,
		CustomerName:  inv.CustomerName,
		CustomerEmail: inv.CustomerEmail,
		Shipping:      inv.Shipping,
		Items:         items,
		Subtotal:      inv.Subtotal,
		ShippingFee:   inv.ShippingFee,
		Total:         inv.Total,
		PaymentMethod: inv.PaymentMethod,
		PaymentStatus: string(inv.PaymentStatus),
		IssuedAt:      inv.IssuedAt,
	}
}

func (h *Handler) issueInvoice(w http.ResponseWriter, r *http.Request) {
	inv, existed, err := h.sequencer.Issue(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	writeJSON(w, status, issueInvoiceResponse{
		Invoice:        toInvoiceDTO(inv),
		AlreadyExisted: existed,
	})
}
