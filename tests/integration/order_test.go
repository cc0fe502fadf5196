//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestPlaceOrder_NoAuth(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/orders", validOrder(), "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_InvalidKey(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/orders", validOrder(), "wrong-key")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	req := validOrder()
	req.Items = []orderItemBody{}
	resp := doJSON(t, http.MethodPost, "/api/orders", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Message == "" {
		t.Error("error message is empty")
	}
}

func TestPlaceOrder_ZeroQuantity(t *testing.T) {
	req := validOrder()
	req.Items[0].Quantity = 0
	resp := doJSON(t, http.MethodPost, "/api/orders", req, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	order := placeOrder(t)

	if !uuidPattern.MatchString(order.ID) {
		t.Errorf("order ID %q is not a valid UUID", order.ID)
	}
	if order.Total != "1850.00" {
		t.Errorf("total: got %q, want 1850.00", order.Total)
	}
	if order.Subtotal != "1650.00" {
		t.Errorf("subtotal: got %q, want 1650.00", order.Subtotal)
	}
	if order.Status != "placed" {
		t.Errorf("status: got %q, want placed", order.Status)
	}
	if order.PaymentStatus != "pending" {
		t.Errorf("payment status: got %q, want pending", order.PaymentStatus)
	}
	if len(order.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(order.Items))
	}
}

func TestPatchOrder_StatusOverride(t *testing.T) {
	order := placeOrder(t)

	resp := doJSON(t, http.MethodPatch, "/api/orders/"+order.ID, map[string]string{
		"status": "cancelled",
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	patched := decodeJSON[orderResponse](t, resp)
	if patched.Status != "cancelled" {
		t.Errorf("status: got %q, want cancelled", patched.Status)
	}
}

func TestPatchOrder_UnknownStatus(t *testing.T) {
	order := placeOrder(t)

	resp := doJSON(t, http.MethodPatch, "/api/orders/"+order.ID, map[string]string{
		"status": "shipped",
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPatchOrder_UnknownOrder(t *testing.T) {
	resp := doJSON(t, http.MethodPatch, "/api/orders/00000000-0000-0000-0000-000000000000", map[string]string{
		"status": "cancelled",
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
