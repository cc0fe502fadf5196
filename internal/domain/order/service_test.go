package order

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/velmart/checkout-core/internal/domain/stock"
	"github.com/velmart/checkout-core/internal/fault"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	mu        sync.Mutex
	byID      map[string]*Order
	createErr error
	updateErr error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{byID: make(map[string]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) MarkPaid(_ context.Context, id string, ref GatewayRef) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if o.PaymentStatus != PaymentPending {
		return false, nil
	}
	o.PaymentStatus = PaymentCompleted
	o.Status = StatusConfirmed
	o.Gateway = ref
	return true, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *Order) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[o.ID]; !ok {
		return ErrNotFound
	}
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

type mockStockRepo struct {
	mu       sync.Mutex
	qty      map[string]int
	failures []string
	decErr   error
}

func (m *mockStockRepo) DecrementClamped(_ context.Context, productID string, qty int) (int, error) {
	if m.decErr != nil {
		return 0, m.decErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	remaining := m.qty[productID] - qty
	if remaining < 0 {
		remaining = 0
	}
	m.qty[productID] = remaining
	return remaining, nil
}

func (m *mockStockRepo) Quantity(_ context.Context, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.qty[productID], nil
}

func (m *mockStockRepo) Upsert(_ context.Context, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qty[productID] = qty
	return nil
}

func (m *mockStockRepo) RecordFailedAdjustment(_ context.Context, productID string, _ int, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, productID)
	return nil
}

// --- Helpers ---

func validRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		UserID:        "u1",
		CustomerName:  "Asha Verma",
		CustomerEmail: "asha@example.com",
		Shipping: Address{
			Line1:   "12 MG Road",
			City:    "Bengaluru",
			State:   "KA",
			Pincode: "560001",
			Country: "IN",
		},
		Items: []Item{
			{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("500.00")},
			{ProductID: "p2", Quantity: 1, UnitPrice: decimal.RequireFromString("650.00")},
		},
		Subtotal:      decimal.RequireFromString("1650.00"),
		ShippingFee:   decimal.RequireFromString("200.00"),
		PaymentMethod: "card",
	}
}

func newService(orders *mockOrderRepo, stockRepo *mockStockRepo) *Service {
	return NewService(orders, stock.NewLedger(stockRepo, zap.NewNop()), zap.NewNop())
}

// --- Tests ---

func TestPlaceOrder_EmptyItems(t *testing.T) {
	svc := newService(newMockOrderRepo(), &mockStockRepo{qty: map[string]int{}})

	req := validRequest()
	req.Items = nil
	_, err := svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, ErrEmptyItems)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestPlaceOrder_InvalidQuantity(t *testing.T) {
	svc := newService(newMockOrderRepo(), &mockStockRepo{qty: map[string]int{}})

	req := validRequest()
	req.Items[0].Quantity = 0
	_, err := svc.PlaceOrder(context.Background(), req)

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "p1", iqErr.ProductID)
}

func TestPlaceOrder_MissingContact(t *testing.T) {
	svc := newService(newMockOrderRepo(), &mockStockRepo{qty: map[string]int{}})

	req := validRequest()
	req.CustomerEmail = ""
	_, err := svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, ErrMissingContact)
}

func TestPlaceOrder_MissingShipping(t *testing.T) {
	svc := newService(newMockOrderRepo(), &mockStockRepo{qty: map[string]int{}})

	req := validRequest()
	req.Shipping.Pincode = ""
	_, err := svc.PlaceOrder(context.Background(), req)
	require.ErrorIs(t, err, ErrMissingShipping)
}

func TestPlaceOrder_TotalComputedOnce(t *testing.T) {
	repo := newMockOrderRepo()
	stockRepo := &mockStockRepo{qty: map[string]int{"p1": 10, "p2": 10}}
	svc := newService(repo, stockRepo)

	o, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("1850.00").Equal(o.Total))
	assert.True(t, decimal.RequireFromString("1650.00").Equal(o.Subtotal))
	assert.True(t, decimal.RequireFromString("200.00").Equal(o.ShippingFee))
	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)

	// Unit prices are snapshotted on the persisted order.
	stored, err := repo.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("500.00").Equal(stored.Items[0].UnitPrice))
}

func TestPlaceOrder_DecrementsStock(t *testing.T) {
	stockRepo := &mockStockRepo{qty: map[string]int{"p1": 10, "p2": 10}}
	svc := newService(newMockOrderRepo(), stockRepo)

	_, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, 8, stockRepo.qty["p1"])
	assert.Equal(t, 9, stockRepo.qty["p2"])
}

func TestPlaceOrder_StockFailureDoesNotFailOrder(t *testing.T) {
	stockRepo := &mockStockRepo{qty: map[string]int{}, decErr: errors.New("stock db down")}
	svc := newService(newMockOrderRepo(), stockRepo)

	o, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
}

func TestPlaceOrder_CreateError(t *testing.T) {
	repo := newMockOrderRepo()
	repo.createErr = errors.New("db write failed")
	stockRepo := &mockStockRepo{qty: map[string]int{"p1": 10, "p2": 10}}
	svc := newService(repo, stockRepo)

	_, err := svc.PlaceOrder(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, fault.KindDependency, fault.KindOf(err))

	// No decrement may happen when the order itself was not persisted.
	assert.Equal(t, 10, stockRepo.qty["p1"])
}

func TestApplyPatch_StatusOverride(t *testing.T) {
	repo := newMockOrderRepo()
	stockRepo := &mockStockRepo{qty: map[string]int{"p1": 10, "p2": 10}}
	svc := newService(repo, stockRepo)

	o, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	cancelled := StatusCancelled
	patched, err := svc.ApplyPatch(context.Background(), o.ID, Patch{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, patched.Status)
}

func TestApplyPatch_TerminalStatesStayTerminal(t *testing.T) {
	repo := newMockOrderRepo()
	stockRepo := &mockStockRepo{qty: map[string]int{"p1": 10, "p2": 10}}
	svc := newService(repo, stockRepo)

	o, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	cancelled := StatusCancelled
	_, err = svc.ApplyPatch(context.Background(), o.ID, Patch{Status: &cancelled})
	require.NoError(t, err)

	placed := StatusPlaced
	_, err = svc.ApplyPatch(context.Background(), o.ID, Patch{Status: &placed})
	require.Error(t, err)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestApplyPatch_PartialFieldsOnly(t *testing.T) {
	repo := newMockOrderRepo()
	stockRepo := &mockStockRepo{qty: map[string]int{"p1": 10, "p2": 10}}
	svc := newService(repo, stockRepo)

	o, err := svc.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)

	phone := "+91-9999999999"
	patched, err := svc.ApplyPatch(context.Background(), o.ID, Patch{CustomerPhone: &phone})
	require.NoError(t, err)

	assert.Equal(t, phone, patched.CustomerPhone)
	assert.Equal(t, o.Status, patched.Status)
	assert.Equal(t, o.Shipping, patched.Shipping)
}

func TestApplyPatch_NotFound(t *testing.T) {
	svc := newService(newMockOrderRepo(), &mockStockRepo{qty: map[string]int{}})

	_, err := svc.ApplyPatch(context.Background(), "missing", Patch{})
	require.ErrorIs(t, err, ErrNotFound)
}
