package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/paging"
)

// --- In-memory store ---

type storeState struct {
	lines   map[string][]cart.Line
	coupons map[string]coupon.Coupon
	orders  []Order
	details []Detail
}

func (st storeState) clone() storeState {
	c := storeState{
		lines:   make(map[string][]cart.Line, len(st.lines)),
		coupons: make(map[string]coupon.Coupon, len(st.coupons)),
		orders:  append([]Order(nil), st.orders...),
		details: append([]Detail(nil), st.details...),
	}
	for k, v := range st.lines {
		c.lines[k] = append([]cart.Line(nil), v...)
	}
	for k, v := range st.coupons {
		c.coupons[k] = v
	}
	return c
}

// fakeStore implements the repositories and a snapshot/restore unit of work.
type fakeStore struct {
	state        storeState
	failDetails  error
	cancelCalled bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: storeState{
		lines:   map[string][]cart.Line{},
		coupons: map[string]coupon.Coupon{},
	}}
}

func (f *fakeStore) Do(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	snapshot := f.state.clone()
	if err := fn(ctx, Repos{Cart: fakeCart{f}, Coupons: fakeCoupons{f}, Orders: f}); err != nil {
		f.state = snapshot
		return err
	}
	return nil
}

type fakeCart struct{ f *fakeStore }

func (c fakeCart) Lines(_ context.Context, userID string) ([]cart.Line, error) {
	return append([]cart.Line(nil), c.f.state.lines[userID]...), nil
}

func (c fakeCart) Line(context.Context, string, string) (*cart.Line, error) {
	return nil, cart.ErrLineNotFound
}

func (c fakeCart) Add(context.Context, cart.Item) error { return nil }

func (c fakeCart) SetQuantity(context.Context, string, string, int) (bool, error) {
	return false, nil
}

func (c fakeCart) Remove(context.Context, string, string) (bool, error) { return false, nil }

func (c fakeCart) Clear(_ context.Context, userID string) (int64, error) {
	n := int64(len(c.f.state.lines[userID]))
	delete(c.f.state.lines, userID)
	return n, nil
}

type fakeCoupons struct{ f *fakeStore }

func (c fakeCoupons) List(context.Context) ([]coupon.Coupon, error) { return nil, nil }

func (c fakeCoupons) GetByID(context.Context, string) (*coupon.Coupon, error) {
	return nil, coupon.ErrNotFound
}

func (c fakeCoupons) GetByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	cp, ok := c.f.state.coupons[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return &cp, nil
}

func (c fakeCoupons) CodeExists(context.Context, string, string) (bool, error) { return false, nil }
func (c fakeCoupons) Create(context.Context, *coupon.Coupon) error             { return nil }
func (c fakeCoupons) Update(context.Context, *coupon.Coupon) error             { return nil }
func (c fakeCoupons) SetActive(context.Context, string, bool) error            { return nil }

func (f *fakeStore) Create(_ context.Context, o *Order) error {
	cp := *o
	cp.Details = nil
	f.state.orders = append(f.state.orders, cp)
	return nil
}

func (f *fakeStore) CreateDetails(_ context.Context, details []Detail) error {
	if f.failDetails != nil {
		return f.failDetails
	}
	f.state.details = append(f.state.details, details...)
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*Order, error) {
	for i := range f.state.orders {
		if f.state.orders[i].ID == id {
			o := f.state.orders[i]
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) Details(_ context.Context, orderID string) ([]Detail, error) {
	var out []Detail
	for _, d := range f.state.details {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]Order, error) {
	var out []Order
	for _, o := range f.state.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) List(_ context.Context, flt Filter) ([]Order, int, error) {
	var out []Order
	for _, o := range f.state.orders {
		if flt.Status == "" || o.Status == flt.Status {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id, status string) error {
	for i := range f.state.orders {
		if f.state.orders[i].ID == id {
			f.state.orders[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) CancelPending(_ context.Context, id string) (bool, error) {
	f.cancelCalled = true
	for i := range f.state.orders {
		if f.state.orders[i].ID == id && f.state.orders[i].Status == StatusPending {
			f.state.orders[i].Status = StatusCancelled
			return true, nil
		}
	}
	return false, nil
}

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store *fakeStore) *Service {
	t.Helper()
	s, err := NewService(store, store)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s
}

func line(variantID string, price string, qty int) cart.Line {
	return cart.Line{VariantID: variantID, UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func validCoupon(code, value string) coupon.Coupon {
	return coupon.Coupon{
		ID:            "coupon-" + code,
		Code:          code,
		DiscountValue: decimal.RequireFromString(value),
		StartDate:     fixedNow.Add(-time.Hour),
		EndDate:       fixedNow.Add(time.Hour),
		IsActive:      true,
	}
}

var request = CreateRequest{ShippingAddress: "1 Main St", PaymentMethod: "card"}

// --- Tests ---

func TestService_CreateOrder(t *testing.T) {
	tests := []struct {
		name         string
		lines        []cart.Line
		coupons      []coupon.Coupon
		couponCode   string
		wantTotal    string
		wantCouponID bool
	}{
		{
			name:         "valid coupon is subtracted",
			lines:        []cart.Line{line("A", "10.00", 2), line("B", "5.00", 1)},
			coupons:      []coupon.Coupon{validCoupon("SAVE5", "5.00")},
			couponCode:   "SAVE5",
			wantTotal:    "20.00",
			wantCouponID: true,
		},
		{
			name:      "no coupon",
			lines:     []cart.Line{line("A", "10.00", 2), line("B", "5.00", 1)},
			wantTotal: "25.00",
		},
		{
			name:       "unknown coupon is ignored",
			lines:      []cart.Line{line("A", "10.00", 1)},
			couponCode: "NOPE",
			wantTotal:  "10.00",
		},
		{
			name:  "inactive coupon is ignored",
			lines: []cart.Line{line("A", "10.00", 1)},
			coupons: []coupon.Coupon{func() coupon.Coupon {
				c := validCoupon("OFF", "3.00")
				c.IsActive = false
				return c
			}()},
			couponCode: "OFF",
			wantTotal:  "10.00",
		},
		{
			name:  "expired coupon is ignored",
			lines: []cart.Line{line("A", "10.00", 1)},
			coupons: []coupon.Coupon{func() coupon.Coupon {
				c := validCoupon("OLD", "3.00")
				c.EndDate = fixedNow.Add(-time.Minute)
				return c
			}()},
			couponCode: "OLD",
			wantTotal:  "10.00",
		},
		{
			name:         "discount larger than subtotal goes negative",
			lines:        []cart.Line{line("A", "3.00", 1)},
			coupons:      []coupon.Coupon{validCoupon("BIG", "10.00")},
			couponCode:   "big",
			wantTotal:    "-7.00",
			wantCouponID: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.state.lines["u1"] = tt.lines
			for _, c := range tt.coupons {
				store.state.coupons[c.Code] = c
			}
			s := newTestService(t, store)

			req := request
			req.CouponCode = tt.couponCode
			o, err := s.CreateOrder(context.Background(), "u1", req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantTotal, o.TotalAmount.StringFixed(2))
			assert.Equal(t, StatusPending, o.Status)
			assert.True(t, o.ShippingFee.IsZero())
			assert.Equal(t, tt.wantCouponID, o.CouponID != nil)
			assert.Equal(t, fixedNow, o.OrderDate)

			require.Len(t, o.Details, len(tt.lines))
			for i, d := range o.Details {
				assert.Equal(t, o.ID, d.OrderID)
				assert.Equal(t, tt.lines[i].VariantID, d.VariantID)
				assert.Equal(t, tt.lines[i].Quantity, d.Quantity)
				assert.True(t, tt.lines[i].UnitPrice.Equal(d.UnitPrice))
			}

			assert.Empty(t, store.state.lines["u1"], "cart must be cleared")
			assert.Len(t, store.state.orders, 1)
			assert.Len(t, store.state.details, len(tt.lines))
		})
	}
}

func TestService_CreateOrder_Example(t *testing.T) {
	store := newFakeStore()
	store.state.lines["u1"] = []cart.Line{line("A", "10.00", 2), line("B", "5.00", 1)}
	store.state.coupons["SAVE5"] = validCoupon("SAVE5", "5.00")
	s := newTestService(t, store)

	req := request
	req.CouponCode = "SAVE5"
	o, err := s.CreateOrder(context.Background(), "u1", req)
	require.NoError(t, err)

	assert.Equal(t, "20.00", o.TotalAmount.StringFixed(2))
	require.Len(t, store.state.details, 2)
	assert.Equal(t, "10.00", store.state.details[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "5.00", store.state.details[1].UnitPrice.StringFixed(2))
	assert.Equal(t, "coupon-SAVE5", *o.CouponID)
}

func TestService_CreateOrder_EmptyCart(t *testing.T) {
	store := newFakeStore()
	s := newTestService(t, store)

	o, err := s.CreateOrder(context.Background(), "u1", request)
	require.ErrorIs(t, err, ErrCartEmpty)
	assert.Nil(t, o)
	assert.Empty(t, store.state.orders)
	assert.Empty(t, store.state.details)
}

func TestService_CreateOrder_RollsBack(t *testing.T) {
	store := newFakeStore()
	store.state.lines["u1"] = []cart.Line{line("A", "10.00", 1)}
	store.failDetails = errors.New("db down")
	s := newTestService(t, store)

	_, err := s.CreateOrder(context.Background(), "u1", request)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order details")

	assert.Empty(t, store.state.orders, "order insert must be rolled back")
	assert.Len(t, store.state.lines["u1"], 1, "cart must be left intact")
}

func TestService_CreateOrder_Validation(t *testing.T) {
	store := newFakeStore()
	store.state.lines["u1"] = []cart.Line{line("A", "10.00", 1)}
	s := newTestService(t, store)

	_, err := s.CreateOrder(context.Background(), "u1", CreateRequest{})
	require.Error(t, err)
	assert.Empty(t, store.state.orders)
}

func TestService_CancelOrder(t *testing.T) {
	store := newFakeStore()
	store.state.orders = []Order{
		{ID: "pending", Status: StatusPending},
		{ID: "shipped", Status: StatusShipped},
	}
	s := newTestService(t, store)

	ok, err := s.CancelOrder(context.Background(), "pending")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StatusCancelled, store.state.orders[0].Status)

	ok, err = s.CancelOrder(context.Background(), "shipped")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StatusShipped, store.state.orders[1].Status)

	_, err = s.CancelOrder(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdateOrderStatus(t *testing.T) {
	store := newFakeStore()
	store.state.orders = []Order{{ID: "o1", Status: StatusPending}}
	s := newTestService(t, store)

	o, err := s.UpdateOrderStatus(context.Background(), "o1", StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, o.Status)

	_, err = s.UpdateOrderStatus(context.Background(), "o1", "Lost")
	require.Error(t, err)
	assert.Equal(t, StatusShipped, store.state.orders[0].Status)
}

func TestService_ListOrders(t *testing.T) {
	store := newFakeStore()
	store.state.orders = []Order{
		{ID: "o1", Status: StatusPending},
		{ID: "o2", Status: StatusShipped},
	}
	s := newTestService(t, store)

	res, err := s.ListOrders(context.Background(), Filter{Status: StatusShipped})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "o2", res.Items[0].ID)
	assert.Equal(t, paging.DefaultSize, res.Size)

	_, err = s.ListOrders(context.Background(), Filter{Status: "bogus"})
	require.Error(t, err)
}
