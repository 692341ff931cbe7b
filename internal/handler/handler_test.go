package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/user"
)

const (
	aliceID = "11111111-1111-1111-1111-111111111111"
	bobID   = "22222222-2222-2222-2222-222222222222"
)

// Stubs embed the service interface; calling an unstubbed method panics.

type stubCarts struct {
	Carts
	lines map[string][]cart.Line
}

func (s *stubCarts) GetCartItems(_ context.Context, userID string) ([]cart.Line, error) {
	return s.lines[userID], nil
}

func (s *stubCarts) AddToCart(_ context.Context, userID string, req cart.AddRequest) (*cart.Line, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	l := cart.Line{UserID: userID, VariantID: req.VariantID, Quantity: req.Quantity, UnitPrice: decimal.RequireFromString("12.50")}
	s.lines[userID] = append(s.lines[userID], l)
	return &l, nil
}

func (s *stubCarts) RemoveFromCart(_ context.Context, userID, variantID string) (bool, error) {
	for i, l := range s.lines[userID] {
		if l.VariantID == variantID {
			s.lines[userID] = append(s.lines[userID][:i], s.lines[userID][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCarts) GetCartTotal(_ context.Context, userID string) (decimal.Decimal, error) {
	return cart.Subtotal(s.lines[userID]), nil
}

type stubOrders struct {
	Orders
	orders map[string]*order.Order
}

func (s *stubOrders) CreateOrder(_ context.Context, userID string, req order.CreateRequest) (*order.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	o := &order.Order{
		ID:              "o-new",
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		TotalAmount:     decimal.RequireFromString("20.00"),
		Status:          order.StatusPending,
		Details:         []order.Detail{{ID: "d1", VariantID: "v1", Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")}},
	}
	s.orders[o.ID] = o
	return o, nil
}

func (s *stubOrders) GetOrder(_ context.Context, id string) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (s *stubOrders) CancelOrder(_ context.Context, id string) (bool, error) {
	o := s.orders[id]
	if o.Status != order.StatusPending {
		return false, nil
	}
	o.Status = order.StatusCancelled
	return true, nil
}

type stubCoupons struct {
	Coupons
	createErr error
}

func (s *stubCoupons) Create(_ context.Context, req coupon.Request) (*coupon.Coupon, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &coupon.Coupon{ID: "c1", Code: coupon.NormalizeCode(req.Code), DiscountValue: req.DiscountValue,
		StartDate: req.StartDate, EndDate: req.EndDate, IsActive: true}, nil
}

func (s *stubCoupons) CalculateDiscount(_ context.Context, code string, _ decimal.Decimal) (decimal.Decimal, error) {
	if coupon.NormalizeCode(code) == "SAVE5" {
		return decimal.NewFromInt(5), nil
	}
	return decimal.Zero, nil
}

type stubUsers struct {
	Users
}

func (stubUsers) Authenticate(_ context.Context, username, password string) (*user.User, error) {
	if username != "alice" || password != "secret1" {
		return nil, user.ErrInvalidLogin
	}
	return &user.User{ID: aliceID, Username: "alice", RoleName: auth.RoleCustomer, IsActive: true}, nil
}

type stubProducts struct {
	Products
}

func (stubProducts) DeductStock(_ context.Context, id string, quantity int) (*product.Variant, error) {
	if quantity > 3 {
		return nil, product.ErrInsufficientStock
	}
	return &product.Variant{ID: id, StockQuantity: 3 - quantity, IsActive: true}, nil
}

type fixture struct {
	t       *testing.T
	srv     http.Handler
	tokens  *auth.Issuer
	carts   *stubCarts
	orders  *stubOrders
	coupons *stubCoupons
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewIssuer("test-secret", "storefront", time.Hour)
	require.NoError(t, err)

	f := &fixture{
		t:       t,
		tokens:  tokens,
		carts:   &stubCarts{lines: map[string][]cart.Line{}},
		orders:  &stubOrders{orders: map[string]*order.Order{}},
		coupons: &stubCoupons{},
	}
	mux := http.NewServeMux()
	New(Services{
		Tokens:   tokens,
		Users:    stubUsers{},
		Products: stubProducts{},
		Carts:    f.carts,
		Orders:   f.orders,
		Coupons:  f.coupons,
	}).Register(mux)
	f.srv = mux
	return f
}

func (f *fixture) token(userID, role string) string {
	tok, err := f.tokens.Issue(auth.Principal{UserID: userID, Username: "u", Role: role})
	require.NoError(f.t, err)
	return tok.Value
}

type response struct {
	Code   int
	Header http.Header
	Body   map[string]any
	Raw    string
}

func (f *fixture) do(method, path, token, body string) response {
	f.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)

	res := response{Code: w.Code, Header: w.Header(), Raw: w.Body.String()}
	if w.Body.Len() > 0 {
		require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &res.Body), w.Body.String())
	}
	return res
}

func (r response) data() map[string]any {
	d, _ := r.Body["data"].(map[string]any)
	return d
}

func TestAuthGuards(t *testing.T) {
	f := newFixture(t)
	customer := f.token(aliceID, auth.RoleCustomer)
	admin := f.token(bobID, auth.RoleAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{name: "no token", method: http.MethodGet, path: "/api/cart/user/" + aliceID, want: http.StatusUnauthorized},
		{name: "garbage token", method: http.MethodGet, path: "/api/cart/user/" + aliceID, token: "nope", want: http.StatusUnauthorized},
		{name: "own cart", method: http.MethodGet, path: "/api/cart/user/" + aliceID, token: customer, want: http.StatusOK},
		{name: "other cart", method: http.MethodGet, path: "/api/cart/user/" + bobID, token: customer, want: http.StatusForbidden},
		{name: "admin reads any cart", method: http.MethodGet, path: "/api/cart/user/" + aliceID, token: admin, want: http.StatusOK},
		{name: "customer on admin route", method: http.MethodGet, path: "/api/order", token: customer, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.do(tt.method, tt.path, tt.token, "")
			assert.Equal(t, tt.want, res.Code, res.Raw)
			assert.Equal(t, float64(tt.want), res.Body["statusCode"])
			assert.Equal(t, tt.want == http.StatusOK, res.Body["success"])
			if tt.want == http.StatusUnauthorized {
				assert.NotEmpty(t, res.Header.Get("WWW-Authenticate"))
			}
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	res := f.do(http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	tok, _ := res.data()["token"].(string)
	p, err := f.tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, aliceID, p.UserID)
	assert.Equal(t, "Bearer", res.data()["tokenType"])

	res = f.do(http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "invalid username or password", res.Body["message"])
}

func TestCart_AddAndRemove(t *testing.T) {
	f := newFixture(t)
	tok := f.token(aliceID, auth.RoleCustomer)
	base := "/api/cart/user/" + aliceID

	res := f.do(http.MethodPost, base+"/add", tok, `{"variantId":"v1","quantity":2}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, 12.5, res.data()["unitPrice"])
	assert.Equal(t, 25.0, res.data()["totalPrice"])

	res = f.do(http.MethodGet, base+"/total", tok, "")
	assert.Equal(t, 25.0, res.data()["total"])

	res = f.do(http.MethodDelete, base+"/remove/v1", tok, "")
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Empty(t, res.Raw)

	res = f.do(http.MethodDelete, base+"/remove/v1", tok, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "cart item not found", res.Body["message"])
}

func TestCart_AddValidation(t *testing.T) {
	f := newFixture(t)
	tok := f.token(aliceID, auth.RoleCustomer)

	tests := []struct {
		name    string
		body    string
		message string
		field   string
	}{
		{name: "quantity too large", body: `{"variantId":"v1","quantity":1001}`, message: "validation failed", field: "quantity"},
		{name: "missing variant", body: `{"quantity":1}`, message: "validation failed", field: "variantId"},
		{name: "not json", body: `quantity=1`, message: "malformed request body"},
		{name: "wrong type", body: `{"variantId":"v1","quantity":"two"}`, message: "malformed request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.do(http.MethodPost, "/api/cart/user/"+aliceID+"/add", tok, tt.body)
			require.Equal(t, http.StatusBadRequest, res.Code, res.Raw)
			assert.Equal(t, tt.message, res.Body["message"])
			if tt.field == "" {
				return
			}
			errs, _ := res.Body["errors"].([]any)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.field, errs[0].(map[string]any)["field"])
		})
	}
}

func TestOrder_CreateGetCancel(t *testing.T) {
	f := newFixture(t)
	alice := f.token(aliceID, auth.RoleCustomer)
	bob := f.token(bobID, auth.RoleCustomer)

	res := f.do(http.MethodPost, "/api/order/user/"+aliceID, alice,
		`{"shippingAddress":"1 Main St","couponCode":"SAVE5","note":null}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Raw)
	assert.Equal(t, 20.0, res.data()["totalAmount"])
	assert.Equal(t, order.StatusPending, res.data()["status"])
	require.Len(t, res.data()["details"], 1)

	res = f.do(http.MethodGet, "/api/order/o-new", bob, "")
	assert.Equal(t, http.StatusNotFound, res.Code, "other users cannot see the order")

	res = f.do(http.MethodPut, "/api/order/o-new/cancel", alice, "")
	assert.Equal(t, http.StatusOK, res.Code, res.Raw)

	res = f.do(http.MethodPut, "/api/order/o-new/cancel", alice, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "only pending orders can be cancelled", res.Body["message"])
}

func TestOrder_CreateForOtherUser(t *testing.T) {
	f := newFixture(t)
	res := f.do(http.MethodPost, "/api/order/user/"+bobID, f.token(aliceID, auth.RoleCustomer),
		`{"shippingAddress":"1 Main St"}`)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestCoupon_CreateErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		createErr error
		want      int
		message   string
	}{
		{
			name: "created",
			body: `{"code":"save5","discountValue":"5.00","startDate":"2025-01-01","endDate":"2025-12-31T23:59:59Z"}`,
			want: http.StatusCreated,
		},
		{
			name:      "duplicate code",
			body:      `{"code":"SAVE5","discountValue":5,"startDate":"2025-01-01","endDate":"2025-12-31"}`,
			createErr: coupon.ErrCodeExists,
			want:      http.StatusConflict,
			message:   "coupon code already exists",
		},
		{
			name:    "end before start",
			body:    `{"code":"X","discountValue":5,"startDate":"2025-02-01","endDate":"2025-01-01"}`,
			want:    http.StatusBadRequest,
			message: "validation failed",
		},
		{
			name:    "bad date",
			body:    `{"code":"X","discountValue":5,"startDate":"soon","endDate":"2025-01-01"}`,
			want:    http.StatusBadRequest,
			message: "validation failed",
		},
		{
			name:      "storage failure",
			body:      `{"code":"X","discountValue":5,"startDate":"2025-01-01","endDate":"2025-01-02"}`,
			createErr: errors.New("connection reset"),
			want:      http.StatusInternalServerError,
			message:   "internal server error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.coupons.createErr = tt.createErr
			res := f.do(http.MethodPost, "/api/coupon", f.token(bobID, auth.RoleAdmin), tt.body)
			require.Equal(t, tt.want, res.Code, res.Raw)
			if tt.message != "" {
				assert.Equal(t, tt.message, res.Body["message"])
				assert.NotContains(t, res.Raw, "connection reset")
				return
			}
			assert.Equal(t, "SAVE5", res.data()["code"])
			assert.Equal(t, 5.0, res.data()["discountValue"])
		})
	}
}

func TestCoupon_CalculateDiscount(t *testing.T) {
	f := newFixture(t)
	tok := f.token(aliceID, auth.RoleCustomer)

	res := f.do(http.MethodPost, "/api/coupon/calculate-discount", tok, `{"code":"save5","orderAmount":25}`)
	require.Equal(t, http.StatusOK, res.Code, res.Raw)
	assert.Equal(t, 5.0, res.data()["discount"])
	assert.Equal(t, "SAVE5", res.data()["code"])

	res = f.do(http.MethodPost, "/api/coupon/calculate-discount", tok, `{"code":"NOPE","orderAmount":25}`)
	assert.Equal(t, 0.0, res.data()["discount"])
}

func TestVariantStock(t *testing.T) {
	f := newFixture(t)
	admin := f.token(bobID, auth.RoleAdmin)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "deduct", body: `{"deduct":2}`, want: http.StatusOK},
		{name: "insufficient", body: `{"deduct":4}`, want: http.StatusBadRequest},
		{name: "both", body: `{"deduct":1,"restock":1}`, want: http.StatusBadRequest},
		{name: "neither", body: `{}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.do(http.MethodPut, "/api/variants/v1/stock", admin, tt.body)
			assert.Equal(t, tt.want, res.Code, res.Raw)
		})
	}
}
