// Package handler exposes the storefront services over HTTP.
//
// Routes are registered on a net/http ServeMux with method patterns. Every
// response uses the envelope from pkg/envelope; domain errors are mapped to
// status codes in one place (writeError).
package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/category"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/paging"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/review"
	"github.com/xenking/storefront/internal/domain/user"
)

// Tokens issues and verifies bearer tokens.
type Tokens interface {
	Issue(p auth.Principal) (*auth.Token, error)
	Verify(token string) (auth.Principal, error)
}

// Users is the account and address service.
type Users interface {
	Register(ctx context.Context, req user.RegisterRequest) (*user.User, error)
	CreateUser(ctx context.Context, req user.RegisterRequest) (*user.User, error)
	Authenticate(ctx context.Context, username, password string) (*user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	ListUsers(ctx context.Context, p paging.Params) (paging.Result[user.User], error)
	UpdateUser(ctx context.Context, id string, req user.UpdateRequest) (*user.User, error)
	ChangePassword(ctx context.Context, id string, req user.PasswordRequest) error
	DeleteUser(ctx context.Context, id string) error

	ListAddresses(ctx context.Context, userID string) ([]user.Address, error)
	AddAddress(ctx context.Context, userID string, req user.AddressRequest) (*user.Address, error)
	UpdateAddress(ctx context.Context, userID, id string, req user.AddressRequest) (*user.Address, error)
	DeleteAddress(ctx context.Context, userID, id string) error
	SetDefaultAddress(ctx context.Context, userID, addressID string) (*user.Address, error)
}

// Categories is the category tree service.
type Categories interface {
	List(ctx context.Context) ([]category.Category, error)
	Get(ctx context.Context, id string) (*category.Category, error)
	Children(ctx context.Context, id string) ([]category.Category, error)
	Create(ctx context.Context, req category.Request) (*category.Category, error)
	Update(ctx context.Context, id string, req category.Request) (*category.Category, error)
	Delete(ctx context.Context, id string) error
}

// Products is the catalog service.
type Products interface {
	ListProducts(ctx context.Context, f product.Filter) (paging.Result[product.Product], error)
	GetProduct(ctx context.Context, id string) (*product.Details, error)
	CreateProduct(ctx context.Context, req product.Request) (*product.Product, error)
	UpdateProduct(ctx context.Context, id string, req product.Request) (*product.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListVariants(ctx context.Context, productID string) ([]product.Variant, error)
	GetVariant(ctx context.Context, id string) (*product.Variant, error)
	CreateVariant(ctx context.Context, productID string, req product.VariantRequest) (*product.Variant, error)
	UpdateVariant(ctx context.Context, id string, req product.VariantRequest) (*product.Variant, error)
	DeleteVariant(ctx context.Context, id string) error
	DeductStock(ctx context.Context, id string, quantity int) (*product.Variant, error)
	Restock(ctx context.Context, id string, quantity int) (*product.Variant, error)
}

// Carts is the shopping cart service.
type Carts interface {
	GetCartItems(ctx context.Context, userID string) ([]cart.Line, error)
	AddToCart(ctx context.Context, userID string, req cart.AddRequest) (*cart.Line, error)
	UpdateCartItem(ctx context.Context, userID string, req cart.UpdateRequest) (bool, error)
	RemoveFromCart(ctx context.Context, userID, variantID string) (bool, error)
	ClearCart(ctx context.Context, userID string) (bool, error)
	GetCartTotal(ctx context.Context, userID string) (decimal.Decimal, error)
	GetCartCount(ctx context.Context, userID string) (int, error)
}

// Orders is the order service.
type Orders interface {
	CreateOrder(ctx context.Context, userID string, req order.CreateRequest) (*order.Order, error)
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	GetUserOrders(ctx context.Context, userID string) ([]order.Order, error)
	ListOrders(ctx context.Context, f order.Filter) (paging.Result[order.Order], error)
	UpdateOrderStatus(ctx context.Context, id, status string) (*order.Order, error)
	CancelOrder(ctx context.Context, id string) (bool, error)
}

// Coupons is the coupon service.
type Coupons interface {
	Create(ctx context.Context, req coupon.Request) (*coupon.Coupon, error)
	Get(ctx context.Context, id string) (*coupon.Coupon, error)
	GetByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	List(ctx context.Context) ([]coupon.Coupon, error)
	ListActive(ctx context.Context) ([]coupon.Coupon, error)
	Update(ctx context.Context, id string, req coupon.Request) (*coupon.Coupon, error)
	Delete(ctx context.Context, id string) error
	ValidateCoupon(ctx context.Context, code string) (bool, error)
	CalculateDiscount(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error)
}

// Reviews is the product review service.
type Reviews interface {
	Create(ctx context.Context, userID string, req review.Request) (*review.Review, error)
	Get(ctx context.Context, id string) (*review.Review, error)
	ListProductReviews(ctx context.Context, productID string) ([]review.Review, error)
	ListUserReviews(ctx context.Context, userID string) ([]review.Review, error)
	GetProductRating(ctx context.Context, productID string) (review.Rating, error)
	Update(ctx context.Context, id string, req review.Request) (*review.Review, error)
	Delete(ctx context.Context, id string) error
}

// Services groups the dependencies of a Handler.
type Services struct {
	Tokens     Tokens
	Users      Users
	Categories Categories
	Products   Products
	Carts      Carts
	Orders     Orders
	Coupons    Coupons
	Reviews    Reviews
}

// Handler serves the /api routes.
type Handler struct {
	Services
}

// New returns a Handler backed by s.
func New(s Services) *Handler {
	return &Handler{Services: s}
}

// Register adds every API route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	// Authentication.
	mux.Handle("POST /api/auth/register", h.public(h.register))
	mux.Handle("POST /api/auth/login", h.public(h.login))

	// Users and addresses.
	mux.Handle("GET /api/users", h.admin(h.listUsers))
	mux.Handle("POST /api/users", h.admin(h.createUser))
	mux.Handle("GET /api/users/{id}", h.authed(h.getUser))
	mux.Handle("PUT /api/users/{id}", h.authed(h.updateUser))
	mux.Handle("DELETE /api/users/{id}", h.admin(h.deleteUser))
	mux.Handle("PUT /api/users/{id}/password", h.authed(h.changePassword))
	mux.Handle("GET /api/users/{id}/addresses", h.authed(h.listAddresses))
	mux.Handle("POST /api/users/{id}/addresses", h.authed(h.addAddress))
	mux.Handle("PUT /api/users/{id}/addresses/{addressId}", h.authed(h.updateAddress))
	mux.Handle("DELETE /api/users/{id}/addresses/{addressId}", h.authed(h.deleteAddress))
	mux.Handle("PUT /api/users/{id}/addresses/{addressId}/default", h.authed(h.setDefaultAddress))

	// Catalog.
	mux.Handle("GET /api/categories", h.public(h.listCategories))
	mux.Handle("GET /api/categories/{id}", h.public(h.getCategory))
	mux.Handle("GET /api/categories/{id}/children", h.public(h.listSubcategories))
	mux.Handle("POST /api/categories", h.admin(h.createCategory))
	mux.Handle("PUT /api/categories/{id}", h.admin(h.updateCategory))
	mux.Handle("DELETE /api/categories/{id}", h.admin(h.deleteCategory))

	mux.Handle("GET /api/products", h.public(h.listProducts))
	mux.Handle("GET /api/products/{id}", h.public(h.getProduct))
	mux.Handle("POST /api/products", h.admin(h.createProduct))
	mux.Handle("PUT /api/products/{id}", h.admin(h.updateProduct))
	mux.Handle("DELETE /api/products/{id}", h.admin(h.deleteProduct))

	mux.Handle("GET /api/products/{id}/variants", h.public(h.listVariants))
	mux.Handle("POST /api/products/{id}/variants", h.admin(h.createVariant))
	mux.Handle("GET /api/variants/{id}", h.public(h.getVariant))
	mux.Handle("PUT /api/variants/{id}", h.admin(h.updateVariant))
	mux.Handle("DELETE /api/variants/{id}", h.admin(h.deleteVariant))
	mux.Handle("PUT /api/variants/{id}/stock", h.admin(h.adjustStock))

	// Cart.
	mux.Handle("GET /api/cart/user/{userId}", h.authed(h.getCart))
	mux.Handle("GET /api/cart/user/{userId}/total", h.authed(h.getCartTotal))
	mux.Handle("GET /api/cart/user/{userId}/count", h.authed(h.getCartCount))
	mux.Handle("POST /api/cart/user/{userId}/add", h.authed(h.addToCart))
	mux.Handle("PUT /api/cart/user/{userId}/update", h.authed(h.updateCartItem))
	mux.Handle("DELETE /api/cart/user/{userId}/remove/{variantId}", h.authed(h.removeFromCart))
	mux.Handle("DELETE /api/cart/user/{userId}/clear", h.authed(h.clearCart))

	// Orders.
	mux.Handle("POST /api/order/user/{userId}", h.authed(h.createOrder))
	mux.Handle("GET /api/order/user/{userId}", h.authed(h.getUserOrders))
	mux.Handle("GET /api/order", h.admin(h.listOrders))
	mux.Handle("GET /api/order/{id}", h.authed(h.getOrder))
	mux.Handle("PUT /api/order/{id}/status", h.admin(h.updateOrderStatus))
	mux.Handle("PUT /api/order/{id}/cancel", h.authed(h.cancelOrder))

	// Coupons.
	mux.Handle("GET /api/coupon", h.admin(h.listCoupons))
	mux.Handle("GET /api/coupon/active", h.public(h.listActiveCoupons))
	mux.Handle("GET /api/coupon/{id}", h.admin(h.getCoupon))
	mux.Handle("GET /api/coupon/code/{code}", h.authed(h.getCouponByCode))
	mux.Handle("POST /api/coupon", h.admin(h.createCoupon))
	mux.Handle("PUT /api/coupon/{id}", h.admin(h.updateCoupon))
	mux.Handle("DELETE /api/coupon/{id}", h.admin(h.deleteCoupon))
	mux.Handle("POST /api/coupon/validate", h.authed(h.validateCoupon))
	mux.Handle("POST /api/coupon/calculate-discount", h.authed(h.calculateDiscount))

	// Reviews.
	mux.Handle("GET /api/products/{id}/reviews", h.public(h.listProductReviews))
	mux.Handle("GET /api/products/{id}/rating", h.public(h.getProductRating))
	mux.Handle("POST /api/reviews", h.authed(h.createReview))
	mux.Handle("GET /api/reviews/{id}", h.public(h.getReview))
	mux.Handle("PUT /api/reviews/{id}", h.authed(h.updateReview))
	mux.Handle("DELETE /api/reviews/{id}", h.authed(h.deleteReview))
	mux.Handle("GET /api/reviews/user/{userId}", h.authed(h.listUserReviews))
}

var (
	_ Tokens     = (*auth.Issuer)(nil)
	_ Users      = (*user.Service)(nil)
	_ Categories = (*category.Service)(nil)
	_ Products   = (*product.Service)(nil)
	_ Carts      = (*cart.Service)(nil)
	_ Orders     = (*order.Service)(nil)
	_ Coupons    = (*coupon.Service)(nil)
	_ Reviews    = (*review.Service)(nil)
)
