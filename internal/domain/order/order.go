package order

import (
	"context"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/paging"
	"github.com/xenking/storefront/internal/domain/validate"
)

// Order statuses. Orders start as StatusPending; only pending orders can be
// cancelled.
const (
	StatusPending    = "Pending"
	StatusConfirmed  = "Confirmed"
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
)

var statusPattern = regexp.MustCompile(`^(Pending|Confirmed|Processing|Shipped|Delivered|Cancelled)$`)

var (
	// ErrNotFound is returned when an order id does not exist.
	ErrNotFound = apperr.NotFound("order not found")
	// ErrCartEmpty is returned when creating an order from an empty cart.
	ErrCartEmpty = apperr.Validation("cart is empty")
)

// Order is a placed order. Orders are never deleted.
type Order struct {
	ID              string
	UserID          string
	OrderDate       time.Time
	ShippingAddress string
	TotalAmount     decimal.Decimal
	ShippingFee     decimal.Decimal
	Status          string
	PaymentMethod   string
	Note            string
	CouponID        *string
	Details         []Detail
}

// Detail is one immutable order line. UnitPrice is the variant price at the
// time the order was placed.
type Detail struct {
	ID        string
	OrderID   string
	VariantID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns UnitPrice × Quantity.
func (d Detail) Total() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// CreateRequest is the input for placing an order from a user's cart.
type CreateRequest struct {
	ShippingAddress string
	PaymentMethod   string
	Note            string
	CouponCode      string
}

// Validate checks the request fields.
func (r CreateRequest) Validate() error {
	var v validate.Validator
	v.Required("shippingAddress", r.ShippingAddress)
	v.MaxLen("shippingAddress", r.ShippingAddress, 500)
	v.MaxLen("paymentMethod", r.PaymentMethod, 50)
	v.MaxLen("note", r.Note, 1000)
	v.MaxLen("couponCode", r.CouponCode, 50)
	return v.Err()
}

// ValidateStatus rejects unknown status strings.
func ValidateStatus(status string) error {
	var v validate.Validator
	v.Match("status", status, statusPattern,
		"must be one of Pending, Confirmed, Processing, Shipped, Delivered, Cancelled")
	return v.Err()
}

// Filter narrows an order listing.
type Filter struct {
	Status string
	Page   paging.Params
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create inserts the order row. Details are inserted separately.
	Create(ctx context.Context, o *Order) error
	CreateDetails(ctx context.Context, details []Detail) error
	GetByID(ctx context.Context, id string) (*Order, error)
	Details(ctx context.Context, orderID string) ([]Detail, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// List returns one page of orders, newest first, and the unpaged total.
	List(ctx context.Context, f Filter) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// CancelPending sets the status to Cancelled only when it is currently
	// Pending and reports whether a row changed.
	CancelPending(ctx context.Context, id string) (bool, error)
}

// Repos is the set of repositories bound to one transaction.
type Repos struct {
	Cart    cart.Repository
	Coupons coupon.Repository
	Orders  Repository
}

// UnitOfWork runs fn inside a single transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}
