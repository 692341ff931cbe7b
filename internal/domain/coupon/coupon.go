package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/validate"
)

var (
	// ErrNotFound is returned when a coupon id or code does not exist.
	ErrNotFound = apperr.NotFound("coupon not found")
	// ErrCodeExists is returned when creating or renaming to a code that is
	// already taken.
	ErrCodeExists = apperr.Duplicate("coupon code already exists")
)

// Coupon grants a flat discount while it is active and inside its date
// window. Deleting a coupon only clears IsActive.
type Coupon struct {
	ID            string
	Code          string
	DiscountValue decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
	IsActive      bool
}

// NormalizeCode canonicalizes a coupon code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Request is the input for creating or updating a coupon.
type Request struct {
	Code          string
	DiscountValue decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
	// IsActive is only honoured on update.
	IsActive *bool
}

// Validate checks the request fields.
func (r Request) Validate() error {
	var v validate.Validator
	v.Required("code", r.Code)
	v.MaxLen("code", r.Code, 50)
	v.NonNegative("discountValue", r.DiscountValue)
	v.Check(!r.StartDate.IsZero(), "startDate", "is required")
	v.Check(!r.EndDate.IsZero(), "endDate", "is required")
	v.NotBefore("endDate", r.EndDate, r.StartDate)
	return v.Err()
}

// Repository defines persistence operations for coupons. Codes are stored
// normalized.
type Repository interface {
	List(ctx context.Context) ([]Coupon, error)
	GetByID(ctx context.Context, id string) (*Coupon, error)
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	// CodeExists reports whether code is used by any coupon other than
	// excludeID.
	CodeExists(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	SetActive(ctx context.Context, id string, active bool) error
}
