package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/validate"
)

const maxQuantity = 1000

var (
	// ErrLineNotFound is returned when a user has no line for a variant.
	ErrLineNotFound = apperr.NotFound("cart item not found")
	// ErrVariantUnavailable is returned when adding a variant that is
	// inactive or belongs to an inactive product.
	ErrVariantUnavailable = apperr.Validation("product variant is not available")
)

// Item is the persisted (user, variant, quantity) triple. At most one item
// exists per (user, variant) pair.
type Item struct {
	ID        string
	UserID    string
	VariantID string
	Quantity  int
}

// Line is a cart item joined with live product and variant display data.
// UnitPrice is read from the variant at query time.
type Line struct {
	ItemID      string
	UserID      string
	VariantID   string
	ProductID   string
	ProductName string
	VariantName string
	ImageURL    string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Total returns UnitPrice × Quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal sums the line totals.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// AddRequest is the input for adding a variant to a cart.
type AddRequest struct {
	VariantID string
	Quantity  int
}

// Validate checks the request fields.
func (r AddRequest) Validate() error {
	var v validate.Validator
	v.Required("variantId", r.VariantID)
	v.Range("quantity", r.Quantity, 1, maxQuantity)
	return v.Err()
}

// UpdateRequest is the input for overwriting a line quantity. A quantity of
// zero or less removes the line.
type UpdateRequest struct {
	VariantID string
	Quantity  int
}

// Validate checks the request fields.
func (r UpdateRequest) Validate() error {
	var v validate.Validator
	v.Required("variantId", r.VariantID)
	v.Check(r.Quantity <= maxQuantity, "quantity", "must be at most 1000")
	return v.Err()
}

// Repository defines persistence operations for cart items.
type Repository interface {
	// Lines returns every line of a user's cart with live prices.
	Lines(ctx context.Context, userID string) ([]Line, error)
	// Line returns a single line, or ErrLineNotFound.
	Line(ctx context.Context, userID, variantID string) (*Line, error)
	// Add inserts item, or increments the quantity of the existing line for
	// the same (user, variant) pair.
	Add(ctx context.Context, item Item) error
	// SetQuantity overwrites a line quantity and reports whether it existed.
	SetQuantity(ctx context.Context, userID, variantID string, quantity int) (bool, error)
	// Remove deletes a single line and reports whether it existed.
	Remove(ctx context.Context, userID, variantID string) (bool, error)
	// Clear deletes every line of a user's cart and returns the count.
	Clear(ctx context.Context, userID string) (int64, error)
}
