package product

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/paging"
	"github.com/xenking/storefront/internal/domain/validate"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = apperr.NotFound("product not found")
	// ErrVariantNotFound is returned when a requested variant does not exist.
	ErrVariantNotFound = apperr.NotFound("product variant not found")
	// ErrInsufficientStock is returned when a deduction exceeds current stock.
	ErrInsufficientStock = apperr.Validation("insufficient stock")
	// ErrCategoryNotFound is returned when a product references an unknown
	// category.
	ErrCategoryNotFound = apperr.Validation("category not found")
	// ErrInvalidQuantity is returned for non-positive stock adjustments.
	ErrInvalidQuantity = apperr.Validation("quantity must be greater than 0")
	// ErrStockOutOfRange is returned when an adjustment or the resulting
	// stock would exceed MaxStock.
	ErrStockOutOfRange = apperr.Validation("stock quantity out of range")
)

// MaxStock is the largest stock quantity a variant can hold.
const MaxStock = math.MaxInt32

// Product represents a catalog item. Deleting a product only clears
// IsActive.
type Product struct {
	ID           string
	CategoryID   *string
	Name         string
	Description  string
	ImageURL     string
	SupplierName string
	IsActive     bool
	CreatedAt    time.Time
}

// Variant is a purchasable SKU of a product with its own price and stock.
// Deleting a variant only clears IsActive.
type Variant struct {
	ID            string
	ProductID     string
	Name          *string
	Price         decimal.Decimal
	StockQuantity int
	IsActive      bool
}

// Details is a product together with its active variants.
type Details struct {
	Product
	Variants []Variant
}

// Filter narrows the user-facing product listing. Only active products are
// ever listed.
type Filter struct {
	CategoryID string
	Search     string
	Page       paging.Params
}

// Request is the input for creating or updating a product.
type Request struct {
	CategoryID   *string
	Name         string
	Description  string
	ImageURL     string
	SupplierName string
	// IsActive is only honoured on update.
	IsActive *bool
}

// Validate checks the request fields.
func (r Request) Validate() error {
	var v validate.Validator
	v.Required("name", r.Name)
	v.MaxLen("name", r.Name, 200)
	v.MaxLen("description", r.Description, 2000)
	v.MaxLen("imageUrl", r.ImageURL, 500)
	v.MaxLen("supplierName", r.SupplierName, 200)
	if r.CategoryID != nil {
		v.Required("categoryId", *r.CategoryID)
	}
	return v.Err()
}

// VariantRequest is the input for creating or updating a variant.
type VariantRequest struct {
	Name          *string
	Price         decimal.Decimal
	StockQuantity int
	// IsActive is only honoured on update.
	IsActive *bool
}

// Validate checks the request fields.
func (r VariantRequest) Validate() error {
	var v validate.Validator
	if r.Name != nil {
		v.MaxLen("variantName", *r.Name, 100)
	}
	v.NonNegative("price", r.Price)
	v.Range("stockQuantity", r.StockQuantity, 0, MaxStock)
	return v.Err()
}

// Repository defines persistence operations for products.
type Repository interface {
	// List returns one page of active products and the unpaged total.
	List(ctx context.Context, f Filter) ([]Product, int, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	SetActive(ctx context.Context, id string, active bool) error
}

// VariantRepository defines persistence operations for product variants.
type VariantRepository interface {
	// ListByProduct returns the active variants of a product.
	ListByProduct(ctx context.Context, productID string) ([]Variant, error)
	GetByID(ctx context.Context, id string) (*Variant, error)
	Create(ctx context.Context, v *Variant) error
	Update(ctx context.Context, v *Variant) error
	SetActive(ctx context.Context, id string, active bool) error
	// AdjustStock adds delta to the stock quantity and returns the new value.
	// It returns ErrInsufficientStock instead of going below zero.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}
