package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/category"
	"github.com/xenking/storefront/internal/domain/paging"
)

// CategoryLookup resolves category ids.
type CategoryLookup interface {
	GetByID(ctx context.Context, id string) (*category.Category, error)
}

// Service encapsulates catalog management for products and variants.
type Service struct {
	products   Repository
	variants   VariantRepository
	categories CategoryLookup
	now        func() time.Time
}

// NewService creates a product Service.
func NewService(products Repository, variants VariantRepository, categories CategoryLookup) *Service {
	return &Service{
		products:   products,
		variants:   variants,
		categories: categories,
		now:        time.Now,
	}
}

// ListProducts returns one page of active products.
func (s *Service) ListProducts(ctx context.Context, f Filter) (paging.Result[Product], error) {
	f.Page = f.Page.Normalize()
	items, total, err := s.products.List(ctx, f)
	if err != nil {
		return paging.Result[Product]{}, errors.Wrap(err, "list products")
	}
	return paging.NewResult(items, total, f.Page), nil
}

// GetProduct returns an active product with its active variants. Deleted
// products read as ErrNotFound.
func (s *Service) GetProduct(ctx context.Context, id string) (*Details, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, ErrNotFound
	}
	variants, err := s.variants.ListByProduct(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "list variants")
	}
	return &Details{Product: *p, Variants: variants}, nil
}

// CreateProduct adds an active product to the catalog.
func (s *Service) CreateProduct(ctx context.Context, req Request) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	p := &Product{
		ID:           uuid.New().String(),
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		SupplierName: req.SupplierName,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// UpdateProduct overwrites the editable product fields.
func (s *Service) UpdateProduct(ctx context.Context, id string, req Request) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	p.CategoryID = req.CategoryID
	p.Name = req.Name
	p.Description = req.Description
	p.ImageURL = req.ImageURL
	p.SupplierName = req.SupplierName
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return p, nil
}

// DeleteProduct deactivates a product. The row is kept.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.products.SetActive(ctx, id, false)
}

// ListVariants returns the active variants of an existing product.
func (s *Service) ListVariants(ctx context.Context, productID string) ([]Variant, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.variants.ListByProduct(ctx, productID)
}

// GetVariant returns a single variant.
func (s *Service) GetVariant(ctx context.Context, id string) (*Variant, error) {
	return s.variants.GetByID(ctx, id)
}

// CreateVariant adds an active variant to an existing product.
func (s *Service) CreateVariant(ctx context.Context, productID string, req VariantRequest) (*Variant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	v := &Variant{
		ID:            uuid.New().String(),
		ProductID:     productID,
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		IsActive:      true,
	}
	if err := s.variants.Create(ctx, v); err != nil {
		return nil, errors.Wrap(err, "create variant")
	}
	return v, nil
}

// UpdateVariant overwrites name, price and stock of a variant.
func (s *Service) UpdateVariant(ctx context.Context, id string, req VariantRequest) (*Variant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	v, err := s.variants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	v.Name = req.Name
	v.Price = req.Price
	v.StockQuantity = req.StockQuantity
	if req.IsActive != nil {
		v.IsActive = *req.IsActive
	}
	if err := s.variants.Update(ctx, v); err != nil {
		return nil, errors.Wrap(err, "update variant")
	}
	return v, nil
}

// DeleteVariant deactivates a variant. The row is kept.
func (s *Service) DeleteVariant(ctx context.Context, id string) error {
	return s.variants.SetActive(ctx, id, false)
}

// DeductStock removes quantity units from a variant's stock. The deduction is
// rejected with ErrInsufficientStock when quantity exceeds current stock.
func (s *Service) DeductStock(ctx context.Context, id string, quantity int) (*Variant, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	return s.adjustStock(ctx, id, -quantity)
}

// Restock adds quantity units to a variant's stock.
func (s *Service) Restock(ctx context.Context, id string, quantity int) (*Variant, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	return s.adjustStock(ctx, id, quantity)
}

func checkQuantity(quantity int) error {
	switch {
	case quantity <= 0:
		return ErrInvalidQuantity
	case quantity > MaxStock:
		return ErrStockOutOfRange
	}
	return nil
}

func (s *Service) adjustStock(ctx context.Context, id string, delta int) (*Variant, error) {
	v, err := s.variants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if delta > 0 && v.StockQuantity > MaxStock-delta {
		return nil, ErrStockOutOfRange
	}
	stock, err := s.variants.AdjustStock(ctx, id, delta)
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			zctx.From(ctx).Info("Stock deduction rejected",
				zap.String("variant_id", id),
				zap.Int("requested", -delta),
				zap.Int("stock", v.StockQuantity),
			)
		}
		return nil, err
	}
	v.StockQuantity = stock
	return v, nil
}

func (s *Service) checkCategory(ctx context.Context, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, *id); err != nil {
		if errors.Is(err, category.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return errors.Wrap(err, "get category")
	}
	return nil
}
