package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VariantLookup checks whether a variant can be bought. It returns
// product.ErrVariantNotFound for unknown ids.
type VariantLookup interface {
	Purchasable(ctx context.Context, id string) (bool, error)
}

// Service maintains per-user carts.
type Service struct {
	items    Repository
	variants VariantLookup
}

// NewService creates a cart Service.
func NewService(items Repository, variants VariantLookup) *Service {
	return &Service{items: items, variants: variants}
}

// GetCartItems returns the user's cart lines.
func (s *Service) GetCartItems(ctx context.Context, userID string) ([]Line, error) {
	lines, err := s.items.Lines(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}
	return lines, nil
}

// AddToCart adds quantity units of a variant. Adding a variant that is
// already in the cart increments the existing line.
func (s *Service) AddToCart(ctx context.Context, userID string, req AddRequest) (*Line, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ok, err := s.variants.Purchasable(ctx, req.VariantID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVariantUnavailable
	}

	if err := s.items.Add(ctx, Item{
		ID:        uuid.New().String(),
		UserID:    userID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	}); err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}

	line, err := s.items.Line(ctx, userID, req.VariantID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart line")
	}
	return line, nil
}

// UpdateCartItem overwrites a line quantity, removing the line when quantity
// is zero or less. It returns false when the line does not exist.
func (s *Service) UpdateCartItem(ctx context.Context, userID string, req UpdateRequest) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}
	if req.Quantity <= 0 {
		return s.RemoveFromCart(ctx, userID, req.VariantID)
	}

	ok, err := s.items.SetQuantity(ctx, userID, req.VariantID, req.Quantity)
	if err != nil {
		return false, errors.Wrap(err, "update cart item")
	}
	return ok, nil
}

// RemoveFromCart deletes one line. It returns false when nothing was deleted.
func (s *Service) RemoveFromCart(ctx context.Context, userID, variantID string) (bool, error) {
	ok, err := s.items.Remove(ctx, userID, variantID)
	if err != nil {
		return false, errors.Wrap(err, "remove cart item")
	}
	return ok, nil
}

// ClearCart deletes every line. It returns false when the cart was empty.
func (s *Service) ClearCart(ctx context.Context, userID string) (bool, error) {
	n, err := s.items.Clear(ctx, userID)
	if err != nil {
		return false, errors.Wrap(err, "clear cart")
	}
	return n > 0, nil
}

// GetCartTotal returns Σ unit price × quantity using current variant prices.
func (s *Service) GetCartTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	lines, err := s.GetCartItems(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return Subtotal(lines), nil
}

// GetCartCount returns the total quantity across all lines.
func (s *Service) GetCartCount(ctx context.Context, userID string) (int, error) {
	lines, err := s.GetCartItems(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return count, nil
}
