package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// IsValid reports whether c is active and now lies within [StartDate,
// EndDate], both ends inclusive.
func IsValid(c *Coupon, now time.Time) bool {
	if c == nil || !c.IsActive {
		return false
	}
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// Discount returns the flat discount c grants at now, or zero when c is not
// valid. The amount is not clamped to any order total.
func Discount(c *Coupon, now time.Time) decimal.Decimal {
	if !IsValid(c, now) {
		return decimal.Zero
	}
	return c.DiscountValue
}

// ValidateCoupon reports whether a coupon with the given code exists and is
// currently valid.
func (s *Service) ValidateCoupon(ctx context.Context, code string) (bool, error) {
	c, err := s.lookup(ctx, code)
	if err != nil {
		return false, err
	}
	return IsValid(c, s.now()), nil
}

// CalculateDiscount returns the discount the code grants on orderAmount: the
// coupon's flat value when valid, zero otherwise. orderAmount does not cap
// the result.
func (s *Service) CalculateDiscount(ctx context.Context, code string, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	c, err := s.lookup(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return Discount(c, s.now()), nil
}

// lookup returns the coupon for code, or nil when no such coupon exists.
func (s *Service) lookup(ctx context.Context, code string) (*Coupon, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, nil
	}
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	return c, nil
}
