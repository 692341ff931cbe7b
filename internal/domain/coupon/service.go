package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service manages coupons and answers validity questions about them.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a coupon Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create adds a coupon. The code must be unique.
func (s *Service) Create(ctx context.Context, req Request) (*Coupon, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	code := NormalizeCode(req.Code)

	exists, err := s.repo.CodeExists(ctx, code, "")
	if err != nil {
		return nil, errors.Wrap(err, "check coupon code")
	}
	if exists {
		return nil, ErrCodeExists
	}

	c := &Coupon{
		ID:            uuid.New().String(),
		Code:          code,
		DiscountValue: req.DiscountValue,
		StartDate:     req.StartDate.UTC(),
		EndDate:       req.EndDate.UTC(),
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create coupon")
	}
	return c, nil
}

// Get returns a coupon by id.
func (s *Service) Get(ctx context.Context, id string) (*Coupon, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByCode returns a coupon by code regardless of validity.
func (s *Service) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	return s.repo.GetByCode(ctx, NormalizeCode(code))
}

// List returns every coupon, including inactive ones.
func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}

// ListActive returns the coupons that are valid right now.
func (s *Service) ListActive(ctx context.Context) ([]Coupon, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := make([]Coupon, 0, len(all))
	for i := range all {
		if IsValid(&all[i], now) {
			active = append(active, all[i])
		}
	}
	return active, nil
}

// Update overwrites a coupon. Renaming to a code used by another coupon
// fails with ErrCodeExists.
func (s *Service) Update(ctx context.Context, id string, req Request) (*Coupon, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	code := NormalizeCode(req.Code)
	if code != c.Code {
		exists, err := s.repo.CodeExists(ctx, code, id)
		if err != nil {
			return nil, errors.Wrap(err, "check coupon code")
		}
		if exists {
			return nil, ErrCodeExists
		}
	}

	c.Code = code
	c.DiscountValue = req.DiscountValue
	c.StartDate = req.StartDate.UTC()
	c.EndDate = req.EndDate.UTC()
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update coupon")
	}
	return c, nil
}

// Delete deactivates a coupon. The row is kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.SetActive(ctx, id, false)
}
