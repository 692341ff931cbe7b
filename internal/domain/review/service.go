package review

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/product"
)

// ProductLookup resolves products.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// Service manages reviews.
type Service struct {
	reviews  Repository
	products ProductLookup
	now      func() time.Time
}

// NewService creates a review Service.
func NewService(reviews Repository, products ProductLookup) *Service {
	return &Service{reviews: reviews, products: products, now: time.Now}
}

// Create stores a review of an existing product. A second review of the same
// product by the same user fails with ErrAlreadyReviewed.
func (s *Service) Create(ctx context.Context, userID string, req Request) (*Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, product.ErrNotFound
	}
	if _, err := s.products.GetByID(ctx, req.ProductID); err != nil {
		return nil, err
	}

	exists, err := s.reviews.Exists(ctx, userID, req.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "check review")
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	r := &Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   comment(req.Comment),
		CreatedAt: s.now().UTC(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, err
		}
		return nil, errors.Wrap(err, "create review")
	}
	return r, nil
}

// Get returns a review by id.
func (s *Service) Get(ctx context.Context, id string) (*Review, error) {
	return s.reviews.GetByID(ctx, id)
}

// ListProductReviews returns a product's reviews, newest first.
func (s *Service) ListProductReviews(ctx context.Context, productID string) ([]Review, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.reviews.ListByProduct(ctx, productID)
}

// ListUserReviews returns a user's reviews, newest first.
func (s *Service) ListUserReviews(ctx context.Context, userID string) ([]Review, error) {
	return s.reviews.ListByUser(ctx, userID)
}

// GetProductRating returns the average rating and review count.
func (s *Service) GetProductRating(ctx context.Context, productID string) (Rating, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return Rating{}, err
	}
	r, err := s.reviews.Rating(ctx, productID)
	if err != nil {
		return Rating{}, errors.Wrap(err, "product rating")
	}
	r.ProductID = productID
	return r, nil
}

// Update changes the rating and comment of a review.
func (s *Service) Update(ctx context.Context, id string, req Request) (*Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Rating = req.Rating
	r.Comment = comment(req.Comment)
	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, errors.Wrap(err, "update review")
	}
	return r, nil
}

// Delete removes a review.
func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.reviews.Delete(ctx, id)
	if err != nil {
		return errors.Wrap(err, "delete review")
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func comment(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
