// Package review manages product reviews. A user can review a product at
// most once.
package review

import (
	"context"
	"time"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/validate"
)

var (
	// ErrNotFound is returned when no review has the given id.
	ErrNotFound = apperr.NotFound("review not found")
	// ErrAlreadyReviewed is returned when the user has already reviewed the
	// product.
	ErrAlreadyReviewed = apperr.Duplicate("you have already reviewed this product")
)

// Review is a user's rating of a product.
type Review struct {
	ID        string
	UserID    string
	Username  string
	ProductID string
	Rating    int
	Comment   *string
	CreatedAt time.Time
}

// Rating summarizes a product's reviews. Average is zero when Count is zero.
type Rating struct {
	ProductID string
	Average   float64
	Count     int
}

// Request is the input for creating or updating a review. ProductID is
// ignored on update.
type Request struct {
	ProductID string
	Rating    int
	Comment   string
}

// Validate checks the request fields.
func (r Request) Validate() error {
	var v validate.Validator
	v.Range("rating", r.Rating, 1, 5)
	v.MaxLen("comment", r.Comment, 1000)
	return v.Err()
}

// Repository defines persistence operations for reviews.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Review, error)
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	ListByUser(ctx context.Context, userID string) ([]Review, error)
	Exists(ctx context.Context, userID, productID string) (bool, error)
	Rating(ctx context.Context, productID string) (Rating, error)
	// Create inserts r, returning ErrAlreadyReviewed when the (user,
	// product) pair is taken.
	Create(ctx context.Context, r *Review) error
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) (bool, error)
}
