package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront/internal/domain/review"
)

const (
	reviewSelect = `SELECT r.id, r.user_id, u.username, r.product_id, r.rating, r.comment, r.created_at
		FROM reviews r JOIN users u ON u.id = r.user_id`

	getReviewSQL          = reviewSelect + ` WHERE r.id = $1`
	listProductReviewsSQL = reviewSelect + ` WHERE r.product_id = $1 ORDER BY r.created_at DESC, r.id`
	listUserReviewsSQL    = reviewSelect + ` WHERE r.user_id = $1 ORDER BY r.created_at DESC, r.id`
	reviewExistsSQL       = `SELECT EXISTS (SELECT 1 FROM reviews WHERE user_id = $1 AND product_id = $2)`
	productRatingSQL      = `SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews WHERE product_id = $1`
	createReviewSQL       = `INSERT INTO reviews (id, user_id, product_id, rating, comment, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	updateReviewSQL       = `UPDATE reviews SET rating = $2, comment = $3 WHERE id = $1`
	deleteReviewSQL       = `DELETE FROM reviews WHERE id = $1`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	db DBTX
}

// NewReviewRepository returns a ReviewRepository that uses db.
func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// GetByID returns a review or review.ErrNotFound.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*review.Review, error) {
	rows, err := r.db.Query(ctx, getReviewSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting review %q: %w", id, err)
	}
	rv, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFound
		}
		return nil, fmt.Errorf("getting review %q: %w", id, err)
	}
	return &rv, nil
}

// ListByProduct returns a product's reviews, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]review.Review, error) {
	rows, err := r.db.Query(ctx, listProductReviewsSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews of product %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanReview)
}

// ListByUser returns a user's reviews, newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string) ([]review.Review, error) {
	rows, err := r.db.Query(ctx, listUserReviewsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews of user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanReview)
}

// Exists reports whether the user already reviewed the product.
func (r *ReviewRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, reviewExistsSQL, userID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking review: %w", err)
	}
	return exists, nil
}

// Rating aggregates a product's reviews.
func (r *ReviewRepository) Rating(ctx context.Context, productID string) (review.Rating, error) {
	rt := review.Rating{ProductID: productID}
	if err := r.db.QueryRow(ctx, productRatingSQL, productID).Scan(&rt.Average, &rt.Count); err != nil {
		return review.Rating{}, fmt.Errorf("rating of %q: %w", productID, err)
	}
	return rt, nil
}

// Create inserts a review. The (user, product) unique constraint backs the
// service pre-check.
func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	_, err := r.db.Exec(ctx, createReviewSQL, rv.ID, rv.UserID, rv.ProductID, rv.Rating, rv.Comment, rv.CreatedAt)
	if err != nil {
		if uniqueViolationOn(err, "") {
			return review.ErrAlreadyReviewed
		}
		return fmt.Errorf("creating review: %w", err)
	}
	return nil
}

// Update overwrites rating and comment.
func (r *ReviewRepository) Update(ctx context.Context, rv *review.Review) error {
	tag, err := r.db.Exec(ctx, updateReviewSQL, rv.ID, rv.Rating, rv.Comment)
	if err != nil {
		return fmt.Errorf("updating review %q: %w", rv.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, deleteReviewSQL, id)
	if err != nil {
		return false, fmt.Errorf("deleting review %q: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanReview(row pgx.CollectableRow) (review.Review, error) {
	var rv review.Review
	err := row.Scan(&rv.ID, &rv.UserID, &rv.Username, &rv.ProductID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	return rv, err
}
