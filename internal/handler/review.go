package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/review"
)

func (h *Handler) listProductReviews(w http.ResponseWriter, r *http.Request) error {
	rs, err := h.Reviews.ListProductReviews(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	return ok(w, "reviews retrieved", list(rs, encodeReview))
}

func (h *Handler) getProductRating(w http.ResponseWriter, r *http.Request) error {
	rating, err := h.Reviews.GetProductRating(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	return ok(w, "rating retrieved", one(rating, encodeRating))
}

func (h *Handler) listUserReviews(w http.ResponseWriter, r *http.Request) error {
	userID := r.PathValue("userId")
	if err := ownerOnly(r, userID); err != nil {
		return err
	}
	rs, err := h.Reviews.ListUserReviews(r.Context(), userID)
	if err != nil {
		return err
	}
	return ok(w, "reviews retrieved", list(rs, encodeReview))
}

func (h *Handler) getReview(w http.ResponseWriter, r *http.Request) error {
	rv, err := h.Reviews.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	return ok(w, "review retrieved", one(*rv, encodeReview))
}

func reviewFields(req *review.Request) fields {
	return fields{
		"productId": str(&req.ProductID),
		"rating":    integer(&req.Rating),
		"comment":   str(&req.Comment),
	}
}

// createReview always reviews as the caller.
func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) error {
	var req review.Request
	if err := decodeBody(r, reviewFields(&req)); err != nil {
		return err
	}
	rv, err := h.Reviews.Create(r.Context(), principal(r).UserID, req)
	if err != nil {
		return err
	}
	return created(w, "review created", one(*rv, encodeReview))
}

// authorOnly loads review {id} and rejects callers that neither wrote it nor
// hold the Admin role.
func (h *Handler) authorOnly(r *http.Request) (*review.Review, error) {
	rv, err := h.Reviews.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if !principal(r).CanAccessUser(rv.UserID) {
		return nil, auth.ErrForbidden
	}
	return rv, nil
}

func (h *Handler) updateReview(w http.ResponseWriter, r *http.Request) error {
	rv, err := h.authorOnly(r)
	if err != nil {
		return err
	}
	var req review.Request
	if err := decodeBody(r, reviewFields(&req)); err != nil {
		return err
	}
	updated, err := h.Reviews.Update(r.Context(), rv.ID, req)
	if err != nil {
		return err
	}
	return ok(w, "review updated", one(*updated, encodeReview))
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) error {
	rv, err := h.authorOnly(r)
	if err != nil {
		return err
	}
	if err := h.Reviews.Delete(r.Context(), rv.ID); err != nil {
		return err
	}
	return noContent(w)
}
