package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/cart"
)

// cartOwner resolves {userId} and rejects callers acting on another cart.
func cartOwner(r *http.Request) (string, error) {
	userID := r.PathValue("userId")
	return userID, ownerOnly(r, userID)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) error {
	userID, err := cartOwner(r)
	if err != nil {
		return err
	}
	lines, err := h.Carts.GetCartItems(r.Context(), userID)
	if err != nil {
		return err
	}
	return ok(w, "cart retrieved", list(lines, encodeCartLine))
}

func (h *Handler) getCartTotal(w http.ResponseWriter, r *http.Request) error {
	userID, err := cartOwner(r)
	if err != nil {
		return err
	}
	total, err := h.Carts.GetCartTotal(r.Context(), userID)
	if err != nil {
		return err
	}
	return ok(w, "cart total retrieved", func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("total")
		encodeMoney(e, total)
		e.ObjEnd()
	})
}

func (h *Handler) getCartCount(w http.ResponseWriter, r *http.Request) error {
	userID, err := cartOwner(r)
	if err != nil {
		return err
	}
	n, err := h.Carts.GetCartCount(r.Context(), userID)
	if err != nil {
		return err
	}
	return ok(w, "cart count retrieved", func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("count")
		e.Int(n)
		e.ObjEnd()
	})
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) error {
	userID, err := cartOwner(r)
	if err != nil {
		return err
	}
	var req cart.AddRequest
	if err := decodeBody(r, fields{
		"variantId": str(&req.VariantID),
		"quantity":  integer(&req.Quantity),
	}); err != nil {
		return err
	}
	line, err := h.Carts.AddToCart(r.Context(), userID, req)
	if err != nil {
		return err
	}
	return ok(w, "item added to cart", one(*line, encodeCartLine))
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) error {
	userID, err := cartOwner(r)
	if err != nil {
		return err
	}
	var req cart.UpdateRequest
	if err := decodeBody(r, fields{
		"variantId": str(&req.VariantID),
		"quantity":  integer(&req.Quantity),
	}); err != nil {
		return err
	}
	updated, err := h.Carts.UpdateCartItem(r.Context(), userID, req)
	if err != nil {
		return err
	}
	if !updated {
		return cart.ErrLineNotFound
	}
	return ok(w, "cart item updated", nil)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) error {
	userID, err := cartOwner(r)
	if err != nil {
		return err
	}
	removed, err := h.Carts.RemoveFromCart(r.Context(), userID, r.PathValue("variantId"))
	if err != nil {
		return err
	}
	if !removed {
		return cart.ErrLineNotFound
	}
	return noContent(w)
}

// clearCart always succeeds; "cleared" is false when the cart was empty.
func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) error {
	userID, err := cartOwner(r)
	if err != nil {
		return err
	}
	cleared, err := h.Carts.ClearCart(r.Context(), userID)
	if err != nil {
		return err
	}
	return ok(w, "cart cleared", func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("cleared")
		e.Bool(cleared)
		e.ObjEnd()
	})
}
