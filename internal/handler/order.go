package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/order"
)

var errNotCancellable = apperr.Validation("only pending orders can be cancelled")

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) error {
	userID := r.PathValue("userId")
	if err := ownerOnly(r, userID); err != nil {
		return err
	}
	var req order.CreateRequest
	if err := decodeBody(r, fields{
		"shippingAddress": str(&req.ShippingAddress),
		"paymentMethod":   str(&req.PaymentMethod),
		"note":            str(&req.Note),
		"couponCode":      str(&req.CouponCode),
	}); err != nil {
		return err
	}
	o, err := h.Orders.CreateOrder(r.Context(), userID, req)
	if err != nil {
		return err
	}
	return created(w, "order created", one(*o, encodeOrder))
}

func (h *Handler) getUserOrders(w http.ResponseWriter, r *http.Request) error {
	userID := r.PathValue("userId")
	if err := ownerOnly(r, userID); err != nil {
		return err
	}
	orders, err := h.Orders.GetUserOrders(r.Context(), userID)
	if err != nil {
		return err
	}
	return ok(w, "orders retrieved", list(orders, encodeOrder))
}

// listOrders supports ?status=, ?page= and ?size=.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) error {
	p, err := pageParams(r)
	if err != nil {
		return err
	}
	res, err := h.Orders.ListOrders(r.Context(), order.Filter{
		Status: r.URL.Query().Get("status"),
		Page:   p,
	})
	if err != nil {
		return err
	}
	return ok(w, "orders retrieved", page(res, encodeOrder))
}

// ownedOrder loads an order the caller may see. Orders of other users are
// reported as not found.
func (h *Handler) ownedOrder(r *http.Request) (*order.Order, error) {
	o, err := h.Orders.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if !principal(r).CanAccessUser(o.UserID) {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) error {
	o, err := h.ownedOrder(r)
	if err != nil {
		return err
	}
	return ok(w, "order retrieved", one(*o, encodeOrder))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) error {
	var status string
	if err := decodeBody(r, fields{"status": str(&status)}); err != nil {
		return err
	}
	o, err := h.Orders.UpdateOrderStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		return err
	}
	return ok(w, "order status updated", one(*o, encodeOrder))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) error {
	o, err := h.ownedOrder(r)
	if err != nil {
		return err
	}
	cancelled, err := h.Orders.CancelOrder(r.Context(), o.ID)
	if err != nil {
		return err
	}
	if !cancelled {
		return errNotCancellable
	}
	return ok(w, "order cancelled", nil)
}
