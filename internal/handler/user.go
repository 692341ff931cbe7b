package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/user"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) error {
	p, err := pageParams(r)
	if err != nil {
		return err
	}
	res, err := h.Users.ListUsers(r.Context(), p)
	if err != nil {
		return err
	}
	return ok(w, "users retrieved", page(res, encodeUser))
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) error {
	var req user.RegisterRequest
	f := registerFields(&req)
	f["role"] = str(&req.Role)
	if err := decodeBody(r, f); err != nil {
		return err
	}
	u, err := h.Users.CreateUser(r.Context(), req)
	if err != nil {
		return err
	}
	return created(w, "user created", one(*u, encodeUser))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	if err := ownerOnly(r, id); err != nil {
		return err
	}
	u, err := h.Users.GetUser(r.Context(), id)
	if err != nil {
		return err
	}
	return ok(w, "user retrieved", one(*u, encodeUser))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	if err := ownerOnly(r, id); err != nil {
		return err
	}
	var req user.UpdateRequest
	if err := decodeBody(r, fields{
		"fullName": str(&req.FullName),
		"email":    str(&req.Email),
		"phone":    str(&req.Phone),
		"address":  str(&req.Address),
		"isActive": optBool(&req.IsActive),
		"role":     str(&req.Role),
	}); err != nil {
		return err
	}
	if !principal(r).IsAdmin() {
		req.IsActive, req.Role = nil, ""
	}
	u, err := h.Users.UpdateUser(r.Context(), id, req)
	if err != nil {
		return err
	}
	return ok(w, "user updated", one(*u, encodeUser))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) error {
	if err := h.Users.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		return err
	}
	return noContent(w)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	// Only the account holder knows the current password.
	if principal(r).UserID != id {
		return auth.ErrForbidden
	}
	var req user.PasswordRequest
	if err := decodeBody(r, fields{
		"currentPassword": str(&req.Current),
		"newPassword":     str(&req.New),
	}); err != nil {
		return err
	}
	if err := h.Users.ChangePassword(r.Context(), id, req); err != nil {
		return err
	}
	return ok(w, "password changed", nil)
}

func addressFields(req *user.AddressRequest) fields {
	return fields{
		"addressLine": str(&req.AddressLine),
		"isDefault":   boolean(&req.IsDefault),
	}
}

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) error {
	userID := r.PathValue("id")
	if err := ownerOnly(r, userID); err != nil {
		return err
	}
	addrs, err := h.Users.ListAddresses(r.Context(), userID)
	if err != nil {
		return err
	}
	return ok(w, "addresses retrieved", list(addrs, encodeAddress))
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) error {
	userID := r.PathValue("id")
	if err := ownerOnly(r, userID); err != nil {
		return err
	}
	var req user.AddressRequest
	if err := decodeBody(r, addressFields(&req)); err != nil {
		return err
	}
	a, err := h.Users.AddAddress(r.Context(), userID, req)
	if err != nil {
		return err
	}
	return created(w, "address added", one(*a, encodeAddress))
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) error {
	userID := r.PathValue("id")
	if err := ownerOnly(r, userID); err != nil {
		return err
	}
	var req user.AddressRequest
	if err := decodeBody(r, addressFields(&req)); err != nil {
		return err
	}
	a, err := h.Users.UpdateAddress(r.Context(), userID, r.PathValue("addressId"), req)
	if err != nil {
		return err
	}
	return ok(w, "address updated", one(*a, encodeAddress))
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) error {
	userID := r.PathValue("id")
	if err := ownerOnly(r, userID); err != nil {
		return err
	}
	if err := h.Users.DeleteAddress(r.Context(), userID, r.PathValue("addressId")); err != nil {
		return err
	}
	return noContent(w)
}

func (h *Handler) setDefaultAddress(w http.ResponseWriter, r *http.Request) error {
	userID := r.PathValue("id")
	if err := ownerOnly(r, userID); err != nil {
		return err
	}
	a, err := h.Users.SetDefaultAddress(r.Context(), userID, r.PathValue("addressId"))
	if err != nil {
		return err
	}
	return ok(w, "default address updated", one(*a, encodeAddress))
}
