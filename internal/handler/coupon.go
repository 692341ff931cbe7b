package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/coupon"
)

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) error {
	cs, err := h.Coupons.List(r.Context())
	if err != nil {
		return err
	}
	return ok(w, "coupons retrieved", list(cs, encodeCoupon))
}

func (h *Handler) listActiveCoupons(w http.ResponseWriter, r *http.Request) error {
	cs, err := h.Coupons.ListActive(r.Context())
	if err != nil {
		return err
	}
	return ok(w, "active coupons retrieved", list(cs, encodeCoupon))
}

func (h *Handler) getCoupon(w http.ResponseWriter, r *http.Request) error {
	c, err := h.Coupons.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	return ok(w, "coupon retrieved", one(*c, encodeCoupon))
}

func (h *Handler) getCouponByCode(w http.ResponseWriter, r *http.Request) error {
	c, err := h.Coupons.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		return err
	}
	return ok(w, "coupon retrieved", one(*c, encodeCoupon))
}

func couponFields(req *coupon.Request) fields {
	return fields{
		"code":          str(&req.Code),
		"discountValue": money("discountValue", &req.DiscountValue),
		"startDate":     date("startDate", &req.StartDate),
		"endDate":       date("endDate", &req.EndDate),
		"isActive":      optBool(&req.IsActive),
	}
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) error {
	var req coupon.Request
	if err := decodeBody(r, couponFields(&req)); err != nil {
		return err
	}
	c, err := h.Coupons.Create(r.Context(), req)
	if err != nil {
		return err
	}
	return created(w, "coupon created", one(*c, encodeCoupon))
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) error {
	var req coupon.Request
	if err := decodeBody(r, couponFields(&req)); err != nil {
		return err
	}
	c, err := h.Coupons.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		return err
	}
	return ok(w, "coupon updated", one(*c, encodeCoupon))
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) error {
	if err := h.Coupons.Delete(r.Context(), r.PathValue("id")); err != nil {
		return err
	}
	return noContent(w)
}

func (h *Handler) validateCoupon(w http.ResponseWriter, r *http.Request) error {
	var code string
	if err := decodeBody(r, fields{"code": str(&code)}); err != nil {
		return err
	}
	valid, err := h.Coupons.ValidateCoupon(r.Context(), code)
	if err != nil {
		return err
	}
	return ok(w, "coupon checked", func(e *jx.Encoder) {
		e.ObjStart()
		field(e, "code", coupon.NormalizeCode(code))
		e.FieldStart("isValid")
		e.Bool(valid)
		e.ObjEnd()
	})
}

func (h *Handler) calculateDiscount(w http.ResponseWriter, r *http.Request) error {
	var (
		code   string
		amount decimal.Decimal
	)
	if err := decodeBody(r, fields{
		"code":        str(&code),
		"orderAmount": money("orderAmount", &amount),
	}); err != nil {
		return err
	}
	discount, err := h.Coupons.CalculateDiscount(r.Context(), code, amount)
	if err != nil {
		return err
	}
	return ok(w, "discount calculated", func(e *jx.Encoder) {
		e.ObjStart()
		field(e, "code", coupon.NormalizeCode(code))
		e.FieldStart("orderAmount")
		encodeMoney(e, amount)
		e.FieldStart("discount")
		encodeMoney(e, discount)
		e.ObjEnd()
	})
}
