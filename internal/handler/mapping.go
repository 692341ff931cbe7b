package handler

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/category"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/paging"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/review"
	"github.com/xenking/storefront/internal/domain/user"
)

// Encoders from domain types to response objects. Money is written as an
// exact JSON number with two decimals, times as RFC 3339 UTC and ids as
// strings.

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.RawStr(d.StringFixed(2))
}

func encodeOptStr(e *jx.Encoder, s *string) {
	if s == nil {
		e.Null()
		return
	}
	e.Str(*s)
}

func field(e *jx.Encoder, name, value string) {
	e.FieldStart(name)
	e.Str(value)
}

func list[T any](items []T, enc func(*jx.Encoder, T)) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.ArrStart()
		for _, it := range items {
			enc(e, it)
		}
		e.ArrEnd()
	}
}

func one[T any](v T, enc func(*jx.Encoder, T)) func(e *jx.Encoder) {
	return func(e *jx.Encoder) { enc(e, v) }
}

func page[T any](res paging.Result[T], enc func(*jx.Encoder, T)) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		list(res.Items, enc)(e)
		e.FieldStart("page")
		e.Int(res.Page)
		e.FieldStart("pageSize")
		e.Int(res.Size)
		e.FieldStart("totalCount")
		e.Int(res.Total)
		e.FieldStart("totalPages")
		e.Int(res.TotalPages())
		e.ObjEnd()
	}
}

func encodeUser(e *jx.Encoder, u user.User) {
	e.ObjStart()
	field(e, "id", u.ID)
	field(e, "fullName", u.FullName)
	field(e, "username", u.Username)
	e.FieldStart("email")
	encodeOptStr(e, u.Email)
	field(e, "phone", u.Phone)
	field(e, "address", u.Address)
	field(e, "role", u.RoleName)
	e.FieldStart("isActive")
	e.Bool(u.IsActive)
	e.FieldStart("createdAt")
	encodeTime(e, u.CreatedAt)
	e.ObjEnd()
}

func encodeAddress(e *jx.Encoder, a user.Address) {
	e.ObjStart()
	field(e, "id", a.ID)
	field(e, "userId", a.UserID)
	field(e, "addressLine", a.AddressLine)
	e.FieldStart("isDefault")
	e.Bool(a.IsDefault)
	e.ObjEnd()
}

func encodeCategory(e *jx.Encoder, c category.Category) {
	e.ObjStart()
	field(e, "id", c.ID)
	field(e, "name", c.Name)
	e.FieldStart("parentId")
	encodeOptStr(e, c.ParentID)
	e.ObjEnd()
}

func encodeProductFields(e *jx.Encoder, p product.Product) {
	field(e, "id", p.ID)
	e.FieldStart("categoryId")
	encodeOptStr(e, p.CategoryID)
	field(e, "name", p.Name)
	field(e, "description", p.Description)
	field(e, "imageUrl", p.ImageURL)
	field(e, "supplierName", p.SupplierName)
	e.FieldStart("isActive")
	e.Bool(p.IsActive)
	e.FieldStart("createdAt")
	encodeTime(e, p.CreatedAt)
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	encodeProductFields(e, p)
	e.ObjEnd()
}

func encodeProductDetails(e *jx.Encoder, d product.Details) {
	e.ObjStart()
	encodeProductFields(e, d.Product)
	e.FieldStart("variants")
	list(d.Variants, encodeVariant)(e)
	e.ObjEnd()
}

func encodeVariant(e *jx.Encoder, v product.Variant) {
	e.ObjStart()
	field(e, "id", v.ID)
	field(e, "productId", v.ProductID)
	e.FieldStart("variantName")
	encodeOptStr(e, v.Name)
	e.FieldStart("price")
	encodeMoney(e, v.Price)
	e.FieldStart("stockQuantity")
	e.Int(v.StockQuantity)
	e.FieldStart("isActive")
	e.Bool(v.IsActive)
	e.ObjEnd()
}

func encodeCartLine(e *jx.Encoder, l cart.Line) {
	e.ObjStart()
	field(e, "id", l.ItemID)
	field(e, "userId", l.UserID)
	field(e, "variantId", l.VariantID)
	field(e, "productId", l.ProductID)
	field(e, "productName", l.ProductName)
	field(e, "variantName", l.VariantName)
	field(e, "imageUrl", l.ImageURL)
	e.FieldStart("unitPrice")
	encodeMoney(e, l.UnitPrice)
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	e.FieldStart("totalPrice")
	encodeMoney(e, l.Total())
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	field(e, "id", o.ID)
	field(e, "userId", o.UserID)
	e.FieldStart("orderDate")
	encodeTime(e, o.OrderDate)
	field(e, "shippingAddress", o.ShippingAddress)
	e.FieldStart("totalAmount")
	encodeMoney(e, o.TotalAmount)
	e.FieldStart("shippingFee")
	encodeMoney(e, o.ShippingFee)
	field(e, "status", o.Status)
	field(e, "paymentMethod", o.PaymentMethod)
	field(e, "note", o.Note)
	e.FieldStart("couponId")
	encodeOptStr(e, o.CouponID)
	if o.Details != nil {
		e.FieldStart("details")
		list(o.Details, encodeOrderDetail)(e)
	}
	e.ObjEnd()
}

func encodeOrderDetail(e *jx.Encoder, d order.Detail) {
	e.ObjStart()
	field(e, "id", d.ID)
	field(e, "variantId", d.VariantID)
	e.FieldStart("quantity")
	e.Int(d.Quantity)
	e.FieldStart("unitPrice")
	encodeMoney(e, d.UnitPrice)
	e.FieldStart("totalPrice")
	encodeMoney(e, d.Total())
	e.ObjEnd()
}

func encodeCoupon(e *jx.Encoder, c coupon.Coupon) {
	e.ObjStart()
	field(e, "id", c.ID)
	field(e, "code", c.Code)
	e.FieldStart("discountValue")
	encodeMoney(e, c.DiscountValue)
	e.FieldStart("startDate")
	encodeTime(e, c.StartDate)
	e.FieldStart("endDate")
	encodeTime(e, c.EndDate)
	e.FieldStart("isActive")
	e.Bool(c.IsActive)
	e.ObjEnd()
}

func encodeReview(e *jx.Encoder, r review.Review) {
	e.ObjStart()
	field(e, "id", r.ID)
	field(e, "userId", r.UserID)
	field(e, "username", r.Username)
	field(e, "productId", r.ProductID)
	e.FieldStart("rating")
	e.Int(r.Rating)
	e.FieldStart("comment")
	encodeOptStr(e, r.Comment)
	e.FieldStart("createdAt")
	encodeTime(e, r.CreatedAt)
	e.ObjEnd()
}

func encodeRating(e *jx.Encoder, r review.Rating) {
	e.ObjStart()
	field(e, "productId", r.ProductID)
	e.FieldStart("averageRating")
	e.Float64(r.Average)
	e.FieldStart("reviewCount")
	e.Int(r.Count)
	e.ObjEnd()
}
