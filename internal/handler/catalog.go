package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/category"
	"github.com/xenking/storefront/internal/domain/product"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) error {
	cs, err := h.Categories.List(r.Context())
	if err != nil {
		return err
	}
	return ok(w, "categories retrieved", list(cs, encodeCategory))
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) error {
	c, err := h.Categories.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	return ok(w, "category retrieved", one(*c, encodeCategory))
}

func (h *Handler) listSubcategories(w http.ResponseWriter, r *http.Request) error {
	cs, err := h.Categories.Children(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	return ok(w, "subcategories retrieved", list(cs, encodeCategory))
}

func categoryFields(req *category.Request) fields {
	return fields{
		"name":     str(&req.Name),
		"parentId": optStr(&req.ParentID),
	}
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) error {
	var req category.Request
	if err := decodeBody(r, categoryFields(&req)); err != nil {
		return err
	}
	c, err := h.Categories.Create(r.Context(), req)
	if err != nil {
		return err
	}
	return created(w, "category created", one(*c, encodeCategory))
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) error {
	var req category.Request
	if err := decodeBody(r, categoryFields(&req)); err != nil {
		return err
	}
	c, err := h.Categories.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		return err
	}
	return ok(w, "category updated", one(*c, encodeCategory))
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) error {
	if err := h.Categories.Delete(r.Context(), r.PathValue("id")); err != nil {
		return err
	}
	return noContent(w)
}

// listProducts supports ?categoryId=, ?search=, ?page= and ?size=.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) error {
	p, err := pageParams(r)
	if err != nil {
		return err
	}
	q := r.URL.Query()
	res, err := h.Products.ListProducts(r.Context(), product.Filter{
		CategoryID: q.Get("categoryId"),
		Search:     q.Get("search"),
		Page:       p,
	})
	if err != nil {
		return err
	}
	return ok(w, "products retrieved", page(res, encodeProduct))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) error {
	d, err := h.Products.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	return ok(w, "product retrieved", one(*d, encodeProductDetails))
}

func productFields(req *product.Request) fields {
	return fields{
		"categoryId":   optStr(&req.CategoryID),
		"name":         str(&req.Name),
		"description":  str(&req.Description),
		"imageUrl":     str(&req.ImageURL),
		"supplierName": str(&req.SupplierName),
		"isActive":     optBool(&req.IsActive),
	}
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) error {
	var req product.Request
	if err := decodeBody(r, productFields(&req)); err != nil {
		return err
	}
	p, err := h.Products.CreateProduct(r.Context(), req)
	if err != nil {
		return err
	}
	return created(w, "product created", one(*p, encodeProduct))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) error {
	var req product.Request
	if err := decodeBody(r, productFields(&req)); err != nil {
		return err
	}
	p, err := h.Products.UpdateProduct(r.Context(), r.PathValue("id"), req)
	if err != nil {
		return err
	}
	return ok(w, "product updated", one(*p, encodeProduct))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) error {
	if err := h.Products.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		return err
	}
	return noContent(w)
}

func (h *Handler) listVariants(w http.ResponseWriter, r *http.Request) error {
	vs, err := h.Products.ListVariants(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	return ok(w, "variants retrieved", list(vs, encodeVariant))
}

func (h *Handler) getVariant(w http.ResponseWriter, r *http.Request) error {
	v, err := h.Products.GetVariant(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	return ok(w, "variant retrieved", one(*v, encodeVariant))
}

func variantFields(req *product.VariantRequest) fields {
	return fields{
		"variantName":   optStr(&req.Name),
		"price":         money("price", &req.Price),
		"stockQuantity": integer(&req.StockQuantity),
		"isActive":      optBool(&req.IsActive),
	}
}

func (h *Handler) createVariant(w http.ResponseWriter, r *http.Request) error {
	var req product.VariantRequest
	if err := decodeBody(r, variantFields(&req)); err != nil {
		return err
	}
	v, err := h.Products.CreateVariant(r.Context(), r.PathValue("id"), req)
	if err != nil {
		return err
	}
	return created(w, "variant created", one(*v, encodeVariant))
}

func (h *Handler) updateVariant(w http.ResponseWriter, r *http.Request) error {
	var req product.VariantRequest
	if err := decodeBody(r, variantFields(&req)); err != nil {
		return err
	}
	v, err := h.Products.UpdateVariant(r.Context(), r.PathValue("id"), req)
	if err != nil {
		return err
	}
	return ok(w, "variant updated", one(*v, encodeVariant))
}

func (h *Handler) deleteVariant(w http.ResponseWriter, r *http.Request) error {
	if err := h.Products.DeleteVariant(r.Context(), r.PathValue("id")); err != nil {
		return err
	}
	return noContent(w)
}

var errStockRequest = apperr.Validation(`exactly one of "deduct" or "restock" is required`)

// adjustStock accepts {"deduct": n} or {"restock": n}.
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) error {
	var deduct, restock int
	if err := decodeBody(r, fields{
		"deduct":  integer(&deduct),
		"restock": integer(&restock),
	}); err != nil {
		return err
	}
	var (
		v   *product.Variant
		err error
	)
	switch {
	case deduct != 0 && restock == 0:
		v, err = h.Products.DeductStock(r.Context(), r.PathValue("id"), deduct)
	case restock != 0 && deduct == 0:
		v, err = h.Products.Restock(r.Context(), r.PathValue("id"), restock)
	default:
		return errStockRequest
	}
	if err != nil {
		return err
	}
	return ok(w, "stock updated", one(*v, encodeVariant))
}
