package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront/internal/domain/product"
)

const (
	productColumns = `id, category_id, name, description, image_url, supplier_name, is_active, created_at`

	// $1 category filter, $2 name search; empty strings disable them.
	productFilter = ` FROM products
		WHERE is_active
		  AND ($1 = '' OR category_id = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')`

	listProductsSQL  = `SELECT ` + productColumns + productFilter + ` ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`
	countProductsSQL = `SELECT COUNT(*)` + productFilter
	getProductSQL    = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	createProductSQL = `INSERT INTO products (` + productColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	updateProductSQL = `UPDATE products SET category_id = $2, name = $3, description = $4,
		image_url = $5, supplier_name = $6, is_active = $7 WHERE id = $1`
	setProductActiveSQL = `UPDATE products SET is_active = $2 WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	db DBTX
}

// NewProductRepository returns a ProductRepository that uses db.
func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns one page of active products, newest first, and the number of
// products matching the filter.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, int, error) {
	total, err := count(ctx, r.db, countProductsSQL, f.CategoryID, f.Search)
	if err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}
	rows, err := r.db.Query(ctx, listProductsSQL, f.CategoryID, f.Search, f.Page.Limit(), f.Page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return items, total, nil
}

// GetByID returns a product, active or not, or product.ErrNotFound.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.db.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Create inserts a product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.db.Exec(ctx, createProductSQL,
		p.ID, p.CategoryID, p.Name, p.Description, p.ImageURL, p.SupplierName, p.IsActive, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

// Update overwrites the editable product columns.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.db.Exec(ctx, updateProductSQL,
		p.ID, p.CategoryID, p.Name, p.Description, p.ImageURL, p.SupplierName, p.IsActive,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// SetActive toggles the soft-delete flag.
func (r *ProductRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, setProductActiveSQL, id, active)
	if err != nil {
		return fmt.Errorf("setting product %q active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Description,
		&p.ImageURL, &p.SupplierName, &p.IsActive, &p.CreatedAt,
	)
	return p, err
}
