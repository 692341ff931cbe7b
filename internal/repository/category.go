package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/storefront/internal/domain/category"
)

const (
	categoryColumns = `id, name, parent_id`

	listCategoriesSQL = `SELECT ` + categoryColumns + ` FROM categories ORDER BY name, id`
	listChildrenSQL   = `SELECT ` + categoryColumns + ` FROM categories WHERE parent_id = $1 ORDER BY name, id`
	getCategorySQL    = `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	createCategorySQL = `INSERT INTO categories (id, name, parent_id) VALUES ($1, $2, $3)`
	updateCategorySQL = `UPDATE categories SET name = $2, parent_id = $3 WHERE id = $1`
	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`
)

var _ category.Repository = (*CategoryRepository)(nil)

// CategoryRepository implements category.Repository backed by PostgreSQL.
type CategoryRepository struct {
	db DBTX
}

// NewCategoryRepository returns a CategoryRepository that uses db.
func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns every category ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]category.Category, error) {
	rows, err := r.db.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// ListChildren returns the direct children of parentID.
func (r *CategoryRepository) ListChildren(ctx context.Context, parentID string) ([]category.Category, error) {
	rows, err := r.db.Query(ctx, listChildrenSQL, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing children of %q: %w", parentID, err)
	}
	return pgx.CollectRows(rows, scanCategory)
}

// GetByID returns a category or category.ErrNotFound.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*category.Category, error) {
	rows, err := r.db.Query(ctx, getCategorySQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %q: %w", id, err)
	}
	return &c, nil
}

// Create inserts a category.
func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	if _, err := r.db.Exec(ctx, createCategorySQL, c.ID, c.Name, c.ParentID); err != nil {
		return fmt.Errorf("creating category: %w", err)
	}
	return nil
}

// Update overwrites name and parent.
func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	tag, err := r.db.Exec(ctx, updateCategorySQL, c.ID, c.Name, c.ParentID)
	if err != nil {
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

// Delete removes a category. Foreign keys null out parent_id on children
// and category_id on products.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return fmt.Errorf("deleting category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.CollectableRow) (category.Category, error) {
	var c category.Category
	err := row.Scan(&c.ID, &c.Name, &c.ParentID)
	return c, err
}
