package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

const (
	variantColumns = `id, product_id, variant_name, price, stock_quantity, is_active`

	listVariantsSQL     = `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = $1 AND is_active ORDER BY price, id`
	getVariantSQL       = `SELECT ` + variantColumns + ` FROM product_variants WHERE id = $1`
	createVariantSQL    = `INSERT INTO product_variants (` + variantColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	updateVariantSQL    = `UPDATE product_variants SET variant_name = $2, price = $3, stock_quantity = $4, is_active = $5 WHERE id = $1`
	setVariantActiveSQL = `UPDATE product_variants SET is_active = $2 WHERE id = $1`
	variantExistsSQL    = `SELECT EXISTS (SELECT 1 FROM product_variants WHERE id = $1)`
	purchasableSQL      = `SELECT v.is_active AND p.is_active FROM product_variants v
		JOIN products p ON p.id = v.product_id WHERE v.id = $1`

	// The guard keeps stock non-negative without a read-modify-write race.
	adjustStockSQL = `UPDATE product_variants SET stock_quantity = stock_quantity + $2
		WHERE id = $1 AND stock_quantity + $2 >= 0
		RETURNING stock_quantity`
)

var _ product.VariantRepository = (*VariantRepository)(nil)

// VariantRepository implements product.VariantRepository backed by
// PostgreSQL.
type VariantRepository struct {
	db DBTX
}

// NewVariantRepository returns a VariantRepository that uses db.
func NewVariantRepository(db DBTX) *VariantRepository {
	return &VariantRepository{db: db}
}

// ListByProduct returns the active variants of a product, cheapest first.
func (r *VariantRepository) ListByProduct(ctx context.Context, productID string) ([]product.Variant, error) {
	rows, err := r.db.Query(ctx, listVariantsSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing variants of %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanVariant)
}

// GetByID returns a variant, active or not, or product.ErrVariantNotFound.
func (r *VariantRepository) GetByID(ctx context.Context, id string) (*product.Variant, error) {
	rows, err := r.db.Query(ctx, getVariantSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting variant %q: %w", id, err)
	}
	v, err := pgx.CollectExactlyOneRow(rows, scanVariant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrVariantNotFound
		}
		return nil, fmt.Errorf("getting variant %q: %w", id, err)
	}
	return &v, nil
}

// Purchasable reports whether the variant and its product are both active.
func (r *VariantRepository) Purchasable(ctx context.Context, id string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, purchasableSQL, id).Scan(&ok); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, product.ErrVariantNotFound
		}
		return false, fmt.Errorf("checking variant %q: %w", id, err)
	}
	return ok, nil
}

// Create inserts a variant.
func (r *VariantRepository) Create(ctx context.Context, v *product.Variant) error {
	_, err := r.db.Exec(ctx, createVariantSQL, v.ID, v.ProductID, v.Name, v.Price, v.StockQuantity, v.IsActive)
	if err != nil {
		return fmt.Errorf("creating variant: %w", err)
	}
	return nil
}

// Update overwrites name, price, stock and the active flag.
func (r *VariantRepository) Update(ctx context.Context, v *product.Variant) error {
	tag, err := r.db.Exec(ctx, updateVariantSQL, v.ID, v.Name, v.Price, v.StockQuantity, v.IsActive)
	if err != nil {
		return fmt.Errorf("updating variant %q: %w", v.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrVariantNotFound
	}
	return nil
}

// SetActive toggles the soft-delete flag.
func (r *VariantRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, setVariantActiveSQL, id, active)
	if err != nil {
		return fmt.Errorf("setting variant %q active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrVariantNotFound
	}
	return nil
}

// AdjustStock adds delta to the stock in one statement and returns the new
// quantity. A delta that would make stock negative changes nothing and
// returns product.ErrInsufficientStock; one that overflows the column returns
// product.ErrStockOutOfRange.
func (r *VariantRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	var stock int
	err := r.db.QueryRow(ctx, adjustStockSQL, id, delta).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if pgCode(err, numericOutOfRange) {
		return 0, product.ErrStockOutOfRange
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("adjusting stock of %q: %w", id, err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, variantExistsSQL, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("checking variant %q: %w", id, err)
	}
	if !exists {
		return 0, product.ErrVariantNotFound
	}
	return 0, product.ErrInsufficientStock
}

func scanVariant(row pgx.CollectableRow) (product.Variant, error) {
	var (
		v     product.Variant
		price decimal.Decimal
	)
	err := row.Scan(&v.ID, &v.ProductID, &v.Name, &price, &v.StockQuantity, &v.IsActive)
	v.Price = price
	return v, err
}
