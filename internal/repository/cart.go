package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
)

const (
	// Prices come from the variant at query time. Lines whose variant or
	// product was deactivated are hidden, so they are neither totalled nor
	// ordered.
	cartLineSelect = `SELECT c.id, c.user_id, c.variant_id, v.product_id, p.name,
		COALESCE(v.variant_name, ''), p.image_url, v.price, c.quantity
		FROM cart_items c
		JOIN product_variants v ON v.id = c.variant_id
		JOIN products p ON p.id = v.product_id AND p.is_active
		WHERE v.is_active`

	listCartLinesSQL = cartLineSelect + ` AND c.user_id = $1 ORDER BY p.name, c.id`
	getCartLineSQL   = cartLineSelect + ` AND c.user_id = $1 AND c.variant_id = $2`

	// A second add of the same variant increments the existing row.
	addCartItemSQL = `INSERT INTO cart_items (id, user_id, variant_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, variant_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	setCartQuantitySQL = `UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND variant_id = $2`
	removeCartItemSQL  = `DELETE FROM cart_items WHERE user_id = $1 AND variant_id = $2`
	clearCartSQL       = `DELETE FROM cart_items WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	db DBTX
}

// NewCartRepository returns a CartRepository that uses db.
func NewCartRepository(db DBTX) *CartRepository {
	return &CartRepository{db: db}
}

// Lines returns the user's cart joined with product and variant data.
func (r *CartRepository) Lines(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.db.Query(ctx, listCartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart of %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// Line returns one cart line or cart.ErrLineNotFound.
func (r *CartRepository) Line(ctx context.Context, userID, variantID string) (*cart.Line, error) {
	rows, err := r.db.Query(ctx, getCartLineSQL, userID, variantID)
	if err != nil {
		return nil, fmt.Errorf("getting cart line: %w", err)
	}
	l, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, fmt.Errorf("getting cart line: %w", err)
	}
	return &l, nil
}

// Add inserts the item or increments the existing (user, variant) row in a
// single statement.
func (r *CartRepository) Add(ctx context.Context, item cart.Item) error {
	_, err := r.db.Exec(ctx, addCartItemSQL, item.ID, item.UserID, item.VariantID, item.Quantity)
	if err != nil {
		return fmt.Errorf("adding cart item: %w", err)
	}
	return nil
}

// SetQuantity overwrites the quantity of an existing line.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, variantID string, quantity int) (bool, error) {
	tag, err := r.db.Exec(ctx, setCartQuantitySQL, userID, variantID, quantity)
	if err != nil {
		return false, fmt.Errorf("setting cart quantity: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Remove deletes one line.
func (r *CartRepository) Remove(ctx context.Context, userID, variantID string) (bool, error) {
	tag, err := r.db.Exec(ctx, removeCartItemSQL, userID, variantID)
	if err != nil {
		return false, fmt.Errorf("removing cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Clear deletes every line of the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, clearCartSQL, userID)
	if err != nil {
		return 0, fmt.Errorf("clearing cart of %q: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var (
		l     cart.Line
		price decimal.Decimal
	)
	err := row.Scan(
		&l.ItemID, &l.UserID, &l.VariantID, &l.ProductID, &l.ProductName,
		&l.VariantName, &l.ImageURL, &price, &l.Quantity,
	)
	l.UnitPrice = price
	return l, err
}
