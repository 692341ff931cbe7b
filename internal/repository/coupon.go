package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/coupon"
)

const (
	couponColumns = `id, code, discount_value, start_date, end_date, is_active`

	listCouponsSQL     = `SELECT ` + couponColumns + ` FROM coupons ORDER BY start_date DESC, code`
	getCouponSQL       = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`
	couponCodeUsedSQL  = `SELECT EXISTS (SELECT 1 FROM coupons WHERE code = $1 AND id <> $2)`
	createCouponSQL    = `INSERT INTO coupons (` + couponColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	updateCouponSQL    = `UPDATE coupons SET code = $2, discount_value = $3, start_date = $4, end_date = $5, is_active = $6 WHERE id = $1`
	setCouponActiveSQL = `UPDATE coupons SET is_active = $2 WHERE id = $1`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
// Codes are stored normalized, so lookups compare them directly.
type CouponRepository struct {
	db DBTX
}

// NewCouponRepository returns a CouponRepository that uses db.
func NewCouponRepository(db DBTX) *CouponRepository {
	return &CouponRepository{db: db}
}

// List returns every coupon, newest window first.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := r.db.Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// GetByID returns a coupon or coupon.ErrNotFound.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	return r.getOne(ctx, getCouponSQL, id)
}

// GetByCode returns a coupon, active or not, or coupon.ErrNotFound.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.getOne(ctx, getCouponByCodeSQL, code)
}

func (r *CouponRepository) getOne(ctx context.Context, sql, arg string) (*coupon.Coupon, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %q: %w", arg, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("getting coupon %q: %w", arg, err)
	}
	return &c, nil
}

// CodeExists reports whether another coupon already uses code.
func (r *CouponRepository) CodeExists(ctx context.Context, code, excludeID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, couponCodeUsedSQL, code, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking coupon code %q: %w", code, err)
	}
	return exists, nil
}

// Create inserts a coupon. A concurrent insert of the same code surfaces as
// coupon.ErrCodeExists.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.db.Exec(ctx, createCouponSQL, c.ID, c.Code, c.DiscountValue, c.StartDate, c.EndDate, c.IsActive)
	if err != nil {
		if uniqueViolationOn(err, "") {
			return coupon.ErrCodeExists
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update overwrites every coupon column.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	tag, err := r.db.Exec(ctx, updateCouponSQL, c.ID, c.Code, c.DiscountValue, c.StartDate, c.EndDate, c.IsActive)
	if err != nil {
		if uniqueViolationOn(err, "") {
			return coupon.ErrCodeExists
		}
		return fmt.Errorf("updating coupon %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// SetActive toggles the soft-delete flag.
func (r *CouponRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, setCouponActiveSQL, id, active)
	if err != nil {
		return fmt.Errorf("setting coupon %q active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c     coupon.Coupon
		value decimal.Decimal
	)
	err := row.Scan(&c.ID, &c.Code, &value, &c.StartDate, &c.EndDate, &c.IsActive)
	c.DiscountValue = value
	return c, err
}
