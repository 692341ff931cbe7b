package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
)

const (
	orderColumns = `id, user_id, order_date, shipping_address, total_amount, shipping_fee,
		status, payment_method, note, coupon_id`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	getOrderSQL        = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	listUserOrdersSQL  = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY order_date DESC, id`
	listOrdersSQL      = `SELECT ` + orderColumns + ` FROM orders WHERE ($1 = '' OR status = $1) ORDER BY order_date DESC, id LIMIT $2 OFFSET $3`
	countOrdersSQL     = `SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)`
	updateOrderSQL     = `UPDATE orders SET status = $2 WHERE id = $1`
	cancelPendingSQL   = `UPDATE orders SET status = 'Cancelled' WHERE id = $1 AND status = 'Pending'`
	listOrderDetailSQL = `SELECT id, order_id, variant_id, quantity, unit_price FROM order_details WHERE order_id = $1 ORDER BY position`
)

var orderDetailColumns = []string{"id", "order_id", "position", "variant_id", "quantity", "unit_price"}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository returns an OrderRepository that uses db.
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order row.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.db.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, o.OrderDate, o.ShippingAddress, o.TotalAmount, o.ShippingFee,
		o.Status, o.PaymentMethod, o.Note, o.CouponID,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// CreateDetails bulk-inserts order lines with COPY, keeping their slice
// order as the line position.
func (r *OrderRepository) CreateDetails(ctx context.Context, details []order.Detail) error {
	_, err := r.db.CopyFrom(ctx, pgx.Identifier{"order_details"}, orderDetailColumns,
		pgx.CopyFromSlice(len(details), func(i int) ([]any, error) {
			d := details[i]
			return []any{d.ID, d.OrderID, i, d.VariantID, d.Quantity, d.UnitPrice}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("creating order details: %w", err)
	}
	return nil
}

// GetByID returns an order without details, or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.db.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// Details returns the lines of an order in insertion order.
func (r *OrderRepository) Details(ctx context.Context, orderID string) ([]order.Detail, error) {
	rows, err := r.db.Query(ctx, listOrderDetailSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing details of %q: %w", orderID, err)
	}
	return pgx.CollectRows(rows, scanOrderDetail)
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, listUserOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// List returns one page of orders, newest first, optionally filtered by
// status, and the number of matching orders.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, int, error) {
	total, err := count(ctx, r.db, countOrdersSQL, f.Status)
	if err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}
	rows, err := r.db.Query(ctx, listOrdersSQL, f.Status, f.Page.Limit(), f.Page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	return items, total, nil
}

// UpdateStatus sets the status unconditionally.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.db.Exec(ctx, updateOrderSQL, id, status)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// CancelPending cancels the order only if it is still pending. The status
// check and update happen in one statement.
func (r *OrderRepository) CancelPending(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, cancelPendingSQL, id)
	if err != nil {
		return false, fmt.Errorf("cancelling order %q: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o          order.Order
		total, fee decimal.Decimal
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.OrderDate, &o.ShippingAddress, &total, &fee,
		&o.Status, &o.PaymentMethod, &o.Note, &o.CouponID,
	)
	o.TotalAmount = total
	o.ShippingFee = fee
	return o, err
}

func scanOrderDetail(row pgx.CollectableRow) (order.Detail, error) {
	var (
		d     order.Detail
		price decimal.Decimal
	)
	err := row.Scan(&d.ID, &d.OrderID, &d.VariantID, &d.Quantity, &price)
	d.UnitPrice = price
	return d, err
}
