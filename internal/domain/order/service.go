package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/paging"
)

const instrumentationName = "github.com/xenking/storefront/internal/domain/order"

// Option configures a Service.
type Option func(*options)

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithTracerProvider sets the provider used for order spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the provider used for order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// Service places and manages orders.
type Service struct {
	uow    UnitOfWork
	orders Repository
	now    func() time.Time

	tracer         trace.Tracer
	ordersCreated  metric.Int64Counter
	couponsApplied metric.Int64Counter
}

// NewService creates an order Service. uow is used for order creation; all
// other operations go through orders directly.
func NewService(uow UnitOfWork, orders Repository, opts ...Option) (*Service, error) {
	o := options{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter(instrumentationName)
	ordersCreated, err := meter.Int64Counter("storefront.orders.created",
		metric.WithDescription("Number of orders placed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	couponsApplied, err := meter.Int64Counter("storefront.coupons.applied",
		metric.WithDescription("Number of orders placed with a valid coupon"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "coupons counter")
	}

	return &Service{
		uow:            uow,
		orders:         orders,
		now:            time.Now,
		tracer:         o.tracerProvider.Tracer(instrumentationName),
		ordersCreated:  ordersCreated,
		couponsApplied: couponsApplied,
	}, nil
}

// CreateOrder turns the user's cart into a pending order inside one
// transaction: the cart is read with live prices, an optional coupon
// discount is subtracted, the order and one detail per cart line are
// inserted and the cart is cleared. Any failure rolls the whole thing back.
//
// An unknown or invalid coupon code is ignored. The discount is not clamped,
// so the total can be negative. Variant stock is left untouched.
func (s *Service) CreateOrder(ctx context.Context, userID string, req CreateRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created *Order
	err := s.uow.Do(ctx, func(ctx context.Context, r Repos) error {
		lines, err := r.Cart.Lines(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "load cart")
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		subtotal := cart.Subtotal(lines)
		now := s.now()

		discount := decimal.Zero
		var couponID *string
		if code := coupon.NormalizeCode(req.CouponCode); code != "" {
			c, err := r.Coupons.GetByCode(ctx, code)
			switch {
			case errors.Is(err, coupon.ErrNotFound):
				zctx.From(ctx).Debug("Coupon not found, ignoring", zap.String("code", code))
			case err != nil:
				return errors.Wrap(err, "lookup coupon")
			case coupon.IsValid(c, now):
				discount = c.DiscountValue
				couponID = &c.ID
			default:
				zctx.From(ctx).Debug("Coupon not valid, ignoring", zap.String("code", code))
			}
		}

		o := &Order{
			ID:              uuid.New().String(),
			UserID:          userID,
			OrderDate:       now.UTC(),
			ShippingAddress: req.ShippingAddress,
			TotalAmount:     subtotal.Sub(discount),
			ShippingFee:     decimal.Zero,
			Status:          StatusPending,
			PaymentMethod:   req.PaymentMethod,
			Note:            req.Note,
			CouponID:        couponID,
		}
		if err := r.Orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}

		o.Details = make([]Detail, len(lines))
		for i, l := range lines {
			o.Details[i] = Detail{
				ID:        uuid.New().String(),
				OrderID:   o.ID,
				VariantID: l.VariantID,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
			}
		}
		if err := r.Orders.CreateDetails(ctx, o.Details); err != nil {
			return errors.Wrap(err, "insert order details")
		}

		if _, err := r.Cart.Clear(ctx, userID); err != nil {
			return errors.Wrap(err, "clear cart")
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ordersCreated.Add(ctx, 1)
	if created.CouponID != nil {
		s.couponsApplied.Add(ctx, 1)
	}
	span.SetAttributes(attribute.String("order.id", created.ID))
	zctx.From(ctx).Info("Order created",
		zap.String("order_id", created.ID),
		zap.String("user_id", userID),
		zap.String("total", created.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(created.Details)),
	)
	return created, nil
}

// GetOrder returns an order with its details.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Details, err = s.orders.Details(ctx, id); err != nil {
		return nil, errors.Wrap(err, "load order details")
	}
	return o, nil
}

// GetUserOrders returns a user's orders with details, newest first.
func (s *Service) GetUserOrders(ctx context.Context, userID string) ([]Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list user orders")
	}
	for i := range orders {
		if orders[i].Details, err = s.orders.Details(ctx, orders[i].ID); err != nil {
			return nil, errors.Wrap(err, "load order details")
		}
	}
	return orders, nil
}

// ListOrders returns one page of orders, optionally filtered by status.
// Details are not loaded.
func (s *Service) ListOrders(ctx context.Context, f Filter) (paging.Result[Order], error) {
	if f.Status != "" {
		if err := ValidateStatus(f.Status); err != nil {
			return paging.Result[Order]{}, err
		}
	}
	f.Page = f.Page.Normalize()
	items, total, err := s.orders.List(ctx, f)
	if err != nil {
		return paging.Result[Order]{}, errors.Wrap(err, "list orders")
	}
	return paging.NewResult(items, total, f.Page), nil
}

// UpdateOrderStatus sets an order's status. There is no transition graph;
// any known status is accepted.
func (s *Service) UpdateOrderStatus(ctx context.Context, id, status string) (*Order, error) {
	if err := ValidateStatus(status); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

// CancelOrder cancels a pending order. It returns false, leaving the order
// unchanged, when the order is in any other status.
func (s *Service) CancelOrder(ctx context.Context, id string) (bool, error) {
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return false, err
	}
	ok, err := s.orders.CancelPending(ctx, id)
	if err != nil {
		return false, errors.Wrap(err, "cancel order")
	}
	return ok, nil
}
