package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/order"
)

// Repositories bundles every repository over one DBTX.
type Repositories struct {
	Users      *UserRepository
	Roles      *RoleRepository
	Addresses  *AddressRepository
	Categories *CategoryRepository
	Products   *ProductRepository
	Variants   *VariantRepository
	Carts      *CartRepository
	Coupons    *CouponRepository
	Orders     *OrderRepository
	Reviews    *ReviewRepository
}

// NewRepositories binds every repository to db.
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		Users:      NewUserRepository(db),
		Roles:      NewRoleRepository(db),
		Addresses:  NewAddressRepository(db),
		Categories: NewCategoryRepository(db),
		Products:   NewProductRepository(db),
		Variants:   NewVariantRepository(db),
		Carts:      NewCartRepository(db),
		Coupons:    NewCouponRepository(db),
		Orders:     NewOrderRepository(db),
		Reviews:    NewReviewRepository(db),
	}
}

// UnitOfWork runs a function against transaction-bound repositories.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork returns a UnitOfWork that opens transactions on pool.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// Do begins a transaction and calls fn with repositories bound to it. The
// transaction commits when fn returns nil and rolls back when fn returns an
// error or panics.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, r *Repositories) error) error {
	return pgx.BeginFunc(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}

var _ order.UnitOfWork = OrderUnitOfWork{}

// OrderUnitOfWork exposes a UnitOfWork as an order.UnitOfWork.
type OrderUnitOfWork struct {
	UoW *UnitOfWork
}

// Do implements order.UnitOfWork.
func (o OrderUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, r order.Repos) error) error {
	return o.UoW.Do(ctx, func(ctx context.Context, r *Repositories) error {
		return fn(ctx, order.Repos{Cart: r.Carts, Coupons: r.Coupons, Orders: r.Orders})
	})
}
