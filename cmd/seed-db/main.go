// Command seed-db applies the schema and loads an admin account, a demo
// catalog and a few coupons. Re-running it is safe: existing rows are kept.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/category"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/user"
	"github.com/xenking/storefront/internal/repository"
)

type catalogJSON struct {
	Categories []categoryJSON `json:"categories"`
}

type categoryJSON struct {
	Name     string         `json:"name"`
	Children []categoryJSON `json:"children"`
	Products []productJSON  `json:"products"`
}

type productJSON struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	ImageURL     string        `json:"imageUrl"`
	SupplierName string        `json:"supplierName"`
	Variants     []variantJSON `json:"variants"`
}

type variantJSON struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

func main() {
	var (
		databaseURL   string
		catalogFile   string
		adminUsername string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&adminUsername, "admin-username", "admin", "username of the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "", "admin password (or STORE_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("STORE_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or STORE_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, adminUsername, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, adminUsername, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repos := repository.NewRepositories(pool)

	users := user.NewService(repos.Users, repos.Roles, repos.Addresses, bcrypt.DefaultCost)
	if err := seedAdmin(ctx, users, adminUsername, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin")
	}

	s := &catalogSeeder{
		categories: category.NewService(repos.Categories),
		products:   product.NewService(repos.Products, repos.Variants, repos.Categories),
	}
	if err := s.seed(ctx, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedCoupons(ctx, coupon.NewService(repos.Coupons), time.Now().UTC()); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func seedAdmin(ctx context.Context, users *user.Service, username, password string) error {
	slog.Info("seeding admin account", slog.String("username", username))

	u, err := users.CreateUser(ctx, user.RegisterRequest{
		FullName: "Store Administrator",
		Username: username,
		Password: password,
		Role:     auth.RoleAdmin,
	})
	if errors.Is(err, user.ErrUsernameTaken) {
		slog.Info("admin account already exists", slog.String("username", username))
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("created admin account", slog.String("id", u.ID))
	return nil
}

type catalogSeeder struct {
	categories *category.Service
	products   *product.Service
}

func (s *catalogSeeder) seed(ctx context.Context, catalogFile string) error {
	existing, err := s.categories.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list categories")
	}
	if len(existing) > 0 {
		slog.Info("catalog already seeded", slog.Int("categories", len(existing)))
		return nil
	}

	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	for _, c := range catalog.Categories {
		if err := s.category(ctx, c, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *catalogSeeder) category(ctx context.Context, c categoryJSON, parentID *string) error {
	created, err := s.categories.Create(ctx, category.Request{Name: c.Name, ParentID: parentID})
	if err != nil {
		return errors.Wrapf(err, "create category %s", c.Name)
	}
	slog.Info("created category", slog.String("id", created.ID), slog.String("name", c.Name))

	for _, p := range c.Products {
		if err := s.product(ctx, p, created.ID); err != nil {
			return err
		}
	}
	for _, child := range c.Children {
		if err := s.category(ctx, child, &created.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *catalogSeeder) product(ctx context.Context, p productJSON, categoryID string) error {
	created, err := s.products.CreateProduct(ctx, product.Request{
		CategoryID:   &categoryID,
		Name:         p.Name,
		Description:  p.Description,
		ImageURL:     p.ImageURL,
		SupplierName: p.SupplierName,
	})
	if err != nil {
		return errors.Wrapf(err, "create product %s", p.Name)
	}

	for _, v := range p.Variants {
		name := v.Name
		if _, err := s.products.CreateVariant(ctx, created.ID, product.VariantRequest{
			Name:          &name,
			Price:         v.Price,
			StockQuantity: v.Stock,
		}); err != nil {
			return errors.Wrapf(err, "create variant %s/%s", p.Name, v.Name)
		}
	}

	slog.Info("created product",
		slog.String("id", created.ID),
		slog.String("name", p.Name),
		slog.Int("variants", len(p.Variants)),
	)
	return nil
}

func seedCoupons(ctx context.Context, coupons *coupon.Service, now time.Time) error {
	slog.Info("seeding coupons")

	start := now.Truncate(24 * time.Hour)
	end := start.AddDate(1, 0, 0)
	for _, c := range []coupon.Request{
		{Code: "SAVE5", DiscountValue: decimal.NewFromInt(5), StartDate: start, EndDate: end},
		{Code: "SAVE10", DiscountValue: decimal.NewFromInt(10), StartDate: start, EndDate: end},
		{Code: "WELCOME25", DiscountValue: decimal.NewFromInt(25), StartDate: start, EndDate: end},
	} {
		created, err := coupons.Create(ctx, c)
		if errors.Is(err, coupon.ErrCodeExists) {
			slog.Info("coupon already exists", slog.String("code", c.Code))
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "create coupon %s", c.Code)
		}
		slog.Info("created coupon", slog.String("code", created.Code), slog.String("discount", created.DiscountValue.String()))
	}
	return nil
}
