//go:build integration

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/user"
	"github.com/xenking/storefront/internal/repository"
	"github.com/xenking/storefront/pkg/health"
)

// envelope mirrors the response wrapper; tests stay black-box on the wire.
type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
		assert.Equal(c.t, resp.StatusCode, env.StatusCode, "%s %s", method, path)
	}
	return resp.StatusCode, env
}

func (c *client) data(method, path string, body any, wantStatus int, out any) {
	c.t.Helper()
	status, env := c.do(method, path, body)
	require.Equal(c.t, wantStatus, status, "%s %s: %s", method, path, env.Message)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(env.Data, out))
	}
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID string `json:"id"`
	} `json:"user"`
}

type idOnly struct {
	ID string `json:"id"`
}

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "storefront",
				"POSTGRES_PASSWORD": "storefront",
				"POSTGRES_DB":       "storefront",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pg) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://storefront:storefront@%s:%s/storefront?sslmode=disable", host, port.Port())
}

func TestAPI_Storefront(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &Config{DatabaseURL: startPostgres(t), BcryptCost: bcrypt.MinCost}
	cfg.Auth.Secret = "integration-secret"
	cfg.Auth.Issuer = "storefront"
	cfg.Auth.TokenTTL = time.Hour
	cfg.RateLimit.Max = 1000
	cfg.RateLimit.Window = time.Minute

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, repository.RunMigrations(ctx, pool))

	tp, mp := tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider()
	services, err := newServices(pool, tp, mp, cfg)
	require.NoError(t, err)

	hc := health.New()
	hc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	hc.Start(ctx, time.Second)
	t.Cleanup(hc.Stop)
	hc.SetReady(true)

	srv := httptest.NewServer(newAPI(ctx, zaptest.NewLogger(t), tp, mp, cfg, services, hc))
	t.Cleanup(srv.Close)

	_, err = services.Users.CreateUser(ctx, user.RegisterRequest{
		FullName: "Admin", Username: "admin", Password: "admin-pass", Role: auth.RoleAdmin,
	})
	require.NoError(t, err)

	anon := &client{t: t, base: srv.URL}
	admin := &client{t: t, base: srv.URL}
	shopper := &client{t: t, base: srv.URL}

	t.Run("Health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/livez")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	var s session
	admin.data(http.MethodPost, "/api/auth/login", map[string]any{"username": "admin", "password": "admin-pass"}, http.StatusOK, &s)
	admin.token = s.Token

	shopper.data(http.MethodPost, "/api/auth/register", map[string]any{
		"fullName": "Sam Shopper", "username": "sam", "password": "secret1", "email": "sam@example.com",
	}, http.StatusCreated, &s)
	shopper.token = s.Token
	userID := s.User.ID
	require.NotEmpty(t, userID)

	t.Run("DuplicateRegistration", func(t *testing.T) {
		status, _ := anon.do(http.MethodPost, "/api/auth/register", map[string]any{
			"fullName": "Other", "username": "sam", "password": "secret1",
		})
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("AdminOnly", func(t *testing.T) {
		status, _ := shopper.do(http.MethodPost, "/api/categories", map[string]any{"name": "Nope"})
		assert.Equal(t, http.StatusForbidden, status)
		status, _ = anon.do(http.MethodGet, "/api/cart/user/"+userID, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	var cat, prod, variant idOnly
	admin.data(http.MethodPost, "/api/categories", map[string]any{"name": "Kitchen"}, http.StatusCreated, &cat)
	admin.data(http.MethodPost, "/api/products", map[string]any{
		"categoryId": cat.ID, "name": "Kettle", "supplierName": "Brewline",
	}, http.StatusCreated, &prod)
	admin.data(http.MethodPost, "/api/products/"+prod.ID+"/variants", map[string]any{
		"variantName": "Steel", "price": 40, "stockQuantity": 5,
	}, http.StatusCreated, &variant)

	today := time.Now().UTC().Format(time.DateOnly)
	nextYear := time.Now().UTC().AddDate(1, 0, 0).Format(time.DateOnly)
	admin.data(http.MethodPost, "/api/coupon", map[string]any{
		"code": "save5", "discountValue": "5", "startDate": today, "endDate": nextYear,
	}, http.StatusCreated, nil)

	t.Run("Catalog", func(t *testing.T) {
		var page struct {
			Items      []idOnly `json:"items"`
			TotalCount int      `json:"totalCount"`
		}
		anon.data(http.MethodGet, "/api/products?categoryId="+cat.ID, nil, http.StatusOK, &page)
		require.Len(t, page.Items, 1)
		assert.Equal(t, prod.ID, page.Items[0].ID)
	})

	cartPath := "/api/cart/user/" + userID
	shopper.data(http.MethodPost, cartPath+"/add", map[string]any{"variantId": variant.ID, "quantity": 1}, http.StatusOK, nil)
	shopper.data(http.MethodPost, cartPath+"/add", map[string]any{"variantId": variant.ID, "quantity": 2}, http.StatusOK, nil)

	t.Run("CartMergesLines", func(t *testing.T) {
		var lines []struct {
			Quantity int `json:"quantity"`
		}
		shopper.data(http.MethodGet, cartPath, nil, http.StatusOK, &lines)
		require.Len(t, lines, 1)
		assert.Equal(t, 3, lines[0].Quantity)

		var total struct {
			Total float64 `json:"total"`
		}
		shopper.data(http.MethodGet, cartPath+"/total", nil, http.StatusOK, &total)
		assert.InDelta(t, 120.0, total.Total, 0.001)
	})

	var placed struct {
		ID          string  `json:"id"`
		TotalAmount float64 `json:"totalAmount"`
		Status      string  `json:"status"`
		CouponID    *string `json:"couponId"`
	}
	shopper.data(http.MethodPost, "/api/order/user/"+userID, map[string]any{
		"shippingAddress": "1 Main St", "paymentMethod": "card", "couponCode": "SAVE5",
	}, http.StatusCreated, &placed)

	t.Run("OrderWithCoupon", func(t *testing.T) {
		assert.InDelta(t, 115.0, placed.TotalAmount, 0.001)
		assert.Equal(t, "Pending", placed.Status)
		assert.NotNil(t, placed.CouponID)

		var count struct {
			Count int `json:"count"`
		}
		shopper.data(http.MethodGet, cartPath+"/count", nil, http.StatusOK, &count)
		assert.Zero(t, count.Count)
	})

	t.Run("OrderOwnership", func(t *testing.T) {
		other := &client{t: t, base: srv.URL}
		var oliveSession session
		other.data(http.MethodPost, "/api/auth/register", map[string]any{
			"fullName": "Other", "username": "olive", "password": "secret1",
		}, http.StatusCreated, &oliveSession)
		other.token = oliveSession.Token

		status, _ := other.do(http.MethodGet, "/api/order/"+placed.ID, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("CancelOrder", func(t *testing.T) {
		shopper.data(http.MethodPut, "/api/order/"+placed.ID+"/cancel", nil, http.StatusOK, nil)
		status, _ := shopper.do(http.MethodPut, "/api/order/"+placed.ID+"/cancel", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Reviews", func(t *testing.T) {
		shopper.data(http.MethodPost, "/api/reviews", map[string]any{
			"productId": prod.ID, "rating": 4, "comment": "Boils fast",
		}, http.StatusCreated, nil)

		var rating struct {
			Average float64 `json:"averageRating"`
			Count   int     `json:"reviewCount"`
		}
		anon.data(http.MethodGet, "/api/products/"+prod.ID+"/rating", nil, http.StatusOK, &rating)
		assert.InDelta(t, 4.0, rating.Average, 0.001)
		assert.Equal(t, 1, rating.Count)
	})
}
