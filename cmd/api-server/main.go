// Command api-server serves the storefront HTTP API.
package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	storefront "github.com/xenking/storefront/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := storefront.LoadConfig()
		if err != nil {
			return errors.Wrap(err, "storefront config")
		}
		lg.Info("Config loaded",
			zap.String("addr", cfg.Addr),
			zap.Int("rate_limit", cfg.RateLimit.Max),
			zap.Duration("rate_window", cfg.RateLimit.Window),
			zap.Duration("token_ttl", cfg.Auth.TokenTTL),
		)
		return storefront.Run(ctx, lg, m, cfg)
	})
}
