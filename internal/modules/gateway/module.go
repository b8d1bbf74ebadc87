package gateway

import (
	"context"

	"go.uber.org/fx"

	"options_bot/internal/modules/config"
	"options_bot/internal/modules/gateway/service"
	"options_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("gateway",
		fx.Provide(
			service.NewClient,
			func(c *service.Client) service.PriceGateway { return c },
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client, cfg *config.Config, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					if err := c.Authenticate(ctx); err != nil {
						// paper-режим работает и без аутентификации,
						// блокируется только LIVE-активация
						logger.Warn("gateway: not authenticated: %v", err)
					}
					go c.StreamTicks(ctx, cfg.Gateway.WatchSymbols)
					return nil
				},
			})
		}),
	)
}
