package engine

import (
	"context"
	"errors"

	"go.uber.org/fx"

	"options_bot/internal/modules/config"
	"options_bot/internal/modules/engine/service"
	gw "options_bot/internal/modules/gateway/service"
	persistence "options_bot/internal/modules/persistence/service"
	strategies "options_bot/internal/modules/strategy/service"
	"options_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			func(cfg *config.Config) (service.Config, error) {
				hours, err := service.NewMarketHours(cfg.MarketOpen, cfg.MarketClose, cfg.MarketTimezone)
				if err != nil {
					return service.Config{}, err
				}
				return service.Config{
					VirtualCapital:  cfg.VirtualCapital,
					CycleInterval:   cfg.CycleInterval,
					IdleInterval:    cfg.IdleInterval,
					ErrorBackoff:    cfg.ErrorBackoff,
					StopJoinTimeout: cfg.StopJoinTimeout,
					Hours:           hours,
				}, nil
			},
			func(
				cfg service.Config,
				manager *strategies.Manager,
				gateway gw.PriceGateway,
				sink persistence.Sink,
				snapshot *persistence.SnapshotStore,
				n notify.Notifier,
			) *service.Engine {
				return service.NewEngine(cfg, manager, gateway, sink, snapshot, n)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, e *service.Engine) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					return e.Start()
				},
				OnStop: func(_ context.Context) error {
					if err := e.Stop(); err != nil && !errors.Is(err, service.ErrNotRunning) {
						return err
					}
					return nil
				},
			})
		}),
	)
}
