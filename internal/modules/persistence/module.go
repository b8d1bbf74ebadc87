package persistence

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"options_bot/internal/modules/config"
	"options_bot/internal/modules/persistence/service"
	"options_bot/pkg/db"
	"options_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("persistence",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (service.Sink, error) {
				if cfg.DB == "" {
					// без базы работаем в лог — ledger всё равно в памяти
					logger.Warn("persistence: no DATABASE_DSN, using log sink")
					return service.NewLogSink(), nil
				}

				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}
				if err = poolMaster.Ping(ctx); err != nil {
					return nil, err
				}

				return service.NewPgSink(db.NewPgTxManager(poolMaster)), nil
			},
			func(cfg *config.Config) *service.SnapshotStore {
				return service.NewSnapshotStore(cfg.SnapshotPath)
			},
		),
	)
}
