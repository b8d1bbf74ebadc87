package strategy

import (
	"go.uber.org/fx"

	"options_bot/internal/models"
	"options_bot/internal/modules/config"
	"options_bot/internal/modules/strategy/service"
	"options_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			service.NewManager, // *service.Manager
		),
		fx.Invoke(func(m *service.Manager, cfg *config.Config) error {
			if err := service.RegisterBuiltins(m); err != nil {
				return err
			}

			presets, err := config.LoadPresets(cfg.PresetsFile)
			if err != nil {
				return err
			}
			for _, p := range presets {
				err := m.CreateInstance(
					p.Name,
					p.Class,
					p.Parameters,
					models.TradingMode(p.Mode),
					p.CapitalAllocation,
					p.RiskLimits,
				)
				if err != nil {
					// кривой пресет не должен ронять весь процесс
					logger.Error("strategy: preset %s: %v", p.Name, err)
					continue
				}
				if p.Activate {
					if err := m.Activate(p.Name); err != nil {
						logger.Error("strategy: activate preset %s: %v", p.Name, err)
					}
				}
			}
			return nil
		}),
	)
}
