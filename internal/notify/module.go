package notify

import (
	"go.uber.org/fx"

	"options_bot/internal/modules/config"
	"options_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func(cfg *config.Config) Notifier {
				if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
					return NewStdout()
				}
				t, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
				if err != nil {
					logger.Error("notify: telegram init failed, falling back to stdout: %v", err)
					return NewStdout()
				}
				return t
			},
		),
	)
}
