package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"options_bot/internal/modules/config"
	"options_bot/internal/modules/engine"
	"options_bot/internal/modules/gateway"
	"options_bot/internal/modules/health"
	"options_bot/internal/modules/persistence"
	"options_bot/internal/modules/strategy"
	"options_bot/internal/notify"
	"options_bot/pkg/logger"
	"options_bot/pkg/tracing"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName("options_bot")
	tracing.SetServiceName("options_bot")

	closeTracer := func() {}
	if tracer, closer, err := tracing.InitTracer(tracing.Config{Host: "localhost", Port: 6831}); err != nil {
		logger.Warn("tracing disabled: %v", err)
	} else {
		_ = tracer
		closeTracer = closer
	}
	defer closeTracer()

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		notify.Module(),
		persistence.Module(),
		gateway.Module(),
		strategy.Module(),
		engine.Module(),
		health.Module(),
	)
	app.Run()
}
