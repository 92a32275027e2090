package main

import (
	"log"

	"breakout_bot/internal/api"
	"breakout_bot/internal/config"
	"breakout_bot/internal/exchange"
	"breakout_bot/internal/modules/health"
	"breakout_bot/internal/notify"
	"breakout_bot/internal/runner"
	"breakout_bot/internal/storage"
	"breakout_bot/pkg/logger"
	"breakout_bot/pkg/tracing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

const serviceName = "breakout-bot"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.SetServiceName(serviceName)
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	tracing.SetServiceName(serviceName)
	_, closeTracer, err := tracing.InitTracer(tracing.Config{Host: cfg.JaegerHost, Port: cfg.JaegerPort})
	if err != nil {
		logger.Fatal("[BOOT] tracer: %v", err)
	}
	defer closeTracer()

	logger.Info("[BOOT] %s %s tf=%s dry_run=%v store=%s breach=%s",
		cfg.Exchange, cfg.Symbols, cfg.Timeframe, cfg.DryRun, cfg.Store(), cfg.BreachPolicy)

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.InfoLogger}
		}),
		fx.Supply(cfg),
		health.Module(),
		storage.Module(),
		exchange.Module(),
		notify.Module(),
		runner.Module(),
		api.Module(),
	)
	app.Run()
}
