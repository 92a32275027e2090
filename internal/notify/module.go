package notify

import (
	"context"

	"breakout_bot/internal/config"
	"breakout_bot/pkg/logger"

	"go.uber.org/fx"
)

const queueSize = 128

type Result struct {
	fx.Out

	Notifier Notifier
	Telegram *Telegram // nil, если Telegram не настроен
}

// New: если TELEGRAM_* нет, используем stdout. Снаружи всегда Async.
func New(lc fx.Lifecycle, cfg *config.Config) Result {
	var (
		sink Notifier = NewStdout()
		tg   *Telegram
	)
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		t, err := NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Warn("[NOTIFY] telegram init failed, fallback to stdout: %v", err)
		} else {
			tg = t
			sink = t
		}
	}

	async := NewAsync(sink, queueSize)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if tg != nil {
				// ctx хука живёт только на время старта
				return tg.Start(context.Background())
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if tg != nil {
				tg.Stop()
			}
			async.Close()
			return nil
		},
	})

	return Result{Notifier: async, Telegram: tg}
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(New),
	)
}
