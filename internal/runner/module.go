package runner

import (
	"context"

	"breakout_bot/internal/config"
	"breakout_bot/internal/exchange"
	"breakout_bot/internal/modules/health/service"
	"breakout_bot/internal/notify"
	"breakout_bot/internal/storage"

	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Config   *config.Config
	Client   *exchange.Client
	Store    storage.Store
	Notifier notify.Notifier
	Telegram *notify.Telegram `optional:"true"`
	Events   Publisher        `optional:"true"`
	State    *service.State
}

func NewFromParams(p Params) (*Runner, error) {
	r, err := New(context.Background(), Deps{
		Config:   p.Config,
		MD:       p.Client,
		Store:    p.Store,
		Notifier: p.Notifier,
		Events:   p.Events,
		State:    p.State,
	})
	if err != nil {
		return nil, err
	}
	if p.Telegram != nil {
		p.Telegram.SetStatusProvider(r)
	}
	return r, nil
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewFromParams, // *Runner
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Runner) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					// ctx хука живёт только на время старта
					return r.Start(context.Background())
				},
				OnStop: func(ctx context.Context) error {
					return r.Stop(ctx)
				},
			})
		}),
	)
}
