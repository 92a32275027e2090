package storage

import (
	"context"

	"breakout_bot/internal/config"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config) (Store, error) {
				st, err := Open(context.Background(), cfg)
				if err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						return st.Close()
					},
				})
				return st, nil
			},
		),
	)
}
