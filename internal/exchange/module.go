package exchange

import (
	"breakout_bot/internal/config"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("exchange",
		fx.Provide(
			func(cfg *config.Config) *Client {
				return NewClient(Config{
					BaseURL:    cfg.BaseURL,
					APIKey:     cfg.APIKey,
					APISecret:  cfg.APISecret,
					Passphrase: cfg.APIPassphrase,
				})
			},
		),
	)
}
