package health

import (
	"breakout_bot/internal/modules/health/service"

	"go.uber.org/fx"
)

// Module отдаёт общий *service.State. HTTP-ручки живут в internal/api.
func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
		),
	)
}
