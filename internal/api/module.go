package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"breakout_bot/internal/config"
	"breakout_bot/internal/modules/health/service"
	"breakout_bot/internal/notify"
	"breakout_bot/internal/runner"
	"breakout_bot/internal/storage"
	"breakout_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func newServer(cfg *config.Config, r *runner.Runner, st storage.Store, state *service.State, n notify.Notifier, hub *Hub) *Server {
	return NewServer(r, st, state, n, hub, cfg.AdminToken)
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, s *Server, hub *Hub) {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.HTTPAddr)
			if err != nil {
				return err
			}
			logger.Info("[HTTP] listening on %s", cfg.HTTPAddr)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("[HTTP] serve: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Close()
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("api",
		fx.Provide(
			NewHub,
			func(h *Hub) runner.Publisher { return h },
			newServer,
		),
		fx.Invoke(RunHTTP),
	)
}
