package storage

import (
	"context"
	"fmt"

	"breakout_bot/internal/config"
	"breakout_bot/pkg/logger"
)

// Open выбирает реализацию по конфигу.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch drv := cfg.Store(); drv {
	case config.StorePostgres:
		logger.Info("[STORE] postgres")
		return NewPostgres(ctx, cfg.DatabaseDSN)
	case config.StoreMemory:
		logger.Info("[STORE] memory, history is not persisted")
		return NewMemory(), nil
	case config.StoreSQLite:
		logger.Info("[STORE] sqlite %s", cfg.DBPath)
		return NewSQLite(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", drv)
	}
}
