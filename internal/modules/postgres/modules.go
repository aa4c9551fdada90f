package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"trade_tracker/internal/config"
	"trade_tracker/pkg/db"
	"trade_tracker/pkg/logger"
)

// NewTxManager подключается к базе, только если аудит пишется в postgres.
// Иначе возвращает nil, и хранилище выбирает файловый вариант.
func NewTxManager(lc fx.Lifecycle, cfg *config.Config) (db.TxManager, error) {
	if cfg.Backtest.Audit.Format != config.AuditPostgres {
		return nil, nil
	}

	ctx := context.Background()
	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN: cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}

	err = poolMaster.Ping(ctx)
	if err != nil {
		poolMaster.Close()
		return nil, err
	}

	m := db.NewPgTxManager(poolMaster)
	lc.Append(fx.StopHook(func() {
		logger.Info("closing postgres pool")
		m.Close()
	}))
	return m, nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			NewTxManager,
		),
	)
}
