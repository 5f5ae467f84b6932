package postgres

import (
	"context"

	"go.uber.org/fx"

	"futures_guard/internal/modules/config"
	"futures_guard/pkg/db"
)

// Module отдаёт менеджер транзакций. Пустой DSN — валидный режим:
// журнал действий тогда живёт только в памяти и файле.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(newTxManager),
	)
}

func newTxManager(lc fx.Lifecycle, cfg *config.Config, ctx context.Context) (db.TxManager, error) {
	if cfg.DB == "" {
		return nil, nil
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			pool.Close()
			return nil
		},
	})
	return db.NewPgTxManager(pool), nil
}
