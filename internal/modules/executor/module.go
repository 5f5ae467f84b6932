package executor

import (
	"context"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"

	binancesvc "futures_guard/internal/modules/binance/service"
	"futures_guard/internal/modules/config"
	"futures_guard/internal/modules/executor/service"
)

// Module собирает исполнителя приказов. Redis опционален: без него
// история сделок просто не пишется.
func Module() fx.Option {
	return fx.Module("executor",
		fx.Provide(
			newRedis,           // *redis.Client
			service.NewRecords, // *service.Records
			newExecutor,        // *service.Executor
		),
	)
}

func newRedis(lc fx.Lifecycle, cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return rdb.Close()
		},
	})
	return rdb
}

func newExecutor(cfg *config.Config, client *binancesvc.Client, records *service.Records) *service.Executor {
	return service.NewExecutor(client, records, cfg.Monitor.SettleDelay)
}
