package markstream

import (
	"context"

	"futures_guard/internal/modules/config"
	"futures_guard/internal/modules/markstream/service"

	"go.uber.org/fx"
)

// Module поднимает стример марк-цен. При mark_stream=false кеш
// остаётся пустым и снапшот живёт на REST.
func Module() fx.Option {
	return fx.Module("markstream",
		fx.Provide(
			service.NewCache, // *service.Cache
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, cache *service.Cache, ctx context.Context) {
			if !cfg.Monitor.MarkStream {
				return
			}
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go cache.Run(ctx)
					return nil
				},
			})
		}),
	)
}
