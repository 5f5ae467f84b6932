package guard

import (
	"context"

	"go.uber.org/fx"

	binancesvc "futures_guard/internal/modules/binance/service"
	"futures_guard/internal/modules/config"
	"futures_guard/internal/modules/guard/service"
	healthsvc "futures_guard/internal/modules/health/service"
	marksvc "futures_guard/internal/modules/markstream/service"
	"futures_guard/internal/notify"
	"futures_guard/pkg/db"
)

// Module собирает монитор: guard поверх REST-клиента, журнал действий
// и основной цикл.
func Module() fx.Option {
	return fx.Module("guard",
		fx.Provide(
			newGuard,   // *service.Guard
			newHistory, // *service.History
			newLoop,    // *service.Loop
		),
		fx.Invoke(run),
	)
}

func newGuard(cfg *config.Config, client *binancesvc.Client, marks *marksvc.Cache) *service.Guard {
	var src service.MarkSource
	if cfg.Monitor.MarkStream {
		src = marks
	}
	return service.NewGuard(cfg.Monitor, client, src)
}

func newHistory(cfg *config.Config, txm db.TxManager) *service.History {
	return service.NewHistory(cfg.Monitor.HistoryKeep, cfg.Monitor.HistoryFile, txm)
}

func newLoop(cfg *config.Config, g *service.Guard, h *service.History, state *healthsvc.State, n notify.Notifier) *service.Loop {
	return service.NewLoop(cfg.Monitor, g, h, state, n)
}

func run(lc fx.Lifecycle, loop *service.Loop, state *healthsvc.State, ctx context.Context) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go loop.Run(ctx)
			state.SetReady()
			return nil
		},
	})
}
