package health

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/fx"

	"futures_guard/internal/modules/config"
	"futures_guard/internal/modules/health/service"
	"futures_guard/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(service.NewState),
		fx.Invoke(runServer),
	)
}

const staleAfter = 30 * time.Second

func runServer(lc fx.Lifecycle, cfg *config.Config, state *service.State) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !state.Healthy(staleAfter) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: cfg.Health.Addr, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("health: server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
