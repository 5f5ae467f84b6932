package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"futures_guard/internal/modules/binance"
	"futures_guard/internal/modules/config"
	"futures_guard/internal/modules/guard"
	"futures_guard/internal/modules/health"
	"futures_guard/internal/modules/markstream"
	"futures_guard/internal/modules/postgres"
	"futures_guard/internal/notify"
	"futures_guard/pkg/logger"
	"futures_guard/pkg/tracing"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			// Notifier: если TELEGRAM_* нет — используем лог
			func(cfg *config.Config) notify.Notifier {
				if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
					if tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID); err == nil {
						return tg
					}
					logger.Warn("telegram init failed, falling back to log notifier")
				}
				return notify.Stdout{}
			},
		),
		config.Module(),
		binance.Module(),
		markstream.Module(),
		postgres.Module(),
		health.Module(),
		guard.Module(),
		fx.Invoke(initTracing),
		fx.Invoke(func(cfg *config.Config) {
			logger.Info("starting with config:\n%s", cfg.Redacted())
		}),
	)
	app.Run()
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Jaeger.Host == "" {
		return nil
	}
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Jaeger.Host,
		Port: cfg.Jaeger.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			closeTracer()
			return nil
		},
	})
	return nil
}
