package binance

import (
	"futures_guard/internal/modules/binance/service"

	"go.uber.org/fx"
)

// Module поднимает REST-клиент UM-futures.
func Module() fx.Option {
	return fx.Module("binance",
		fx.Provide(
			service.NewClient, // *service.Client
		),
	)
}
