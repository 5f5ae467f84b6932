package service

import (
	"context"

	"futures_guard/internal/models"
)

// Gateway — всё, что цикл наблюдения хочет от биржи. Реализуется
// REST-клиентом binance; в тестах подменяется фейком.
type Gateway interface {
	Account(ctx context.Context) (models.AccountState, error)
	MarkPrices(ctx context.Context, symbols []string) (map[string]float64, error)
	OpenOrders(ctx context.Context, symbol string) ([]models.BaseOrder, error)
	OpenAlgoOrders(ctx context.Context, symbol string) ([]models.AlgoOrder, error)
	SymbolFilters(ctx context.Context, symbol string) (models.SymbolFilters, error)

	PlaceStopClose(ctx context.Context, symbol, positionSide, orderType, stopPrice string) (int64, error)
	PlaceMarket(ctx context.Context, symbol, side, positionSide, quantity string, reduceOnly bool) (int64, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	CancelAlgoOrder(ctx context.Context, symbol, algoID, clientAlgoID string) error
}

// MarkSource — опциональный поставщик свежих марк-цен (websocket-кеш).
type MarkSource interface {
	Mark(symbol string) (float64, bool)
}
