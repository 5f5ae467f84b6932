package models

import "github.com/shopspring/decimal"

// SymbolFilters — торговые фильтры контракта. Запрашиваются один раз
// на символ и кешируются на весь прогон: биржа меняет их редко.
type SymbolFilters struct {
	Symbol      string
	TickSize    decimal.Decimal // PRICE_FILTER.tickSize
	StepSize    decimal.Decimal // LOT_SIZE.stepSize
	MinQty      decimal.Decimal // LOT_SIZE.minQty
	MinNotional float64         // MIN_NOTIONAL.notional
}

// DefaultTick — запасная цена деления, если фильтр недоступен.
// Точность деградирует, но торговлю не блокируем.
var DefaultTick = decimal.RequireFromString("0.01")

func DefaultFilters(symbol string) SymbolFilters {
	return SymbolFilters{
		Symbol:   symbol,
		TickSize: DefaultTick,
		StepSize: decimal.NewFromInt(1),
		MinQty:   decimal.Zero,
	}
}
