package service

import (
	"context"

	"futures_guard/internal/models"

	"github.com/shopspring/decimal"
)

// symbolFilters — fetch-once-cache-forever. Недоступный фильтр кешируется
// дефолтом: точность деградирует, повторных запросов не будет.
func (g *Guard) symbolFilters(ctx context.Context, symbol string) models.SymbolFilters {
	g.filtersMu.RLock()
	f, ok := g.filters[symbol]
	g.filtersMu.RUnlock()
	if ok {
		return f
	}

	f, err := g.gw.SymbolFilters(ctx, symbol)
	if err != nil {
		f = models.DefaultFilters(symbol)
	}

	g.filtersMu.Lock()
	g.filters[symbol] = f
	g.filtersMu.Unlock()
	return f
}

// TickSize — цена деления контракта.
func (g *Guard) TickSize(ctx context.Context, symbol string) decimal.Decimal {
	return g.symbolFilters(ctx, symbol).TickSize
}

// NormalizePriceFloor прижимает цену к ближайшему тику снизу.
// Арифметика на decimal: повторная нормализация идемпотентна.
func (g *Guard) NormalizePriceFloor(ctx context.Context, symbol string, price float64) float64 {
	return floorToTick(decimal.NewFromFloat(price), g.TickSize(ctx, symbol)).InexactFloat64()
}

// NormalizePriceCeil — к ближайшему тику сверху.
func (g *Guard) NormalizePriceCeil(ctx context.Context, symbol string, price float64) float64 {
	return ceilToTick(decimal.NewFromFloat(price), g.TickSize(ctx, symbol)).InexactFloat64()
}

// FormatStopPrice — строка цены стопа для биржи: floor для LONG
// (никогда не округляем стоп лонга вверх от намерения), ceil для SHORT.
func (g *Guard) FormatStopPrice(ctx context.Context, symbol, positionSide string, price float64) string {
	tick := g.TickSize(ctx, symbol)
	p := decimal.NewFromFloat(price)
	if positionSide == models.SideShort {
		return ceilToTick(p, tick).String()
	}
	return floorToTick(p, tick).String()
}

// FormatQty прижимает количество к шагу лота снизу и печатает без хвостов.
func (g *Guard) FormatQty(ctx context.Context, symbol string, qty float64) string {
	step := g.symbolFilters(ctx, symbol).StepSize
	return floorToTick(decimal.NewFromFloat(qty), step).String()
}

func floorToTick(p, tick decimal.Decimal) decimal.Decimal {
	if !tick.IsPositive() {
		return p
	}
	return p.Div(tick).Floor().Mul(tick)
}

func ceilToTick(p, tick decimal.Decimal) decimal.Decimal {
	if !tick.IsPositive() {
		return p
	}
	return p.Div(tick).Ceil().Mul(tick)
}
