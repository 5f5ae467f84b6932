package service

import (
	"context"
	"strings"

	"futures_guard/internal/helper"
	"futures_guard/internal/models"

	"golang.org/x/sync/errgroup"
)

// Типы, которые считаем стоп-лоссами. Тейк-профиты делят кодовые пути,
// но в прогрессии не участвуют.
var slOrderTypes = map[string]struct{}{
	"STOP":        {},
	"STOP_MARKET": {},
}

func isStopLossType(t string) bool {
	_, ok := slOrderTypes[strings.ToUpper(t)]
	return ok
}

// collectStopOrders отбирает защитные стопы для (symbol, side) из двух
// независимых листингов. Только reduce-only/close-position с
// положительным триггером.
func collectStopOrders(symbol, positionSide string, base []models.BaseOrder, algo []models.AlgoOrder) []models.StopOrder {
	var orders []models.StopOrder

	for _, o := range base {
		if o.Symbol != symbol || strings.ToUpper(o.PositionSide) != positionSide {
			continue
		}
		if !isStopLossType(o.Type) {
			continue
		}
		if !o.ReduceOnly && !o.ClosePosition {
			continue
		}
		stopPrice := helper.ParseF(o.StopPrice, 0)
		if stopPrice <= 0 {
			continue
		}
		orders = append(orders, models.StopOrder{
			Source:       models.SourceBaseOrder,
			Symbol:       symbol,
			PositionSide: positionSide,
			OrderType:    strings.ToUpper(o.Type),
			StopPrice:    stopPrice,
			OrderID:      o.OrderID,
		})
	}

	for _, o := range algo {
		if o.Symbol != symbol || strings.ToUpper(o.PositionSide) != positionSide {
			continue
		}
		if !isStopLossType(o.OrderType) {
			continue
		}
		if !o.ReduceOnly && !o.ClosePosition {
			continue
		}
		stopPrice := helper.ParseF(o.TriggerPrice, 0)
		if stopPrice <= 0 {
			continue
		}
		orders = append(orders, models.StopOrder{
			Source:       models.SourceAlgoOrder,
			Symbol:       symbol,
			PositionSide: positionSide,
			OrderType:    strings.ToUpper(o.OrderType),
			StopPrice:    stopPrice,
			AlgoID:       o.AlgoID,
			ClientAlgoID: o.ClientAlgoID,
		})
	}

	return orders
}

// pickCurrentSL выбирает действующий стоп среди кандидатов.
// Для лонга самый высокий стоп — самый защитный, для шорта самый
// низкий; сравнение прогрессии всегда идёт против лучшего из
// существующих, а не против устаревшего слабого.
func pickCurrentSL(positionSide string, orders []models.StopOrder) (float64, bool) {
	var best float64
	found := false
	for _, o := range orders {
		if o.StopPrice <= 0 {
			continue
		}
		if !found {
			best = o.StopPrice
			found = true
			continue
		}
		switch positionSide {
		case models.SideLong:
			if o.StopPrice > best {
				best = o.StopPrice
			}
		case models.SideShort:
			if o.StopPrice < best {
				best = o.StopPrice
			}
		}
	}
	if positionSide != models.SideLong && positionSide != models.SideShort {
		return 0, false
	}
	return best, found
}

// stopState тянет оба листинга; упавший листинг считается пустым —
// временно неполный вид лучше, чем сорванный цикл.
func (g *Guard) stopState(ctx context.Context, symbol, positionSide string) ([]models.StopOrder, float64, bool) {
	base, err := g.gw.OpenOrders(ctx, symbol)
	if err != nil {
		base = nil
	}
	algo, err := g.gw.OpenAlgoOrders(ctx, symbol)
	if err != nil {
		algo = nil
	}
	orders := collectStopOrders(symbol, positionSide, base, algo)
	current, ok := pickCurrentSL(positionSide, orders)
	return orders, current, ok
}

// EnrichSnapshot дополняет позиции действующим стопом. Свежие значения
// кешируются на StopRefresh, чтобы не душить лимиты; просроченные
// ключи опрашиваются параллельно (работа по символам независима).
func (g *Guard) EnrichSnapshot(ctx context.Context, snap *models.Snapshot) {
	now := g.now()

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)

	for i := range snap.Positions {
		p := &snap.Positions[i]
		key := p.Key()

		g.slCacheMu.Lock()
		cached, ok := g.slCache[key]
		g.slCacheMu.Unlock()

		if ok && now.Sub(cached.at) < g.cfg.StopRefresh {
			p.SLPrice = cached.price
			p.SLCount = cached.count
			continue
		}

		eg.Go(func() error {
			orders, current, found := g.stopState(ctx, p.Symbol, p.PositionSide)
			if found {
				p.SLPrice = current
			}
			p.SLCount = len(orders)

			g.slCacheMu.Lock()
			g.slCache[key] = slSnap{price: p.SLPrice, count: p.SLCount, at: now}
			g.slCacheMu.Unlock()
			return nil
		})
	}

	_ = eg.Wait()
}
