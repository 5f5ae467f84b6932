package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"futures_guard/internal/helper"
	"futures_guard/internal/models"

	"github.com/shopspring/decimal"
)

// AutoAdvance — один проход машины состояний по всем позициям снапшота.
// Состояния нигде не хранятся, они выводятся из текущих данных на каждом
// тике: no-position / throttled / below-activation / needs-initial-stop /
// needs-advance / no-change / hard-breach.
func (g *Guard) AutoAdvance(ctx context.Context, snap *models.Snapshot) []string {
	var msgs []string
	now := g.now()

	for _, p := range snap.Positions {
		if !g.allowed(p.Symbol) {
			continue
		}
		msgs = append(msgs, g.advanceOne(ctx, p, now)...)
	}
	return msgs
}

func (g *Guard) advanceOne(ctx context.Context, p models.Position, now time.Time) []string {
	side := p.PositionSide
	if side != models.SideLong && side != models.SideShort {
		return nil
	}
	if p.Entry <= 0 || p.Mark <= 0 {
		// битые данные по одной позиции не валят цикл
		if g.cfg.Verbose {
			return []string{fmt.Sprintf("skipped: %s %s has no usable entry/mark price", p.Symbol, side)}
		}
		return nil
	}

	breakeven := p.Entry
	filters := g.symbolFilters(ctx, p.Symbol)
	tick := filters.TickSize.InexactFloat64()
	buffer := tick * float64(max(0, g.cfg.BufferTicks))

	var profitPct float64
	if side == models.SideLong {
		profitPct = (p.Mark - p.Entry) / p.Entry * 100.0
	} else {
		profitPct = (p.Entry - p.Mark) / p.Entry * 100.0
	}

	mode := strings.ToLower(strings.TrimSpace(g.cfg.Mode))
	lockProfit := mode == "lock_profit" || mode == "lock-profit"

	if !lockProfit {
		// до безубытка стоп не двигаем — свежепоставленный стоп у самой
		// марк-цены сработал бы от обычного шума
		if side == models.SideLong && breakeven > p.Mark-buffer {
			if g.cfg.Verbose {
				return []string{fmt.Sprintf("skipped: %s LONG below breakeven (mark %.6f < breakeven %.6f)", p.Symbol, p.Mark, breakeven)}
			}
			return nil
		}
		if side == models.SideShort && breakeven < p.Mark+buffer {
			if g.cfg.Verbose {
				return []string{fmt.Sprintf("skipped: %s SHORT below breakeven (mark %.6f > breakeven %.6f)", p.Symbol, p.Mark, breakeven)}
			}
			return nil
		}
	}

	key := p.Key()
	if last, ok := g.lastSLUpdate[key]; ok && now.Sub(last) < g.cfg.MinUpdateInterval {
		if g.cfg.Verbose {
			return []string{fmt.Sprintf("skipped: %s %s throttled (last update %.0fs ago)", p.Symbol, side, now.Sub(last).Seconds())}
		}
		return nil
	}

	if lockProfit {
		return g.advanceLockProfit(ctx, p, now, breakeven, tick, buffer, profitPct)
	}
	return g.advanceBreakeven(ctx, p, now, breakeven, tick, buffer)
}

// advanceBreakeven — пошаговая политика: стоп подтягивается к безубытку
// шагом max(entry*stepPct/100, tick). Только в защитную сторону.
func (g *Guard) advanceBreakeven(ctx context.Context, p models.Position, now time.Time, breakeven, tick, buffer float64) []string {
	orders, currentSL, hasSL := g.stopState(ctx, p.Symbol, p.PositionSide)

	step := math.Max(breakeven*g.cfg.StepPct/100.0, tick)

	var newSL float64
	if !hasSL || currentSL <= 0 {
		// первого стопа нет — ставим сразу за безубыток
		if p.PositionSide == models.SideLong {
			newSL = breakeven + step
		} else {
			newSL = breakeven - step
		}
	} else {
		if p.PositionSide == models.SideLong {
			if currentSL >= breakeven {
				return nil // уже у безубытка или лучше — не трогаем
			}
			newSL = math.Min(currentSL+step, breakeven)
		} else {
			if currentSL <= breakeven {
				return nil
			}
			newSL = math.Max(currentSL-step, breakeven)
		}
	}

	newSL = g.clampNoTrigger(ctx, p.Symbol, p.PositionSide, newSL, p.Mark, buffer)

	if hasSL && currentSL > 0 {
		if math.Abs(newSL-currentSL) < tick {
			return nil
		}
		// стоп лонга не опускаем, стоп шорта не поднимаем
		if p.PositionSide == models.SideLong && newSL < currentSL {
			return nil
		}
		if p.PositionSide == models.SideShort && newSL > currentSL {
			return nil
		}
	}

	return g.commitStop(ctx, p, now, orders, currentSL, newSL, breakeven)
}

// advanceLockProfit — политика fixed-max-loss: перешагнули порог убытка —
// немедленное рыночное закрытие (отложенный стоп может не успеть или
// оказаться снятым); иначе после порога активации стоп тянется за ценой.
func (g *Guard) advanceLockProfit(ctx context.Context, p models.Position, now time.Time, breakeven, tick, buffer, profitPct float64) []string {
	lossPct := -profitPct
	if g.cfg.MaxLossPct > 0 && lossPct > g.cfg.MaxLossPct {
		return g.hardClose(ctx, p, now, lossPct)
	}

	if profitPct < g.cfg.ActivateProfitPct {
		if g.cfg.Verbose {
			return []string{fmt.Sprintf("skipped: %s %s profit %.2f%% < activation %.2f%%", p.Symbol, p.PositionSide, profitPct, g.cfg.ActivateProfitPct)}
		}
		return nil
	}

	orders, currentSL, hasSL := g.stopState(ctx, p.Symbol, p.PositionSide)

	var target float64
	if p.PositionSide == models.SideLong {
		target = breakeven * (1.0 - g.cfg.MaxLossPct/100.0)
		trail := p.Mark * (1.0 - g.cfg.TrailPct/100.0)
		target = math.Max(target, math.Max(breakeven, trail))
		if hasSL && currentSL > 0 {
			target = math.Max(target, currentSL)
		}
	} else {
		target = breakeven * (1.0 + g.cfg.MaxLossPct/100.0)
		trail := p.Mark * (1.0 + g.cfg.TrailPct/100.0)
		target = math.Min(target, math.Min(breakeven, trail))
		if hasSL && currentSL > 0 {
			target = math.Min(target, currentSL)
		}
	}

	newSL := g.clampNoTrigger(ctx, p.Symbol, p.PositionSide, target, p.Mark, buffer)

	if hasSL && currentSL > 0 {
		var improvement float64
		if p.PositionSide == models.SideLong {
			improvement = newSL - currentSL
		} else {
			improvement = currentSL - newSL
		}
		if improvement < 0 {
			return nil // только в защитную сторону
		}
		// замена оправдана, когда цель защитнее больше чем на тик, либо
		// когда стопов несколько и их пора схлопнуть в один
		if improvement <= tick && len(orders) <= 1 {
			return nil
		}
	}

	return g.commitStop(ctx, p, now, orders, currentSL, newSL, breakeven)
}

// clampNoTrigger держит стоп строго за буфером от марк-цены и прижимает
// к тику в защитную сторону.
func (g *Guard) clampNoTrigger(ctx context.Context, symbol, positionSide string, price, mark, buffer float64) float64 {
	tickD := g.TickSize(ctx, symbol)
	if positionSide == models.SideShort {
		if m := mark + buffer; price < m {
			price = m
		}
		d := ceilToTick(decimal.NewFromFloat(price), tickD)
		if d.InexactFloat64() <= mark+buffer {
			d = d.Add(tickD)
		}
		return d.InexactFloat64()
	}

	if m := mark - buffer; price > m {
		price = m
	}
	d := floorToTick(decimal.NewFromFloat(price), tickD)
	if d.InexactFloat64() >= mark-buffer {
		d = d.Sub(tickD)
	}
	return d.InexactFloat64()
}

// commitStop выполняет замену: снять все старые стопы (как получится),
// выждать, поставить новый STOP_MARKET на всю позицию по марк-цене.
// Штамп троттла двигается при любом исходе, включая ошибку и dry-run, —
// иначе неудачный ключ долбил бы биржу каждый цикл.
func (g *Guard) commitStop(ctx context.Context, p models.Position, now time.Time, orders []models.StopOrder, currentSL, newSL, breakeven float64) []string {
	key := p.Key()

	if g.cfg.DryRun {
		g.lastSLUpdate[key] = now
		return []string{fmt.Sprintf("simulated: %s %s stop %.6f -> %.6f (breakeven %.6f)",
			p.Symbol, p.PositionSide, currentSL, newSL, breakeven)}
	}

	canceled := g.cancelStopOrders(ctx, p.Symbol, orders)
	if g.cfg.SettleDelay > 0 {
		g.sleep(g.cfg.SettleDelay)
	}

	stopStr := g.FormatStopPrice(ctx, p.Symbol, p.PositionSide, newSL)
	orderID, err := g.gw.PlaceStopClose(ctx, p.Symbol, p.PositionSide, "STOP_MARKET", stopStr)
	g.lastSLUpdate[key] = now
	if err != nil {
		return []string{fmt.Sprintf("failed: %s %s stop update: %v", p.Symbol, p.PositionSide, err)}
	}

	return []string{fmt.Sprintf("updated: %s %s stop %.6f -> %s (breakeven %.6f); canceled %d old; order %d",
		p.Symbol, p.PositionSide, currentSL, stopStr, breakeven, canceled, orderID)}
}

// hardClose — убыток пробил порог: reduce-only маркет на весь остаток,
// минуя стоп-ордера.
func (g *Guard) hardClose(ctx context.Context, p models.Position, now time.Time, lossPct float64) []string {
	key := p.Key()
	qtyStr := g.FormatQty(ctx, p.Symbol, p.Qty)

	if g.cfg.DryRun {
		g.lastSLUpdate[key] = now
		return []string{fmt.Sprintf("simulated: %s %s loss %.2f%% > %.2f%% — market close qty %s",
			p.Symbol, p.PositionSide, lossPct, g.cfg.MaxLossPct, qtyStr)}
	}

	orderID, err := g.gw.PlaceMarket(ctx, p.Symbol, helper.CloseSide(p.PositionSide), p.PositionSide, qtyStr, true)
	g.lastSLUpdate[key] = now
	if err != nil {
		return []string{fmt.Sprintf("failed: %s %s hard close: %v", p.Symbol, p.PositionSide, err)}
	}

	return []string{fmt.Sprintf("updated: %s %s loss %.2f%% > %.2f%% — closed at market, qty %s, order %d",
		p.Symbol, p.PositionSide, lossPct, g.cfg.MaxLossPct, qtyStr, orderID)}
}

// cancelStopOrders снимает стопы по одному, диспетчеризуя по источнику.
// Отдельные отказы не фатальны: новый стоп важнее зависшей отмены.
func (g *Guard) cancelStopOrders(ctx context.Context, symbol string, orders []models.StopOrder) int {
	canceled := 0
	for _, o := range orders {
		switch o.Source {
		case models.SourceBaseOrder:
			if o.OrderID == 0 {
				continue
			}
			if err := g.gw.CancelOrder(ctx, symbol, o.OrderID); err == nil {
				canceled++
			}
		case models.SourceAlgoOrder:
			if o.AlgoID == "" && o.ClientAlgoID == "" {
				continue
			}
			if err := g.gw.CancelAlgoOrder(ctx, symbol, o.AlgoID, o.ClientAlgoID); err == nil {
				canceled++
			}
		}
	}
	return canceled
}
