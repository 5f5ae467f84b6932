package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"futures_guard/internal/helper"
	"futures_guard/internal/models"
)

// BuildSnapshot собирает точку во времени: балансы + открытые позиции.
// Позиции с нулевым количеством выпадают целиком. Марк-цена берётся
// из аккаунта, затем из стрима, затем батч-запросом; последний фолбэк —
// цена входа (pnl% тогда 0: «неизвестно, считаем флэт», не ошибка).
func (g *Guard) BuildSnapshot(ctx context.Context) (*models.Snapshot, error) {
	acc, err := g.gw.Account(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	raw := make([]models.RawPosition, 0, len(acc.Positions))
	var needMark []string
	for _, p := range acc.Positions {
		if p.PositionAmt == 0 || p.Symbol == "" {
			continue
		}
		if p.MarkPrice <= 0 && g.marks != nil {
			if px, ok := g.marks.Mark(p.Symbol); ok {
				p.MarkPrice = px
			}
		}
		if p.MarkPrice <= 0 {
			needMark = append(needMark, p.Symbol)
		}
		raw = append(raw, p)
	}

	markDict := map[string]float64{}
	if len(needMark) > 0 {
		if md, err := g.gw.MarkPrices(ctx, needMark); err == nil {
			markDict = md
		}
		// ошибка батча не фатальна — останемся на цене входа
	}

	snap := &models.Snapshot{
		WalletBalance:    acc.WalletBalance,
		AvailableBalance: acc.AvailableBalance,
		TotalUnrealized:  acc.TotalUnrealized,
		Positions:        make([]models.Position, 0, len(raw)),
	}

	for _, p := range raw {
		qty := math.Abs(p.PositionAmt)
		mark := p.MarkPrice
		if mark <= 0 {
			if px, ok := markDict[p.Symbol]; ok && px > 0 {
				mark = px
			} else {
				mark = p.EntryPrice
			}
		}

		pnlPct := 0.0
		if denom := qty * p.EntryPrice; denom > 0 {
			pnlPct = p.UnrealizedProfit / denom * 100.0
		}

		snap.Positions = append(snap.Positions, models.Position{
			Symbol:        p.Symbol,
			PositionSide:  helper.PositionSideOf(p.PositionSide, p.PositionAmt),
			Qty:           qty,
			Entry:         p.EntryPrice,
			Mark:          mark,
			Notional:      qty * mark,
			UnrealizedPnl: p.UnrealizedProfit,
			PnlPct:        pnlPct,
			Leverage:      p.Leverage,
		})
	}

	// крупнейшая экспозиция сверху
	sort.Slice(snap.Positions, func(i, j int) bool {
		return math.Abs(snap.Positions[i].Notional) > math.Abs(snap.Positions[j].Notional)
	})

	return snap, nil
}
