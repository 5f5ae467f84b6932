package service

import (
	"context"
	"testing"

	"futures_guard/internal/models"
)

type staticMarks map[string]float64

func (m staticMarks) Mark(symbol string) (float64, bool) {
	px, ok := m[symbol]
	return px, ok
}

func TestBuildSnapshotDropsFlatPositions(t *testing.T) {
	gw := &fakeGateway{
		account: models.AccountState{
			WalletBalance: 1000,
			Positions: []models.RawPosition{
				{Symbol: "BTCUSDT", PositionAmt: 0.5, EntryPrice: 100, MarkPrice: 101, UnrealizedProfit: 0.5},
				{Symbol: "ETHUSDT", PositionAmt: 0, EntryPrice: 10, MarkPrice: 10},
			},
		},
	}
	g := newTestGuard(testMonitorCfg(), gw)

	snap, err := g.BuildSnapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(snap.Positions))
	}
	p := snap.Positions[0]
	if p.Symbol != "BTCUSDT" || p.PositionSide != models.SideLong || p.Qty != 0.5 {
		t.Errorf("unexpected position %+v", p)
	}
	// pnl% от маржи позиции: 0.5 / (0.5*100) * 100
	if p.PnlPct != 1 {
		t.Errorf("pnl pct: expected 1, got %v", p.PnlPct)
	}
}

func TestBuildSnapshotMarkFallbackChain(t *testing.T) {
	gw := &fakeGateway{
		account: models.AccountState{
			Positions: []models.RawPosition{
				{Symbol: "AAAUSDT", PositionAmt: 1, EntryPrice: 10}, // стрим
				{Symbol: "BBBUSDT", PositionAmt: 1, EntryPrice: 20}, // батч
				{Symbol: "CCCUSDT", PositionAmt: 1, EntryPrice: 30}, // цена входа
			},
		},
		markPrices: map[string]float64{"BBBUSDT": 21},
	}
	g := newTestGuard(testMonitorCfg(), gw)
	g.marks = staticMarks{"AAAUSDT": 11}

	snap, err := g.BuildSnapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]float64{"AAAUSDT": 11, "BBBUSDT": 21, "CCCUSDT": 30}
	for _, p := range snap.Positions {
		if p.Mark != want[p.Symbol] {
			t.Errorf("%s mark: expected %v, got %v", p.Symbol, want[p.Symbol], p.Mark)
		}
	}
}

func TestBuildSnapshotSortsByExposure(t *testing.T) {
	gw := &fakeGateway{
		account: models.AccountState{
			Positions: []models.RawPosition{
				{Symbol: "SMALL", PositionAmt: 1, EntryPrice: 10, MarkPrice: 10},
				{Symbol: "BIG", PositionAmt: -2, EntryPrice: 100, MarkPrice: 100},
			},
		},
	}
	g := newTestGuard(testMonitorCfg(), gw)

	snap, err := g.BuildSnapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Positions[0].Symbol != "BIG" {
		t.Errorf("expected largest notional first, got %s", snap.Positions[0].Symbol)
	}
	if snap.Positions[0].PositionSide != models.SideShort {
		t.Errorf("negative amount must read as SHORT, got %s", snap.Positions[0].PositionSide)
	}
}
