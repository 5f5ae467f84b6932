package service

import (
	"context"
	"testing"

	"futures_guard/internal/models"

	"github.com/pkg/errors"
)

func TestCollectStopOrdersFilters(t *testing.T) {
	base := []models.BaseOrder{
		{Symbol: "BTCUSDT", OrderID: 1, PositionSide: "LONG", Type: "STOP_MARKET", StopPrice: "99.5", ReduceOnly: true},
		{Symbol: "BTCUSDT", OrderID: 2, PositionSide: "LONG", Type: "LIMIT", StopPrice: "99.0"},                          // не стоп
		{Symbol: "BTCUSDT", OrderID: 3, PositionSide: "SHORT", Type: "STOP_MARKET", StopPrice: "99.0", ReduceOnly: true}, // чужая сторона
		{Symbol: "ETHUSDT", OrderID: 4, PositionSide: "LONG", Type: "STOP_MARKET", StopPrice: "99.0", ReduceOnly: true},  // чужой символ
		{Symbol: "BTCUSDT", OrderID: 5, PositionSide: "LONG", Type: "STOP_MARKET", StopPrice: "99.0"},                    // не закрывающий
		{Symbol: "BTCUSDT", OrderID: 6, PositionSide: "LONG", Type: "STOP_MARKET", StopPrice: "0", ClosePosition: true},  // нулевой триггер
	}
	algo := []models.AlgoOrder{
		{Symbol: "BTCUSDT", AlgoID: "a1", PositionSide: "LONG", OrderType: "STOP", TriggerPrice: "99.6", ClosePosition: true},
		{Symbol: "BTCUSDT", AlgoID: "a2", PositionSide: "LONG", OrderType: "TAKE_PROFIT_MARKET", TriggerPrice: "105", ReduceOnly: true},
	}

	got := collectStopOrders("BTCUSDT", models.SideLong, base, algo)
	if len(got) != 2 {
		t.Fatalf("expected 2 stops, got %d: %+v", len(got), got)
	}
	if got[0].Source != models.SourceBaseOrder || got[0].OrderID != 1 {
		t.Errorf("first stop: expected base order 1, got %+v", got[0])
	}
	if got[1].Source != models.SourceAlgoOrder || got[1].AlgoID != "a1" {
		t.Errorf("second stop: expected algo order a1, got %+v", got[1])
	}
}

func TestPickCurrentSL(t *testing.T) {
	orders := []models.StopOrder{
		{StopPrice: 99.5},
		{StopPrice: 99.8},
		{StopPrice: 99.2},
	}

	if got, ok := pickCurrentSL(models.SideLong, orders); !ok || got != 99.8 {
		t.Errorf("long: expected most protective 99.8, got %v ok=%v", got, ok)
	}
	if got, ok := pickCurrentSL(models.SideShort, orders); !ok || got != 99.2 {
		t.Errorf("short: expected most protective 99.2, got %v ok=%v", got, ok)
	}
	if _, ok := pickCurrentSL(models.SideLong, nil); ok {
		t.Error("empty candidates must report no stop")
	}
	if _, ok := pickCurrentSL(models.SideBoth, orders); ok {
		t.Error("BOTH side has no stop-loss semantics")
	}
}

func TestStopStateToleratesFailedListing(t *testing.T) {
	gw := &fakeGateway{
		filters: tickFilters("BTCUSDT", "0.01", "0.001"),
		baseErr: errors.New("listing down"),
		algoOrders: []models.AlgoOrder{
			{Symbol: "BTCUSDT", AlgoID: "a1", PositionSide: "LONG", OrderType: "STOP_MARKET", TriggerPrice: "99.5", ClosePosition: true},
		},
	}
	g := newTestGuard(testMonitorCfg(), gw)

	orders, current, ok := g.stopState(context.Background(), "BTCUSDT", models.SideLong)
	if len(orders) != 1 || !ok || current != 99.5 {
		t.Fatalf("expected algo stop to survive base listing failure, got orders=%d current=%v ok=%v", len(orders), current, ok)
	}
}

func TestEnrichSnapshotUsesCache(t *testing.T) {
	gw := &fakeGateway{
		filters: tickFilters("BTCUSDT", "0.01", "0.001"),
		baseOrders: []models.BaseOrder{
			baseStop("BTCUSDT", 7, "99.5"),
		},
	}
	g := newTestGuard(testMonitorCfg(), gw)

	snap := snapWith(longPosition("BTCUSDT", 100, 101))
	g.EnrichSnapshot(context.Background(), snap)

	if snap.Positions[0].SLPrice != 99.5 || snap.Positions[0].SLCount != 1 {
		t.Fatalf("expected enriched stop 99.5/1, got %v/%d", snap.Positions[0].SLPrice, snap.Positions[0].SLCount)
	}

	// в окне обновления биржа не опрашивается, значение из кеша
	gw.baseOrders = nil
	snap2 := snapWith(longPosition("BTCUSDT", 100, 101))
	g.EnrichSnapshot(context.Background(), snap2)

	if snap2.Positions[0].SLPrice != 99.5 {
		t.Errorf("expected cached stop 99.5, got %v", snap2.Positions[0].SLPrice)
	}
}
