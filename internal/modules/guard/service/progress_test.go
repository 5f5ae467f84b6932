package service

import (
	"context"
	"strings"
	"testing"

	"futures_guard/internal/models"
)

func snapWith(positions ...models.Position) *models.Snapshot {
	return &models.Snapshot{Positions: positions}
}

func baseStop(symbol string, orderID int64, stopPrice string) models.BaseOrder {
	return models.BaseOrder{
		Symbol:       symbol,
		OrderID:      orderID,
		PositionSide: models.SideLong,
		Type:         "STOP_MARKET",
		Status:       "NEW",
		StopPrice:    stopPrice,
		ReduceOnly:   true,
	}
}

func TestInitialStopPlacement(t *testing.T) {
	gw := &fakeGateway{filters: tickFilters("BTCUSDT", "0.01", "0.001")}
	g := newTestGuard(testMonitorCfg(), gw)

	g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 101)))

	if len(gw.placedStops) != 1 {
		t.Fatalf("expected 1 stop placement, got %d", len(gw.placedStops))
	}
	got := gw.placedStops[0]
	if got.stopPrice != "100.05" {
		t.Errorf("stop price: expected 100.05, got %s", got.stopPrice)
	}
	if got.orderType != "STOP_MARKET" {
		t.Errorf("order type: expected STOP_MARKET, got %s", got.orderType)
	}
	if got.positionSide != models.SideLong {
		t.Errorf("position side: expected LONG, got %s", got.positionSide)
	}
}

func TestAdvanceTowardBreakeven(t *testing.T) {
	gw := &fakeGateway{
		filters:    tickFilters("BTCUSDT", "0.01", "0.001"),
		baseOrders: []models.BaseOrder{baseStop("BTCUSDT", 7, "99.90")},
	}
	g := newTestGuard(testMonitorCfg(), gw)

	g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 101)))

	if len(gw.canceledIDs) != 1 || gw.canceledIDs[0] != 7 {
		t.Fatalf("expected cancel of order 7, got %v", gw.canceledIDs)
	}
	if len(gw.placedStops) != 1 {
		t.Fatalf("expected 1 stop placement, got %d", len(gw.placedStops))
	}
	if got := gw.placedStops[0].stopPrice; got != "99.95" {
		t.Errorf("stop price: expected 99.95, got %s", got)
	}
}

func TestNoChangeAtBreakeven(t *testing.T) {
	gw := &fakeGateway{
		filters:    tickFilters("BTCUSDT", "0.01", "0.001"),
		baseOrders: []models.BaseOrder{baseStop("BTCUSDT", 7, "100.00")},
	}
	g := newTestGuard(testMonitorCfg(), gw)

	g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 101)))

	if n := gw.writes(); n != 0 {
		t.Fatalf("expected no writes for stop already at breakeven, got %d", n)
	}
}

func TestBelowBreakevenSkips(t *testing.T) {
	gw := &fakeGateway{filters: tickFilters("BTCUSDT", "0.01", "0.001")}
	g := newTestGuard(testMonitorCfg(), gw)

	g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 100.01)))

	if n := gw.writes(); n != 0 {
		t.Fatalf("expected no writes below breakeven, got %d", n)
	}
}

func TestStopStaysUnderMarkBuffer(t *testing.T) {
	gw := &fakeGateway{filters: tickFilters("BTCUSDT", "0.01", "0.001")}
	g := newTestGuard(testMonitorCfg(), gw)

	// буфер подпирает раньше шага: стоп обязан остаться строго ниже
	// mark - buffer
	g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 100.07)))

	if len(gw.placedStops) != 1 {
		t.Fatalf("expected 1 stop placement, got %d", len(gw.placedStops))
	}
	if got := gw.placedStops[0].stopPrice; got != "100.04" {
		t.Errorf("stop price: expected 100.04, got %s", got)
	}
}

func TestThrottleSuppressesWrites(t *testing.T) {
	gw := &fakeGateway{filters: tickFilters("BTCUSDT", "0.01", "0.001")}
	g := newTestGuard(testMonitorCfg(), gw)

	pos := longPosition("BTCUSDT", 100, 101)
	g.lastSLUpdate[pos.Key()] = g.now()

	g.AutoAdvance(context.Background(), snapWith(pos))

	if n := gw.writes(); n != 0 {
		t.Fatalf("expected no writes while throttled, got %d", n)
	}
}

func TestAllowlistFiltersSymbols(t *testing.T) {
	cfg := testMonitorCfg()
	cfg.Symbols = []string{"ETHUSDT"}
	gw := &fakeGateway{filters: tickFilters("BTCUSDT", "0.01", "0.001")}
	g := newTestGuard(cfg, gw)

	g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 101)))

	if n := gw.writes(); n != 0 {
		t.Fatalf("expected ignored symbol to produce no writes, got %d", n)
	}
}

func TestLockProfitHardBreach(t *testing.T) {
	cfg := testMonitorCfg()
	cfg.Mode = "lock_profit"
	gw := &fakeGateway{filters: tickFilters("BTCUSDT", "0.01", "0.001")}
	g := newTestGuard(cfg, gw)

	msgs := g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 99.4)))

	if len(gw.placedStops) != 0 {
		t.Fatalf("expected no stop placement on hard breach, got %d", len(gw.placedStops))
	}
	if len(gw.placedMarkets) != 1 {
		t.Fatalf("expected 1 market close, got %d", len(gw.placedMarkets))
	}
	got := gw.placedMarkets[0]
	if got.side != "SELL" || !got.reduceOnly {
		t.Errorf("expected reduce-only SELL, got side=%s reduceOnly=%v", got.side, got.reduceOnly)
	}
	if got.quantity != "1" {
		t.Errorf("quantity: expected 1, got %s", got.quantity)
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0], "closed at market") {
		t.Errorf("unexpected messages: %v", msgs)
	}
}

func TestLockProfitBelowActivation(t *testing.T) {
	cfg := testMonitorCfg()
	cfg.Mode = "lock_profit"
	gw := &fakeGateway{filters: tickFilters("BTCUSDT", "0.01", "0.001")}
	g := newTestGuard(cfg, gw)

	// +0.2% прибыли при пороге 0.5%
	g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 100.2)))

	if n := gw.writes(); n != 0 {
		t.Fatalf("expected no writes below activation, got %d", n)
	}
}

func TestLockProfitTrailingAdvance(t *testing.T) {
	cfg := testMonitorCfg()
	cfg.Mode = "lock_profit"
	gw := &fakeGateway{
		filters:    tickFilters("BTCUSDT", "0.01", "0.001"),
		baseOrders: []models.BaseOrder{baseStop("BTCUSDT", 7, "100.10")},
	}
	g := newTestGuard(cfg, gw)

	g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 101)))

	if len(gw.placedStops) != 1 {
		t.Fatalf("expected 1 stop placement, got %d", len(gw.placedStops))
	}
	if got := gw.placedStops[0].stopPrice; got != "100.49" {
		t.Errorf("stop price: expected 100.49, got %s", got)
	}
	if len(gw.canceledIDs) != 1 {
		t.Errorf("expected old stop canceled, got %v", gw.canceledIDs)
	}
}

func TestLockProfitSkipsWithinTick(t *testing.T) {
	cfg := testMonitorCfg()
	cfg.Mode = "lock_profit"
	gw := &fakeGateway{
		filters:    tickFilters("BTCUSDT", "0.01", "0.001"),
		baseOrders: []models.BaseOrder{baseStop("BTCUSDT", 7, "100.49")},
	}
	g := newTestGuard(cfg, gw)

	g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 101)))

	if n := gw.writes(); n != 0 {
		t.Fatalf("expected no writes when stop already at target, got %d", n)
	}
}

func TestLockProfitNeverRetreats(t *testing.T) {
	cfg := testMonitorCfg()
	cfg.Mode = "lock_profit"
	gw := &fakeGateway{
		filters:    tickFilters("BTCUSDT", "0.01", "0.001"),
		baseOrders: []models.BaseOrder{baseStop("BTCUSDT", 7, "100.80")},
	}
	g := newTestGuard(cfg, gw)

	// цена откатилась, трейл считает ниже действующего стопа
	g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 101)))

	if n := gw.writes(); n != 0 {
		t.Fatalf("expected no writes when target below current stop, got %d", n)
	}
}

func TestDuplicateStopsConsolidated(t *testing.T) {
	cfg := testMonitorCfg()
	cfg.Mode = "lock_profit"
	gw := &fakeGateway{
		filters: tickFilters("BTCUSDT", "0.01", "0.001"),
		baseOrders: []models.BaseOrder{
			baseStop("BTCUSDT", 7, "100.49"),
			baseStop("BTCUSDT", 8, "100.40"),
		},
	}
	g := newTestGuard(cfg, gw)

	g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 101)))

	if len(gw.canceledIDs) != 2 {
		t.Fatalf("expected both duplicates canceled, got %v", gw.canceledIDs)
	}
	if len(gw.placedStops) != 1 {
		t.Fatalf("expected single consolidated stop, got %d", len(gw.placedStops))
	}
	if got := gw.placedStops[0].stopPrice; got != "100.49" {
		t.Errorf("stop price: expected 100.49, got %s", got)
	}
}

func TestShortSideStop(t *testing.T) {
	cfg := testMonitorCfg()
	cfg.Mode = "lock_profit"
	gw := &fakeGateway{filters: tickFilters("ETHUSDT", "0.01", "0.001")}
	g := newTestGuard(cfg, gw)

	g.AutoAdvance(context.Background(), snapWith(shortPosition("ETHUSDT", 100, 99)))

	if len(gw.placedStops) != 1 {
		t.Fatalf("expected 1 stop placement, got %d", len(gw.placedStops))
	}
	got := gw.placedStops[0]
	if got.positionSide != models.SideShort {
		t.Errorf("position side: expected SHORT, got %s", got.positionSide)
	}
	if got.stopPrice != "99.5" {
		t.Errorf("stop price: expected 99.5, got %s", got.stopPrice)
	}
}

func TestDryRunComputesButSkipsWrites(t *testing.T) {
	cfg := testMonitorCfg()
	cfg.Mode = "lock_profit"
	cfg.DryRun = true
	gw := &fakeGateway{
		filters:    tickFilters("BTCUSDT", "0.01", "0.001"),
		baseOrders: []models.BaseOrder{baseStop("BTCUSDT", 7, "100.10")},
	}
	g := newTestGuard(cfg, gw)

	msgs := g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 101)))

	if n := gw.writes(); n != 0 {
		t.Fatalf("expected no writes in dry-run, got %d", n)
	}
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "simulated:") {
		t.Fatalf("unexpected messages: %v", msgs)
	}
	if !strings.Contains(msgs[0], "100.49") {
		t.Errorf("dry-run message should carry the computed target: %s", msgs[0])
	}

	// штамп троттла двигается и в dry-run
	msgs = g.AutoAdvance(context.Background(), snapWith(longPosition("BTCUSDT", 100, 101)))
	if len(msgs) != 0 {
		t.Errorf("expected throttled second pass, got %v", msgs)
	}
}

func TestPlaceFailureStampsThrottle(t *testing.T) {
	gw := &fakeGateway{
		filters:      tickFilters("BTCUSDT", "0.01", "0.001"),
		placeStopErr: context.DeadlineExceeded,
	}
	g := newTestGuard(testMonitorCfg(), gw)

	pos := longPosition("BTCUSDT", 100, 101)
	msgs := g.AutoAdvance(context.Background(), snapWith(pos))

	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "failed:") {
		t.Fatalf("unexpected messages: %v", msgs)
	}
	if _, ok := g.lastSLUpdate[pos.Key()]; !ok {
		t.Fatal("failed attempt must still stamp the throttle")
	}
}
