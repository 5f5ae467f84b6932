package service

import (
	"context"
	"time"

	"futures_guard/internal/models"
	"futures_guard/internal/modules/config"

	"github.com/shopspring/decimal"
)

type placedStop struct {
	symbol       string
	positionSide string
	orderType    string
	stopPrice    string
}

type placedMarket struct {
	symbol       string
	side         string
	positionSide string
	quantity     string
	reduceOnly   bool
}

// fakeGateway — скриптуемая биржа: ответы задаются полями, все записи
// копятся для проверок.
type fakeGateway struct {
	account    models.AccountState
	accountErr error

	markPrices map[string]float64

	filters     models.SymbolFilters
	filtersErr  error
	filterCalls int

	baseOrders []models.BaseOrder
	algoOrders []models.AlgoOrder
	baseErr    error
	algoErr    error

	placeStopErr   error
	placeMarketErr error

	placedStops   []placedStop
	placedMarkets []placedMarket
	canceledIDs   []int64
	canceledAlgo  []string
}

func (f *fakeGateway) Account(context.Context) (models.AccountState, error) {
	return f.account, f.accountErr
}

func (f *fakeGateway) MarkPrices(_ context.Context, symbols []string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, s := range symbols {
		if px, ok := f.markPrices[s]; ok {
			out[s] = px
		}
	}
	return out, nil
}

func (f *fakeGateway) OpenOrders(context.Context, string) ([]models.BaseOrder, error) {
	return f.baseOrders, f.baseErr
}

func (f *fakeGateway) OpenAlgoOrders(context.Context, string) ([]models.AlgoOrder, error) {
	return f.algoOrders, f.algoErr
}

func (f *fakeGateway) SymbolFilters(context.Context, string) (models.SymbolFilters, error) {
	f.filterCalls++
	return f.filters, f.filtersErr
}

func (f *fakeGateway) PlaceStopClose(_ context.Context, symbol, positionSide, orderType, stopPrice string) (int64, error) {
	if f.placeStopErr != nil {
		return 0, f.placeStopErr
	}
	f.placedStops = append(f.placedStops, placedStop{symbol, positionSide, orderType, stopPrice})
	return int64(1000 + len(f.placedStops)), nil
}

func (f *fakeGateway) PlaceMarket(_ context.Context, symbol, side, positionSide, quantity string, reduceOnly bool) (int64, error) {
	if f.placeMarketErr != nil {
		return 0, f.placeMarketErr
	}
	f.placedMarkets = append(f.placedMarkets, placedMarket{symbol, side, positionSide, quantity, reduceOnly})
	return int64(2000 + len(f.placedMarkets)), nil
}

func (f *fakeGateway) CancelOrder(_ context.Context, _ string, orderID int64) error {
	f.canceledIDs = append(f.canceledIDs, orderID)
	return nil
}

func (f *fakeGateway) CancelAlgoOrder(_ context.Context, _ string, algoID, clientAlgoID string) error {
	if algoID != "" {
		f.canceledAlgo = append(f.canceledAlgo, algoID)
	} else {
		f.canceledAlgo = append(f.canceledAlgo, clientAlgoID)
	}
	return nil
}

func (f *fakeGateway) writes() int {
	return len(f.placedStops) + len(f.placedMarkets) + len(f.canceledIDs) + len(f.canceledAlgo)
}

func tickFilters(symbol string, tick, step string) models.SymbolFilters {
	return models.SymbolFilters{
		Symbol:   symbol,
		TickSize: decimal.RequireFromString(tick),
		StepSize: decimal.RequireFromString(step),
		MinQty:   decimal.RequireFromString(step),
	}
}

func testMonitorCfg() config.Monitor {
	return config.Monitor{
		Interval:          time.Second,
		AutoSL:            true,
		Mode:              "breakeven",
		StepPct:           0.05,
		TrailPct:          0.5,
		ActivateProfitPct: 0.5,
		MaxLossPct:        0.5,
		MinUpdateInterval: 5 * time.Second,
		BufferTicks:       2,
		StopRefresh:       5 * time.Second,
		SettleDelay:       time.Second,
		HistoryKeep:       200,
		HistoryLines:      30,
	}
}

func newTestGuard(cfg config.Monitor, gw Gateway) *Guard {
	g := NewGuard(cfg, gw, nil)
	g.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	g.sleep = func(time.Duration) {}
	return g
}

func longPosition(symbol string, entry, mark float64) models.Position {
	return models.Position{
		Symbol:       symbol,
		PositionSide: models.SideLong,
		Qty:          1,
		Entry:        entry,
		Mark:         mark,
		Notional:     mark,
	}
}

func shortPosition(symbol string, entry, mark float64) models.Position {
	p := longPosition(symbol, entry, mark)
	p.PositionSide = models.SideShort
	return p
}
