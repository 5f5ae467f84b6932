package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"futures_guard/internal/models"
	"futures_guard/pkg/logger"
)

// protClass — класс защитного ордера: стоп-лосс или тейк-профит.
type protClass struct {
	placeType string
	types     map[string]struct{}
}

var (
	stopLossClass = protClass{
		placeType: "STOP_MARKET",
		types:     map[string]struct{}{"STOP": {}, "STOP_MARKET": {}},
	}
	takeProfitClass = protClass{
		placeType: "TAKE_PROFIT_MARKET",
		types:     map[string]struct{}{"TAKE_PROFIT": {}, "TAKE_PROFIT_MARKET": {}},
	}
)

// updateProtection находит открытую сторону по символу и переставляет
// защитный ордер класса на новую цену.
func (e *Executor) updateProtection(ctx context.Context, symbol string, price float64, class protClass, rec *models.TradeRecord) error {
	if price <= 0 {
		return errors.New("protection price is not set")
	}

	for _, side := range []string{models.SideLong, models.SideShort} {
		pos, err := e.findPosition(ctx, symbol, side)
		if err != nil {
			return err
		}
		if pos == nil {
			continue
		}

		e.cancelClass(ctx, symbol, side, class)
		e.sleep(e.settle)

		if err := e.placeProtection(ctx, symbol, side, class, price); err != nil {
			return err
		}
		rec.Side = side
		rec.Price = price
		return nil
	}
	return errors.Errorf("%s: no open position to protect", symbol)
}

func (e *Executor) placeProtection(ctx context.Context, symbol, positionSide string, class protClass, price float64) error {
	filters, err := e.gw.SymbolFilters(ctx, symbol)
	if err != nil {
		filters = models.DefaultFilters(symbol)
	}

	// цена прижимается к тику в защитную сторону: лонгу вниз, шорту вверх
	d := decimal.NewFromFloat(price).Div(filters.TickSize)
	if positionSide == models.SideShort {
		d = d.Ceil()
	} else {
		d = d.Floor()
	}
	stopStr := d.Mul(filters.TickSize).String()

	_, err = withRetry(ctx, 3, func() (int64, error) {
		return e.gw.PlaceStopClose(ctx, symbol, positionSide, class.placeType, stopStr)
	})
	return errors.Wrapf(err, "place %s", class.placeType)
}

// cancelProtection снимает все защитные ордера стороны перед полным
// закрытием позиции.
func (e *Executor) cancelProtection(ctx context.Context, symbol, positionSide string) {
	e.cancelClass(ctx, symbol, positionSide, stopLossClass)
	e.cancelClass(ctx, symbol, positionSide, takeProfitClass)
}

func (e *Executor) cancelClass(ctx context.Context, symbol, positionSide string, class protClass) {
	base, err := e.gw.OpenOrders(ctx, symbol)
	if err != nil {
		logger.Warn("executor: %s open orders: %v", symbol, err)
	}
	for _, o := range base {
		if _, ok := class.types[o.Type]; !ok {
			continue
		}
		if o.PositionSide != "" && o.PositionSide != models.SideBoth && o.PositionSide != positionSide {
			continue
		}
		if err := e.gw.CancelOrder(ctx, symbol, o.OrderID); err != nil {
			logger.Warn("executor: cancel order %d: %v", o.OrderID, err)
		}
	}

	algo, err := e.gw.OpenAlgoOrders(ctx, symbol)
	if err != nil {
		logger.Warn("executor: %s open algo orders: %v", symbol, err)
	}
	for _, o := range algo {
		if _, ok := class.types[o.OrderType]; !ok {
			continue
		}
		if err := e.gw.CancelAlgoOrder(ctx, symbol, o.AlgoID, o.ClientAlgoID); err != nil {
			logger.Warn("executor: cancel algo order %s: %v", o.AlgoID, err)
		}
	}
}
