package service

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"futures_guard/internal/helper"
	"futures_guard/internal/models"
	"futures_guard/pkg/logger"
)

// Exchange — срез биржевого клиента, нужный исполнителю приказов.
type Exchange interface {
	Account(ctx context.Context) (models.AccountState, error)
	MarkPrice(ctx context.Context, symbol string) (float64, error)
	SymbolFilters(ctx context.Context, symbol string) (models.SymbolFilters, error)
	OpenOrders(ctx context.Context, symbol string) ([]models.BaseOrder, error)
	OpenAlgoOrders(ctx context.Context, symbol string) ([]models.AlgoOrder, error)

	PlaceStopClose(ctx context.Context, symbol, positionSide, orderType, stopPrice string) (int64, error)
	PlaceMarket(ctx context.Context, symbol, side, positionSide, quantity string, reduceOnly bool) (int64, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	CancelAlgoOrder(ctx context.Context, symbol, algoID, clientAlgoID string) error
}

// Executor превращает TradeIntent в последовательность биржевых вызовов
// и пишет результат в историю сделок.
type Executor struct {
	gw      Exchange
	records *Records
	settle  time.Duration

	sleep func(time.Duration)
}

func NewExecutor(gw Exchange, records *Records, settle time.Duration) *Executor {
	return &Executor{
		gw:      gw,
		records: records,
		settle:  settle,
		sleep:   time.Sleep,
	}
}

// Execute исполняет один приказ. Возвращённая запись уже сброшена в
// историю (если история настроена).
func (e *Executor) Execute(ctx context.Context, intent models.TradeIntent) (models.TradeRecord, error) {
	rec := models.TradeRecord{
		Symbol: intent.Symbol,
		Action: string(intent.Action),
		Ts:     time.Now().Unix(),
	}

	var err error
	switch intent.Action {
	case models.ActionOpenLong:
		err = e.open(ctx, intent, models.SideLong, &rec)
	case models.ActionOpenShort:
		err = e.open(ctx, intent, models.SideShort, &rec)
	case models.ActionCloseLong:
		err = e.closePosition(ctx, intent.Symbol, models.SideLong, 0, &rec)
	case models.ActionCloseShort:
		err = e.closePosition(ctx, intent.Symbol, models.SideShort, 0, &rec)
	case models.ActionReverse:
		err = e.reverse(ctx, intent, &rec)
	case models.ActionIncreasePosition:
		err = e.resize(ctx, intent, false, &rec)
	case models.ActionDecreasePosition:
		err = e.resize(ctx, intent, true, &rec)
	case models.ActionUpdateStopLoss:
		err = e.updateProtection(ctx, intent.Symbol, intent.StopLoss, stopLossClass, &rec)
	case models.ActionUpdateTakeProfit:
		err = e.updateProtection(ctx, intent.Symbol, intent.TakeProfit, takeProfitClass, &rec)
	default:
		err = errors.Errorf("unknown action %q", intent.Action)
	}

	if err != nil {
		rec.Status = "failed"
	} else if rec.Status == "" {
		rec.Status = "filled"
	}
	e.records.Push(ctx, rec)
	return rec, err
}

func (e *Executor) open(ctx context.Context, intent models.TradeIntent, positionSide string, rec *models.TradeRecord) error {
	mark, err := e.gw.MarkPrice(ctx, intent.Symbol)
	if err != nil {
		return errors.Wrap(err, "mark price")
	}

	qty, err := e.sizeQty(ctx, intent, mark)
	if err != nil {
		return err
	}

	side := "BUY"
	if positionSide == models.SideShort {
		side = "SELL"
	}

	orderID, err := withRetry(ctx, 3, func() (int64, error) {
		return e.gw.PlaceMarket(ctx, intent.Symbol, side, positionSide, qty, false)
	})
	if err != nil {
		return errors.Wrap(err, "place market")
	}

	rec.Side = positionSide
	rec.Price = mark
	rec.Quantity = helper.ParseF(qty, 0)
	rec.OrderID = orderID

	// защитные ордера после входа; их отказ не отменяет уже открытую
	// позицию, только жалуемся
	if intent.StopLoss > 0 {
		if err := e.placeProtection(ctx, intent.Symbol, positionSide, stopLossClass, intent.StopLoss); err != nil {
			logger.Error("executor: %s stop-loss after open: %v", intent.Symbol, err)
		}
	}
	if intent.TakeProfit > 0 {
		if err := e.placeProtection(ctx, intent.Symbol, positionSide, takeProfitClass, intent.TakeProfit); err != nil {
			logger.Error("executor: %s take-profit after open: %v", intent.Symbol, err)
		}
	}
	return nil
}

// closePosition закрывает qty контрактов (0 = всю позицию) reduce-only
// маркетом, предварительно сняв защитные ордера на эту сторону.
func (e *Executor) closePosition(ctx context.Context, symbol, positionSide string, qty float64, rec *models.TradeRecord) error {
	pos, err := e.findPosition(ctx, symbol, positionSide)
	if err != nil {
		return err
	}
	if pos == nil {
		rec.Status = "skipped"
		return nil
	}

	full := qty <= 0 || qty >= math.Abs(pos.PositionAmt)
	if full {
		qty = math.Abs(pos.PositionAmt)
		e.cancelProtection(ctx, symbol, positionSide)
		e.sleep(e.settle)
	}

	qtyStr, err := e.formatQty(ctx, symbol, qty)
	if err != nil {
		return err
	}

	orderID, err := withRetry(ctx, 3, func() (int64, error) {
		return e.gw.PlaceMarket(ctx, symbol, helper.CloseSide(positionSide), positionSide, qtyStr, true)
	})
	if err != nil {
		return errors.Wrap(err, "close position")
	}

	rec.Side = positionSide
	rec.Quantity = qty
	rec.OrderID = orderID
	return nil
}

// reverse: закрыть текущую сторону, затем открыть противоположную тем же
// сайзингом из приказа.
func (e *Executor) reverse(ctx context.Context, intent models.TradeIntent, rec *models.TradeRecord) error {
	var closed bool
	for _, side := range []string{models.SideLong, models.SideShort} {
		pos, err := e.findPosition(ctx, intent.Symbol, side)
		if err != nil {
			return err
		}
		if pos == nil {
			continue
		}
		if err := e.closePosition(ctx, intent.Symbol, side, 0, rec); err != nil {
			return err
		}
		closed = true
		e.sleep(e.settle)

		opposite := models.SideShort
		if side == models.SideShort {
			opposite = models.SideLong
		}
		return e.open(ctx, intent, opposite, rec)
	}
	if !closed {
		return errors.Errorf("reverse %s: no open position", intent.Symbol)
	}
	return nil
}

func (e *Executor) resize(ctx context.Context, intent models.TradeIntent, reduce bool, rec *models.TradeRecord) error {
	for _, side := range []string{models.SideLong, models.SideShort} {
		pos, err := e.findPosition(ctx, intent.Symbol, side)
		if err != nil {
			return err
		}
		if pos == nil {
			continue
		}
		if reduce {
			qty := intent.Quantity
			if qty <= 0 && intent.PositionSize > 0 {
				mark, errM := e.gw.MarkPrice(ctx, intent.Symbol)
				if errM != nil {
					return errors.Wrap(errM, "mark price")
				}
				qty = intent.PositionSize / mark
			}
			return e.closePosition(ctx, intent.Symbol, side, qty, rec)
		}
		return e.open(ctx, intent, side, rec)
	}
	return errors.Errorf("resize %s: no open position", intent.Symbol)
}

// sizeQty: либо контракты напрямую, либо пересчёт суммы USDT по марк-цене.
// Количество прижимается к шагу лота и добивается до минимального
// нотионала, иначе биржа отвергнет ордер.
func (e *Executor) sizeQty(ctx context.Context, intent models.TradeIntent, mark float64) (string, error) {
	qty := intent.Quantity
	if qty <= 0 {
		if intent.PositionSize <= 0 {
			return "", errors.New("intent has neither quantity nor position size")
		}
		qty = intent.PositionSize / mark
	}

	filters, err := e.gw.SymbolFilters(ctx, intent.Symbol)
	if err != nil {
		filters = models.DefaultFilters(intent.Symbol)
	}

	step := filters.StepSize
	d := decimal.NewFromFloat(qty).Div(step).Floor().Mul(step)
	if d.LessThan(filters.MinQty) {
		d = filters.MinQty
	}
	if filters.MinNotional > 0 && mark > 0 {
		for d.InexactFloat64()*mark < filters.MinNotional {
			d = d.Add(step)
		}
	}
	if !d.IsPositive() {
		return "", errors.Errorf("computed quantity %s is not tradable", d.String())
	}
	return d.String(), nil
}

func (e *Executor) formatQty(ctx context.Context, symbol string, qty float64) (string, error) {
	filters, err := e.gw.SymbolFilters(ctx, symbol)
	if err != nil {
		filters = models.DefaultFilters(symbol)
	}
	d := decimal.NewFromFloat(qty).Div(filters.StepSize).Floor().Mul(filters.StepSize)
	if !d.IsPositive() {
		return "", errors.Errorf("quantity %v rounds to zero", qty)
	}
	return d.String(), nil
}

func (e *Executor) findPosition(ctx context.Context, symbol, positionSide string) (*models.RawPosition, error) {
	acc, err := e.gw.Account(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "account")
	}
	for i := range acc.Positions {
		p := acc.Positions[i]
		if p.PositionAmt == 0 || p.Symbol != symbol {
			continue
		}
		if helper.PositionSideOf(p.PositionSide, p.PositionAmt) != positionSide {
			continue
		}
		return &acc.Positions[i], nil
	}
	return nil, nil
}
