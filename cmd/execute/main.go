package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"go.uber.org/fx"

	"futures_guard/internal/models"
	"futures_guard/internal/modules/binance"
	"futures_guard/internal/modules/config"
	"futures_guard/internal/modules/executor"
	executorsvc "futures_guard/internal/modules/executor/service"
	"futures_guard/pkg/logger"
)

// Одноразовый исполнитель приказа: собрать intent из флагов, выполнить,
// выйти с кодом результата.
func main() {
	symbol := flag.String("symbol", "", "contract symbol, e.g. BTCUSDT")
	action := flag.String("action", "", "open_long|open_short|close_long|close_short|reverse|increase_position|decrease_position|update_stop_loss|update_take_profit")
	qty := flag.Float64("qty", 0, "quantity in contracts")
	size := flag.Float64("size", 0, "position size in USDT (alternative to -qty)")
	stopLoss := flag.Float64("sl", 0, "stop-loss price")
	takeProfit := flag.Float64("tp", 0, "take-profit price")
	flag.Parse()

	if *symbol == "" || *action == "" {
		flag.Usage()
		log.Fatal("both -symbol and -action are required")
	}

	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	intent := models.TradeIntent{
		Symbol:       strings.ToUpper(*symbol),
		Action:       models.TradeAction(*action),
		Quantity:     *qty,
		PositionSize: *size,
		StopLoss:     *stopLoss,
		TakeProfit:   *takeProfit,
	}

	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		binance.Module(),
		executor.Module(),
		fx.Invoke(func(sd fx.Shutdowner, exec *executorsvc.Executor, ctx context.Context) {
			rec, err := exec.Execute(ctx, intent)
			if err != nil {
				logger.Error("execute %s %s: %v", intent.Symbol, intent.Action, err)
				_ = sd.Shutdown(fx.ExitCode(1))
				return
			}
			logger.Info("executed %s %s: status=%s order=%d qty=%v",
				rec.Symbol, rec.Action, rec.Status, rec.OrderID, rec.Quantity)
			_ = sd.Shutdown()
		}),
	)
	app.Run()
}
