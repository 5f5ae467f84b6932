package models

// TradeAction — структурное намерение от внешнего решателя.
type TradeAction string

const (
	ActionOpenLong         TradeAction = "open_long"
	ActionOpenShort        TradeAction = "open_short"
	ActionCloseLong        TradeAction = "close_long"
	ActionCloseShort       TradeAction = "close_short"
	ActionReverse          TradeAction = "reverse"
	ActionIncreasePosition TradeAction = "increase_position"
	ActionDecreasePosition TradeAction = "decrease_position"
	ActionUpdateStopLoss   TradeAction = "update_stop_loss"
	ActionUpdateTakeProfit TradeAction = "update_take_profit"
)

// TradeIntent — один приказ исполнителю. Quantity задаёт контракты напрямую,
// PositionSize — сумму в USDT (пересчитывается по марк-цене).
type TradeIntent struct {
	Symbol       string
	Action       TradeAction
	StopLoss     float64 // 0 = не задан
	TakeProfit   float64 // 0 = не задан
	Quantity     float64
	PositionSize float64
}

// TradeRecord — запись об исполненном приказе для истории.
type TradeRecord struct {
	Symbol   string  `json:"symbol"`
	Action   string  `json:"action"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Status   string  `json:"status"`
	OrderID  int64   `json:"order_id"`
	Ts       int64   `json:"ts"`
}
