package models

// Источник защитного ордера: обычный открытый ордер или условный (algo).
type StopSource int

const (
	SourceBaseOrder StopSource = iota + 1
	SourceAlgoOrder
)

func (s StopSource) String() string {
	switch s {
	case SourceBaseOrder:
		return "base_order"
	case SourceAlgoOrder:
		return "algo_order"
	}
	return "unknown"
}

// StopOrder — защитный стоп, найденный на бирже для (symbol, positionSide).
// Идентификатор зависит от источника: OrderID для базовых, AlgoID/ClientAlgoID
// для условных; диспетчеризация по Source происходит при отмене.
type StopOrder struct {
	Source       StopSource
	Symbol       string
	PositionSide string
	OrderType    string // STOP / STOP_MARKET
	StopPrice    float64

	OrderID      int64  // base_order
	AlgoID       string // algo_order
	ClientAlgoID string // algo_order
}

// BaseOrder — сырой открытый ордер из обычного листинга.
type BaseOrder struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	PositionSide  string `json:"positionSide"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	StopPrice     string `json:"stopPrice"`
	ReduceOnly    bool   `json:"reduceOnly"`
	ClosePosition bool   `json:"closePosition"`
}

// AlgoOrder — сырой условный ордер из листинга algo-ордеров.
type AlgoOrder struct {
	Symbol        string `json:"symbol"`
	AlgoID        string `json:"algoId"`
	ClientAlgoID  string `json:"clientAlgoId"`
	PositionSide  string `json:"positionSide"`
	OrderType     string `json:"orderType"`
	TriggerPrice  string `json:"triggerPrice"`
	ReduceOnly    bool   `json:"reduceOnly"`
	ClosePosition bool   `json:"closePosition"`
}
