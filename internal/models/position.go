package models

// PositionSide — направление позиции у биржи. BOTH встречается в one-way режиме.
const (
	SideLong  = "LONG"
	SideShort = "SHORT"
	SideBoth  = "BOTH"
)

type PosKey struct {
	Symbol       string
	PositionSide string
}

// Position — снимок одной открытой позиции на момент опроса.
// Пересобирается на каждом цикле, после сборки не мутирует.
type Position struct {
	Symbol        string
	PositionSide  string  // LONG/SHORT/BOTH
	Qty           float64 // абсолютный размер, > 0
	Entry         float64
	Mark          float64
	Notional      float64 // qty * mark
	UnrealizedPnl float64
	PnlPct        float64
	Leverage      int

	// заполняется обогащением из стоп-ордеров
	SLPrice float64 // 0 = стопа нет
	SLCount int
}

func (p Position) Key() PosKey {
	return PosKey{Symbol: p.Symbol, PositionSide: p.PositionSide}
}

// Snapshot — точка во времени: балансы аккаунта + позиции,
// отсортированные по убыванию |notional|.
type Snapshot struct {
	WalletBalance    float64
	AvailableBalance float64
	TotalUnrealized  float64
	Positions        []Position
}
