package models

// RawPosition — позиция как её отдаёт аккаунт-эндпоинт, до фильтрации
// и нормализации. Знак PositionAmt несёт направление в one-way режиме.
type RawPosition struct {
	Symbol           string
	PositionSide     string
	PositionAmt      float64
	EntryPrice       float64
	MarkPrice        float64 // 0, если эндпоинт не отдал
	UnrealizedProfit float64
	Leverage         int
}

// AccountState — сырое состояние аккаунта.
type AccountState struct {
	WalletBalance    float64
	AvailableBalance float64
	TotalUnrealized  float64
	Positions        []RawPosition
}
