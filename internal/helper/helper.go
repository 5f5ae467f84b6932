package helper

import (
	"strconv"
	"strings"

	"futures_guard/internal/models"
)

// ParseF — безопасный парс float из строковых полей биржи.
func ParseF(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// PositionSideOf нормализует positionSide; в one-way режиме биржа его
// не проставляет — выводим из знака количества.
func PositionSideOf(raw string, qty float64) string {
	switch strings.ToUpper(raw) {
	case models.SideLong, models.SideShort, models.SideBoth:
		return strings.ToUpper(raw)
	}
	if qty > 0 {
		return models.SideLong
	}
	return models.SideShort
}

// CloseSide — сторона закрывающего ордера для позиции.
func CloseSide(positionSide string) string {
	if positionSide == models.SideShort {
		return "BUY"
	}
	return "SELL"
}

// FormatFloat печатает число без экспоненты и хвостовых нулей —
// биржа не принимает "1e-05" в параметрах ордера.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}
