package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"futures_guard/internal/helper"
	"futures_guard/internal/models"

	"github.com/bytedance/sonic"
)

// Account возвращает балансы и сырые позиции аккаунта.
func (c *Client) Account(ctx context.Context) (models.AccountState, error) {
	data, err := c.signedCall(ctx, http.MethodGet, "/fapi/v2/account", nil)
	if err != nil {
		return models.AccountState{}, fmt.Errorf("Account: %w", err)
	}

	var r accountResponse
	if err := sonic.Unmarshal(data, &r); err != nil {
		return models.AccountState{}, fmt.Errorf("Account decode: %w", err)
	}

	state := models.AccountState{
		WalletBalance:    helper.ParseF(r.TotalWalletBalance, 0),
		AvailableBalance: helper.ParseF(r.AvailableBalance, 0),
		TotalUnrealized:  helper.ParseF(r.TotalUnrealizedProfit, 0),
	}

	state.Positions = make([]models.RawPosition, 0, len(r.Positions))
	for _, p := range r.Positions {
		amt := helper.ParseF(p.PositionAmt, 0)
		lev, _ := strconv.Atoi(p.Leverage)
		state.Positions = append(state.Positions, models.RawPosition{
			Symbol:           p.Symbol,
			PositionSide:     p.PositionSide,
			PositionAmt:      amt,
			EntryPrice:       helper.ParseF(p.EntryPrice, 0),
			MarkPrice:        helper.ParseF(p.MarkPrice, 0),
			UnrealizedProfit: helper.ParseF(p.UnrealizedProfit, 0),
			Leverage:         lev,
		})
	}
	return state, nil
}
