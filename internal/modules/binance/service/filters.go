package service

import (
	"context"
	"fmt"
	"net/url"

	"futures_guard/internal/helper"
	"futures_guard/internal/models"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

// SymbolFilters тянет торговые фильтры контракта из exchangeInfo.
func (c *Client) SymbolFilters(ctx context.Context, symbol string) (models.SymbolFilters, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	data, err := c.publicCall(ctx, "/fapi/v1/exchangeInfo", params)
	if err != nil {
		return models.SymbolFilters{}, fmt.Errorf("SymbolFilters: %w", err)
	}

	var r exchangeInfoResponse
	if err := sonic.Unmarshal(data, &r); err != nil {
		return models.SymbolFilters{}, fmt.Errorf("SymbolFilters decode: %w", err)
	}

	for _, s := range r.Symbols {
		if s.Symbol != symbol {
			continue
		}
		out := models.DefaultFilters(symbol)
		for _, f := range s.Filters {
			switch f.FilterType {
			case "PRICE_FILTER":
				if d, err := decimal.NewFromString(f.TickSize); err == nil && d.IsPositive() {
					out.TickSize = d
				}
			case "LOT_SIZE":
				if d, err := decimal.NewFromString(f.StepSize); err == nil && d.IsPositive() {
					out.StepSize = d
				}
				if d, err := decimal.NewFromString(f.MinQty); err == nil {
					out.MinQty = d
				}
			case "MIN_NOTIONAL":
				out.MinNotional = helper.ParseF(f.Notional, 0)
			}
		}
		return out, nil
	}

	return models.SymbolFilters{}, fmt.Errorf("SymbolFilters: symbol %s not found", symbol)
}
