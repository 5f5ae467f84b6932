package service

import (
	"context"
	"fmt"
	"net/url"

	"futures_guard/internal/helper"

	"github.com/bytedance/sonic"
)

// MarkPrice — марк-цена одного контракта.
func (c *Client) MarkPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	data, err := c.publicCall(ctx, "/fapi/v1/premiumIndex", params)
	if err != nil {
		return 0, fmt.Errorf("MarkPrice: %w", err)
	}

	var r premiumIndexEntry
	if err := sonic.Unmarshal(data, &r); err != nil {
		return 0, fmt.Errorf("MarkPrice decode: %w", err)
	}
	mp := helper.ParseF(r.MarkPrice, 0)
	if mp <= 0 {
		return 0, fmt.Errorf("MarkPrice: bad markPrice %q for %s", r.MarkPrice, symbol)
	}
	return mp, nil
}

// MarkPrices — батч под символы без марк-цены в аккаунте: один запрос
// по всем контрактам, дальше отбор нужных.
func (c *Client) MarkPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	data, err := c.publicCall(ctx, "/fapi/v1/premiumIndex", nil)
	if err != nil {
		return nil, fmt.Errorf("MarkPrices: %w", err)
	}

	var all []premiumIndexEntry
	if err := sonic.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("MarkPrices decode: %w", err)
	}

	want := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		want[s] = struct{}{}
	}

	out := make(map[string]float64, len(symbols))
	for _, e := range all {
		if _, ok := want[e.Symbol]; !ok {
			continue
		}
		if mp := helper.ParseF(e.MarkPrice, 0); mp > 0 {
			out[e.Symbol] = mp
		}
	}
	return out, nil
}
