package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"futures_guard/internal/models"

	"github.com/bytedance/sonic"
)

// OpenOrders — обычные открытые ордера по символу.
func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]models.BaseOrder, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	data, err := c.signedCall(ctx, http.MethodGet, "/fapi/v1/openOrders", params)
	if err != nil {
		return nil, fmt.Errorf("OpenOrders: %w", err)
	}

	var orders []models.BaseOrder
	if err := sonic.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("OpenOrders decode: %w", err)
	}
	return orders, nil
}

// OpenAlgoOrders — условные (algo) ордера. Отдельный листинг,
// живёт независимо от обычного стакана открытых ордеров.
func (c *Client) OpenAlgoOrders(ctx context.Context, symbol string) ([]models.AlgoOrder, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	data, err := c.signedCall(ctx, http.MethodGet, "/sapi/v1/algo/futures/openOrders", params)
	if err != nil {
		return nil, fmt.Errorf("OpenAlgoOrders: %w", err)
	}

	var r struct {
		Orders []models.AlgoOrder `json:"orders"`
	}
	if err := sonic.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("OpenAlgoOrders decode: %w", err)
	}
	return r.Orders, nil
}
