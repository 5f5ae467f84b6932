package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"futures_guard/internal/helper"

	"github.com/bytedance/sonic"
)

// PlaceStopClose ставит условный ордер STOP_MARKET / TAKE_PROFIT_MARKET,
// закрывающий всю позицию по триггеру от марк-цены.
func (c *Client) PlaceStopClose(ctx context.Context, symbol, positionSide, orderType, stopPrice string) (int64, error) {
	if stopPrice == "" {
		return 0, fmt.Errorf("PlaceStopClose: empty stopPrice")
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", helper.CloseSide(positionSide))
	params.Set("positionSide", positionSide)
	params.Set("type", orderType)
	params.Set("stopPrice", stopPrice)
	params.Set("closePosition", "true")
	params.Set("workingType", "MARK_PRICE")

	data, err := c.signedCall(ctx, http.MethodPost, "/fapi/v1/order", params)
	if err != nil {
		return 0, fmt.Errorf("PlaceStopClose: %w", err)
	}

	var r createOrderResponse
	if err := sonic.Unmarshal(data, &r); err != nil {
		return 0, fmt.Errorf("PlaceStopClose decode: %w", err)
	}
	if r.OrderID == 0 {
		return 0, fmt.Errorf("PlaceStopClose: empty orderId RAW=%s", string(data))
	}
	return r.OrderID, nil
}

// PlaceMarket — рыночный ордер. reduceOnly гарантирует, что ордер
// только сокращает позицию (страховочное закрытие при hard-breach).
func (c *Client) PlaceMarket(ctx context.Context, symbol, side, positionSide, quantity string, reduceOnly bool) (int64, error) {
	if quantity == "" {
		return 0, fmt.Errorf("PlaceMarket: empty quantity")
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", side)
	params.Set("positionSide", positionSide)
	params.Set("type", "MARKET")
	params.Set("quantity", quantity)
	if reduceOnly {
		params.Set("reduceOnly", "true")
	}

	data, err := c.signedCall(ctx, http.MethodPost, "/fapi/v1/order", params)
	if err != nil {
		return 0, fmt.Errorf("PlaceMarket: %w", err)
	}

	var r createOrderResponse
	if err := sonic.Unmarshal(data, &r); err != nil {
		return 0, fmt.Errorf("PlaceMarket decode: %w", err)
	}
	if r.OrderID == 0 {
		return 0, fmt.Errorf("PlaceMarket: empty orderId RAW=%s", string(data))
	}
	return r.OrderID, nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))

	if _, err := c.signedCall(ctx, http.MethodDelete, "/fapi/v1/order", params); err != nil {
		return fmt.Errorf("CancelOrder: %w", err)
	}
	return nil
}

// CancelAlgoOrder снимает условный ордер. Достаточно одного из
// идентификаторов: algoId либо clientAlgoId.
func (c *Client) CancelAlgoOrder(ctx context.Context, symbol, algoID, clientAlgoID string) error {
	if algoID == "" && clientAlgoID == "" {
		return fmt.Errorf("CancelAlgoOrder: algoId or clientAlgoId required")
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	if algoID != "" {
		params.Set("algoId", algoID)
	}
	if clientAlgoID != "" {
		params.Set("clientAlgoId", clientAlgoID)
	}

	if _, err := c.signedCall(ctx, http.MethodDelete, "/sapi/v1/algo/futures/order", params); err != nil {
		return fmt.Errorf("CancelAlgoOrder: %w", err)
	}
	return nil
}
