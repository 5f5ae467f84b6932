package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"futures_guard/internal/modules/config"

	"github.com/bytedance/sonic"
)

const baseURL = "https://fapi.binance.com"

type Client struct {
	http       *http.Client
	apiKey     string
	apiSecret  string
	recvWindow int
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:       &http.Client{Timeout: 20 * time.Second},
		apiKey:     cfg.Binance.APIKey,
		apiSecret:  cfg.Binance.APISecret,
		recvWindow: cfg.Binance.RecvWindow,
	}
}

// APIError — ошибка уровня API с кодом биржи. Код -1003 (rate limit)
// обрабатывается отдельно во внешнем цикле.
type APIError struct {
	HTTPStatus int
	Code       int64  `json:"code"`
	Msg        string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance api error: http=%d code=%d msg=%s", e.HTTPStatus, e.Code, e.Msg)
}

const rateLimitCode = -1003

func IsRateLimit(err error) bool {
	var apiErr *APIError
	for err != nil {
		if ae, ok := err.(*APIError); ok {
			apiErr = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if apiErr == nil {
		return false
	}
	return apiErr.Code == rateLimitCode || apiErr.HTTPStatus == http.StatusTooManyRequests || apiErr.HTTPStatus == 418
}

func (c *Client) sign(query string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// signedCall подписывает query штампом времени и HMAC-подписью.
func (c *Client) signedCall(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	if c.recvWindow > 0 {
		params.Set("recvWindow", strconv.Itoa(c.recvWindow))
	}
	query := params.Encode()
	query += "&signature=" + c.sign(query)

	return c.call(ctx, method, path, query, true)
}

func (c *Client) publicCall(ctx context.Context, path string, params url.Values) ([]byte, error) {
	query := ""
	if params != nil {
		query = params.Encode()
	}
	return c.call(ctx, http.MethodGet, path, query, false)
}

func (c *Client) call(ctx context.Context, method, path, query string, signed bool) ([]byte, error) {
	u := baseURL + path
	if query != "" {
		u += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s %s: new request: %w", method, path, err)
	}
	if signed {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: do: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		if err := sonic.Unmarshal(data, apiErr); err != nil {
			apiErr.Msg = strings.TrimSpace(string(data))
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, apiErr)
	}
	return data, nil
}
