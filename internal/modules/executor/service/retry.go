package service

import (
	"context"
	"time"

	bservice "futures_guard/internal/modules/binance/service"
	"futures_guard/pkg/logger"
)

const (
	retryBaseDelay = 500 * time.Millisecond
)

// withRetry повторяет вызов биржи с нарастающей паузой. Лимит запросов
// ждём дольше обычного сетевого чиха.
func withRetry[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	for i := 0; i < attempts; i++ {
		out, err = fn()
		if err == nil {
			return out, nil
		}
		if i == attempts-1 {
			break
		}

		delay := retryBaseDelay * time.Duration(i+1)
		if bservice.IsRateLimit(err) {
			delay = 3 * time.Second
		}
		logger.Warn("retry %d/%d after error: %v", i+1, attempts, err)

		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-time.After(delay):
		}
	}
	return out, err
}
