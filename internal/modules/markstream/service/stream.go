package service

import (
	"context"
	"sync"
	"time"

	"futures_guard/internal/helper"
	"futures_guard/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const (
	streamURL = "wss://fstream.binance.com/ws/!markPrice@arr@1s"

	// марк-цена старше этого окна считается протухшей — снапшот
	// уходит на REST-фолбэк
	maxAge = 15 * time.Second

	redialDelay = 5 * time.Second
)

type markEntry struct {
	price float64
	at    time.Time
}

// Cache — свежие марк-цены со стрима. Читается циклом наблюдения,
// пишется только воркером стрима.
type Cache struct {
	dialer *websocket.Dialer

	mu    sync.RWMutex
	marks map[string]markEntry
}

func NewCache() *Cache {
	return &Cache{
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		marks:  make(map[string]markEntry),
	}
}

// Mark возвращает марк-цену, если она есть и не протухла.
func (c *Cache) Mark(symbol string) (float64, bool) {
	c.mu.RLock()
	e, ok := c.marks[symbol]
	c.mu.RUnlock()
	if !ok || e.price <= 0 || time.Since(e.at) > maxAge {
		return 0, false
	}
	return e.price, true
}

// Run держит подключение к стриму, с переподключением после обрыва.
func (c *Cache) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.readLoop(ctx); err != nil {
			logger.Warn("markstream: %v, reconnect in %s", err, redialDelay)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(redialDelay):
		}
	}
}

func (c *Cache) readLoop(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("markstream: connected")

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(2 * maxAge))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var batch []struct {
			Symbol    string `json:"s"`
			MarkPrice string `json:"p"`
		}
		if err := sonic.Unmarshal(data, &batch); err != nil {
			continue // мусорный кадр не роняет стрим
		}

		now := time.Now()
		c.mu.Lock()
		for _, m := range batch {
			if px := helper.ParseF(m.MarkPrice, 0); px > 0 {
				c.marks[m.Symbol] = markEntry{price: px, at: now}
			}
		}
		c.mu.Unlock()
	}
}
