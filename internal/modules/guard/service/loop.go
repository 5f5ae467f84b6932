package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"

	bservice "futures_guard/internal/modules/binance/service"
	"futures_guard/internal/modules/config"
	healthsvc "futures_guard/internal/modules/health/service"
	"futures_guard/internal/notify"
	"futures_guard/pkg/logger"
)

const (
	rateLimitBackoffMin = 3 * time.Second
	rateLimitBackoffMax = 30 * time.Second
	rateLimitNoticeGap  = 5 * time.Second
)

// Loop — основной цикл монитора: снапшот, обогащение стопами, прогон
// машины состояний, журнал, отчёт на консоль.
type Loop struct {
	cfg      config.Monitor
	guard    *Guard
	history  *History
	health   *healthsvc.State
	notifier notify.Notifier

	backoff    time.Duration
	lastNotice time.Time

	now   func() time.Time
	sleep func(time.Duration)
	print func(string)
}

func NewLoop(cfg config.Monitor, g *Guard, h *History, health *healthsvc.State, n notify.Notifier) *Loop {
	return &Loop{
		cfg:      cfg,
		guard:    g,
		history:  h,
		health:   health,
		notifier: n,
		now:      time.Now,
		sleep:    time.Sleep,
		print:    func(s string) { fmt.Print(s) },
	}
}

// Run крутит циклы до отмены контекста.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	l.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cycle(ctx)
		}
	}
}

func (l *Loop) cycle(ctx context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "guard.cycle")
	defer span.Finish()

	snap, err := l.guard.BuildSnapshot(ctx)
	if err != nil {
		l.onCycleError(ctx, err)
		return
	}
	l.backoff = 0

	l.guard.EnrichSnapshot(ctx, snap)

	var msgs []string
	if l.cfg.AutoSL {
		msgs = l.guard.AutoAdvance(ctx, snap)
	}
	if len(msgs) > 0 {
		l.history.AddAll(ctx, msgs)
		l.notifyFailures(ctx, msgs)
	}

	if l.health != nil {
		l.health.Touch()
	}

	l.print(Render(snap, l.history.Recent(l.cfg.HistoryLines), l.now()))
}

// onCycleError: лимит запросов биржи гасим растущей паузой, остальное
// просто логируем и ждём следующего тика.
func (l *Loop) onCycleError(ctx context.Context, err error) {
	if !bservice.IsRateLimit(err) {
		logger.Error("guard: cycle: %v", err)
		return
	}

	if l.backoff == 0 {
		l.backoff = rateLimitBackoffMin
	} else {
		l.backoff *= 2
		if l.backoff > rateLimitBackoffMax {
			l.backoff = rateLimitBackoffMax
		}
	}

	logger.Warn("guard: rate limited, backing off %s: %v", l.backoff, err)
	if now := l.now(); now.Sub(l.lastNotice) > rateLimitNoticeGap {
		l.lastNotice = now
		l.notifier.Notify(ctx, fmt.Sprintf("rate limited, pausing %s", l.backoff))
	}
	l.sleep(l.backoff)
}

// notifyFailures дублирует в телеграм только то, что требует внимания:
// отказ биржи и аварийные закрытия.
func (l *Loop) notifyFailures(ctx context.Context, msgs []string) {
	for _, m := range msgs {
		if strings.HasPrefix(m, "failed:") || strings.Contains(m, "closed at market") {
			l.notifier.Notify(ctx, m)
		}
	}
}
