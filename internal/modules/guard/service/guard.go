package service

import (
	"sync"
	"time"

	"futures_guard/internal/models"
	"futures_guard/internal/modules/config"
)

// Guard владеет всем изменяемым состоянием цикла: кеш фильтров,
// троттлинг обновлений стопа, кеш снимка стоп-ордеров. Никаких
// глобальных переменных — свежий Guard на процесс (и на тест).
type Guard struct {
	cfg   config.Monitor
	gw    Gateway
	marks MarkSource // nil = без стрима

	now   func() time.Time
	sleep func(time.Duration)

	filtersMu sync.RWMutex
	filters   map[string]models.SymbolFilters

	// пишется только потоком прогрессии
	lastSLUpdate map[models.PosKey]time.Time

	slCacheMu sync.Mutex
	slCache   map[models.PosKey]slSnap

	allow map[string]struct{} // пустая = все символы
}

type slSnap struct {
	price float64
	count int
	at    time.Time
}

func NewGuard(cfg config.Monitor, gw Gateway, marks MarkSource) *Guard {
	allow := make(map[string]struct{}, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		allow[s] = struct{}{}
	}
	return &Guard{
		cfg:          cfg,
		gw:           gw,
		marks:        marks,
		now:          time.Now,
		sleep:        time.Sleep,
		filters:      make(map[string]models.SymbolFilters),
		lastSLUpdate: make(map[models.PosKey]time.Time),
		slCache:      make(map[models.PosKey]slSnap),
		allow:        allow,
	}
}

func (g *Guard) allowed(symbol string) bool {
	if len(g.allow) == 0 {
		return true
	}
	_, ok := g.allow[symbol]
	return ok
}
