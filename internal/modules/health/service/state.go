package service

import (
	"sync"
	"time"
)

// State — готовность процесса и время последнего удачного цикла.
type State struct {
	mu        sync.Mutex
	ready     bool
	lastCycle time.Time
}

func NewState() *State {
	return &State{}
}

func (s *State) SetReady() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
}

// Touch отмечает завершённый цикл.
func (s *State) Touch() {
	s.mu.Lock()
	s.lastCycle = time.Now()
	s.mu.Unlock()
}

// Healthy: процесс готов и циклы не зависли дольше maxAge.
// Нулевой lastCycle до первого цикла считаем живым, только бы ready.
func (s *State) Healthy(maxAge time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return false
	}
	if s.lastCycle.IsZero() {
		return true
	}
	return time.Since(s.lastCycle) <= maxAge
}
