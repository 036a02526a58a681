package services

import "sync"

// MemorySuspicion is a process-local suspicion tracker. Every report bumps
// the peer's level; levels only decay by process restart.
type MemorySuspicion struct {
	mu     sync.RWMutex
	levels map[string]float64
}

// NewMemorySuspicion creates an empty tracker.
func NewMemorySuspicion() *MemorySuspicion {
	return &MemorySuspicion{levels: make(map[string]float64)}
}

func (s *MemorySuspicion) Report(address, behavior string) {
	if address == "" {
		return
	}
	s.mu.Lock()
	s.levels[address]++
	s.mu.Unlock()
}

func (s *MemorySuspicion) Level(address string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels[address]
}
