package memory

import (
	"context"
	"sync"
)

// CareerStore keeps per-player HP between battles in process memory.
type CareerStore struct {
	mu sync.RWMutex
	hp map[string]int
}

func NewCareerStore() *CareerStore {
	return &CareerStore{hp: make(map[string]int)}
}

func (s *CareerStore) GetHP(_ context.Context, playerID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hp, ok := s.hp[playerID]
	return hp, ok, nil
}

func (s *CareerStore) SetHP(_ context.Context, playerID string, hp int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hp[playerID] = hp
	return nil
}
