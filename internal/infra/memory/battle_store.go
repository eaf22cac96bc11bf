package memory

import (
	"sync"

	"battle-quiz-service/internal/app"
)

// BattleStore is an in-memory implementation of app.BattleStore.
type BattleStore struct {
	mu      sync.RWMutex
	battles map[string]*app.BattleSession
}

func NewBattleStore() *BattleStore {
	return &BattleStore{
		battles: make(map[string]*app.BattleSession),
	}
}

func (s *BattleStore) Put(handle string, session *app.BattleSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battles[handle] = session
}

func (s *BattleStore) Get(handle string) (*app.BattleSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.battles[handle]
	return session, ok
}

func (s *BattleStore) Delete(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.battles, handle)
}
