package persist

import (
	"sync"

	"solardelta/internal/model"
)

// MemoryStore keeps state in memory only. Used in tests and for the
// ":memory:" database path; restarts lose all accumulated state.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]model.AccumulatorState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]model.AccumulatorState)}
}

func (s *MemoryStore) Load(key string) (model.AccumulatorState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	return st, ok, nil
}

func (s *MemoryStore) Save(key string, st model.AccumulatorState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = st
	return nil
}

func (s *MemoryStore) Close() error { return nil }
