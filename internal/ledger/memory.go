package ledger

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps ledger state in memory. It is the store used in
// tests and when no Redis address is configured; state then lives only
// for the process lifetime.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the last saved state, or nil when nothing was saved.
func (s *MemoryStore) Load(_ context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(s.data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Save serializes the state through the same JSON document format the
// durable stores use.
func (s *MemoryStore) Save(_ context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}
