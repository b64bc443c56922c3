// Package redis persists the billing ledger as a single JSON document
// in Redis, so aggregates survive process restarts.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shopwise/advisor/internal/ledger"
)

// Store implements ledger.Store over a Redis client.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore creates a Redis-backed ledger store under the given key.
func NewStore(client *redis.Client, key string) *Store {
	return &Store{
		client: client,
		key:    key,
	}
}

// Load fetches the persisted ledger document. A missing key means no
// prior state and returns (nil, nil).
func (s *Store) Load(ctx context.Context) (*ledger.State, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger state: %w", err)
	}

	var state ledger.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode ledger state: %w", err)
	}

	return &state, nil
}

// Save writes the full ledger document. The document is small (bounded
// history), so whole-document writes keep aggregates and history in
// one atomic value.
func (s *Store) Save(ctx context.Context, state *ledger.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode ledger state: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save ledger state: %w", err)
	}

	return nil
}
