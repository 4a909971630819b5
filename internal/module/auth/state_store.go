package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore persists OAuth state tokens between the login redirect and the
// provider callback.
type StateStore interface {
	Set(ctx context.Context, state string, provider string) error
	Get(ctx context.Context, state string) (string, error)
	Delete(ctx context.Context, state string) error
}

const oauthStateKeyPrefix = "oauth:state:"

// RedisStateStore is a Redis-backed StateStore for multi-instance deployments.
type RedisStateStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStateStore creates a new Redis-backed state store.
func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{client: client, ttl: 10 * time.Minute}
}

// Set stores a state with its provider name.
func (s *RedisStateStore) Set(ctx context.Context, state string, provider string) error {
	return s.client.Set(ctx, oauthStateKeyPrefix+state, provider, s.ttl).Err()
}

// Get retrieves the provider for a state.
func (s *RedisStateStore) Get(ctx context.Context, state string) (string, error) {
	val, err := s.client.Get(ctx, oauthStateKeyPrefix+state).Result()
	if err == redis.Nil {
		return "", ErrStateNotFound
	}
	return val, err
}

// Delete removes a state.
func (s *RedisStateStore) Delete(ctx context.Context, state string) error {
	return s.client.Del(ctx, oauthStateKeyPrefix+state).Err()
}

// MemoryStateStore is an in-memory StateStore. Suitable for single-instance
// deployments and tests.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]*stateEntry
	ttl    time.Duration
}

type stateEntry struct {
	provider  string
	expiresAt time.Time
}

// NewMemoryStateStore creates a new in-memory state store.
func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryStateStore{
		states: make(map[string]*stateEntry),
		ttl:    ttl,
	}
}

// Set stores a state with its provider name.
func (s *MemoryStateStore) Set(_ context.Context, state string, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state] = &stateEntry{
		provider:  provider,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Get retrieves the provider for a state.
func (s *MemoryStateStore) Get(_ context.Context, state string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.states[state]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", ErrStateNotFound
	}
	return entry.provider, nil
}

// Delete removes a state.
func (s *MemoryStateStore) Delete(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, state)
	return nil
}

// Compile-time checks
var (
	_ StateStore = (*RedisStateStore)(nil)
	_ StateStore = (*MemoryStateStore)(nil)
)
