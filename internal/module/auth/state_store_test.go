package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		store := NewMemoryStateStore(time.Minute)

		require.NoError(t, store.Set(ctx, "state-123", "github"))

		provider, err := store.Get(ctx, "state-123")
		require.NoError(t, err)
		assert.Equal(t, "github", provider)
	})

	t.Run("unknown state", func(t *testing.T) {
		store := NewMemoryStateStore(time.Minute)

		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrStateNotFound)
	})

	t.Run("delete removes state", func(t *testing.T) {
		store := NewMemoryStateStore(time.Minute)

		require.NoError(t, store.Set(ctx, "state-123", "google"))
		require.NoError(t, store.Delete(ctx, "state-123"))

		_, err := store.Get(ctx, "state-123")
		assert.ErrorIs(t, err, ErrStateNotFound)
	})

	t.Run("expired state is gone", func(t *testing.T) {
		store := NewMemoryStateStore(10 * time.Millisecond)

		require.NoError(t, store.Set(ctx, "state-123", "github"))
		time.Sleep(20 * time.Millisecond)

		_, err := store.Get(ctx, "state-123")
		assert.ErrorIs(t, err, ErrStateNotFound)
	})

	t.Run("default ttl is applied", func(t *testing.T) {
		store := NewMemoryStateStore(0)
		assert.Equal(t, 10*time.Minute, store.ttl)
	})
}

func TestNewSessionToken(t *testing.T) {
	a, err := newSessionToken()
	require.NoError(t, err)
	b, err := newSessionToken()
	require.NoError(t, err)

	assert.Len(t, a, 64) // 32 bytes hex encoded
	assert.NotEqual(t, a, b)
}
