package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/inkgen/server/internal/shared/errors"
)

const sessionKeyPrefix = "session:"

// TokenResolver maps an opaque bearer token to a user identity.
type TokenResolver interface {
	// Resolve returns the user the token belongs to, or ErrTokenNotFound.
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
}

// SessionStore issues and resolves opaque session tokens backed by Redis.
// Each token maps 1:1 to a user identity.
type SessionStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSessionStore creates a new session store.
func NewSessionStore(client redis.UniversalClient, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SessionStore{client: client, ttl: ttl}
}

// Issue creates a new session token for the user.
func (s *SessionStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+token, userID.String(), s.ttl).Err(); err != nil {
		return "", apperrors.StoreUnavailable(err)
	}
	return token, nil
}

// Resolve looks up the user identity for a token. A pure read.
func (s *SessionStore) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, apperrors.StoreUnavailable(err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt session value: %w", err)
	}
	return userID, nil
}

// Revoke deletes a session token.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return apperrors.StoreUnavailable(err)
	}
	return nil
}

// newSessionToken generates a 256-bit random token, hex encoded.
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Compile-time check
var _ TokenResolver = (*SessionStore)(nil)
