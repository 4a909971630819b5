package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkgen/server/internal/module/auth/oauth"
	"github.com/inkgen/server/internal/module/user"
)

// UserUpserter creates or refreshes the local user record at login.
type UserUpserter interface {
	UpsertOAuthUser(ctx context.Context, provider string, info *oauth.UserInfo) (*user.User, error)
}

// LoginResult is the outcome of a completed OAuth callback.
type LoginResult struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// Service implements the OAuth login flow: redirect, callback, session issue.
type Service struct {
	registry *oauth.Registry
	states   StateStore
	sessions *SessionStore
	users    UserUpserter
	logger   *zap.Logger
}

// NewService creates a new auth service.
func NewService(registry *oauth.Registry, states StateStore, sessions *SessionStore, users UserUpserter, logger *zap.Logger) *Service {
	return &Service{
		registry: registry,
		states:   states,
		sessions: sessions,
		users:    users,
		logger:   logger,
	}
}

// LoginURL returns the provider's authorization URL with a fresh state.
func (s *Service) LoginURL(ctx context.Context, provider string) (string, error) {
	p, err := s.registry.Get(provider)
	if err != nil {
		return "", err
	}

	state := uuid.New().String()
	if err := s.states.Set(ctx, state, provider); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}

	return p.AuthURL(state), nil
}

// HandleCallback completes the OAuth flow: validates the state, exchanges the
// code, fetches the user profile, upserts the local record and issues an
// opaque session token.
func (s *Service) HandleCallback(ctx context.Context, provider, state, code string) (*LoginResult, error) {
	stored, err := s.states.Get(ctx, state)
	if err != nil {
		return nil, ErrStateNotFound
	}
	if stored != provider {
		return nil, fmt.Errorf("state issued for provider %q, callback from %q", stored, provider)
	}
	_ = s.states.Delete(ctx, state)

	p, err := s.registry.Get(provider)
	if err != nil {
		return nil, err
	}

	oauthToken, err := p.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("oauth exchange failed", zap.String("provider", provider), zap.Error(err))
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	info, err := p.UserInfo(ctx, oauthToken)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}

	u, err := s.users.UpsertOAuthUser(ctx, provider, info)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	token, err := s.sessions.Issue(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.logger.Info("user logged in",
		zap.String("provider", provider),
		zap.String("user_id", u.ID.String()),
	)

	return &LoginResult{Token: token, User: u}, nil
}

// Logout revokes the session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}
