package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkgen/server/internal/module/auth/oauth"
	apperrors "github.com/inkgen/server/internal/shared/errors"
)

// Service handles user business logic.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// UpsertOAuthUser creates the user on first login and refreshes profile
// fields on subsequent logins.
func (s *Service) UpsertOAuthUser(ctx context.Context, provider string, info *oauth.UserInfo) (*User, error) {
	existing, err := s.repo.GetByOAuth(ctx, provider, info.ID)
	if err == nil {
		existing.Email = info.Email
		existing.Name = info.Name
		existing.AvatarURL = info.AvatarURL
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	u := &User{
		ID:            uuid.New(),
		Email:         info.Email,
		Name:          info.Name,
		AvatarURL:     info.AvatarURL,
		OAuthProvider: provider,
		OAuthID:       info.ID,
		Role:          RoleFree,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user registered",
		zap.String("user_id", u.ID.String()),
		zap.String("provider", provider))
	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// ActivateMembership promotes the user to member until the given expiry.
// Called by billing after a successful membership payment.
func (s *Service) ActivateMembership(ctx context.Context, id uuid.UUID, expires time.Time) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.Role = RoleMember
	u.MembershipExpire = &expires
	return s.repo.Update(ctx, u)
}
