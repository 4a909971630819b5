package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoAPI = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleProvider implements OAuth for Google.
type GoogleProvider struct {
	base
}

// NewGoogleProvider creates a new Google OAuth provider.
func NewGoogleProvider(cfg *Config) *GoogleProvider {
	return &GoogleProvider{base{
		name: "google",
		config: cfg.oauth2Config(google.Endpoint, []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		}),
	}}
}

// UserInfo fetches the user's profile. Accounts without a verified email
// are rejected.
func (p *GoogleProvider) UserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	var user struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := getJSON(p.client(ctx, token), googleUserInfoAPI, &user); err != nil {
		return nil, err
	}

	if !user.VerifiedEmail {
		return nil, fmt.Errorf("email not verified")
	}

	return &UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.Picture,
	}, nil
}
