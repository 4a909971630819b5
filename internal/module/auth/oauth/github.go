package oauth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	githubUserAPI   = "https://api.github.com/user"
	githubEmailsAPI = "https://api.github.com/user/emails"
)

// GitHubProvider implements OAuth for GitHub.
type GitHubProvider struct {
	base
}

// NewGitHubProvider creates a new GitHub OAuth provider.
func NewGitHubProvider(cfg *Config) *GitHubProvider {
	return &GitHubProvider{base{
		name:   "github",
		config: cfg.oauth2Config(github.Endpoint, []string{"read:user", "user:email"}),
	}}
}

// UserInfo fetches the user's profile. GitHub users may keep their email
// private, in which case it comes from the emails API instead.
func (p *GitHubProvider) UserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	client := p.client(ctx, token)

	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(client, githubUserAPI, &user); err != nil {
		return nil, err
	}

	email := user.Email
	if email == "" {
		var err error
		if email, err = primaryEmail(client); err != nil {
			return nil, fmt.Errorf("get primary email: %w", err)
		}
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &UserInfo{
		ID:        fmt.Sprintf("%d", user.ID),
		Email:     email,
		Name:      name,
		AvatarURL: user.AvatarURL,
	}, nil
}

func primaryEmail(client *http.Client) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(client, githubEmailsAPI, &emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", fmt.Errorf("no verified primary email")
}
