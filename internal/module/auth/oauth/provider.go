package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// UserInfo represents user information from an OAuth provider.
type UserInfo struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

// Provider defines the interface for OAuth providers.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// AuthURL returns the OAuth authorization URL for the given state.
	AuthURL(state string) string

	// Exchange exchanges the authorization code for tokens.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// UserInfo fetches user information using the access token.
	UserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error)
}

// Config holds OAuth provider configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

func (c *Config) oauth2Config(endpoint oauth2.Endpoint, defaultScopes []string) *oauth2.Config {
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       scopes,
		Endpoint:     endpoint,
	}
}

// base carries the authorization-code flow shared by every provider.
// Concrete providers only differ in how they fetch the user profile.
type base struct {
	name   string
	config *oauth2.Config
}

func (b *base) Name() string {
	return b.name
}

func (b *base) AuthURL(state string) string {
	return b.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (b *base) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := b.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return token, nil
}

func (b *base) client(ctx context.Context, token *oauth2.Token) *http.Client {
	return b.config.Client(ctx, token)
}

// getJSON fetches url with the token-bearing client and decodes the body.
func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
