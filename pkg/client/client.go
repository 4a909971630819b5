// Package client is a small Go client for the InkGen API. It mirrors the
// web frontend's behavior: it tracks a local estimate of remaining credits
// from the totals the server reported at login, counting completed
// generations in this session, and can resync against the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Client errors.
var (
	ErrNoToken        = errors.New("no session token set")
	ErrRateLimited    = errors.New("rate limited, try again later")
	ErrQuotaExhausted = errors.New("no credits remaining")
)

// RemainingEstimate is the client's local view of remaining credits.
type RemainingEstimate struct {
	Daily int
	Boost int
}

// Client talks to an InkGen server.
type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	token        string
	initialDaily int
	initialBoost int
	sessionUses  int
	lastImage    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the given server base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the session token and seeds the credit estimate from
// server-reported totals.
func (c *Client) SetToken(token string, daily, boost int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.initialDaily = daily
	c.initialBoost = boost
	c.sessionUses = 0
}

// Remaining returns the local credit estimate: completed generations this
// session are charged against the daily total first, then the boost total.
func (c *Client) Remaining() RemainingEstimate {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionUses <= c.initialDaily {
		return RemainingEstimate{
			Daily: c.initialDaily - c.sessionUses,
			Boost: c.initialBoost,
		}
	}
	boost := c.initialBoost - (c.sessionUses - c.initialDaily)
	if boost < 0 {
		boost = 0
	}
	return RemainingEstimate{Daily: 0, Boost: boost}
}

// LastImage returns the base64 image from the most recent successful
// generation, or empty string.
func (c *Client) LastImage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastImage
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style,omitempty"`
}

type generateResponse struct {
	ModelOutputs []struct {
		ImageBase64 string `json:"image_base64"`
	} `json:"modelOutputs"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Generate requests one tattoo design. A missing token aborts before any
// network call. On success the image is stored as LastImage and the local
// estimate is advanced; on failure the prior image is left untouched.
func (c *Client) Generate(ctx context.Context, prompt, style string) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return "", ErrNoToken
	}

	body, err := json.Marshal(&generateRequest{Prompt: prompt, Style: style})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/diffusion", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	case http.StatusPaymentRequired:
		return "", ErrQuotaExhausted
	default:
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("server error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("server error (%d)", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(genResp.ModelOutputs) == 0 || genResp.ModelOutputs[0].ImageBase64 == "" {
		return "", fmt.Errorf("response contains no image")
	}

	image := genResp.ModelOutputs[0].ImageBase64
	c.mu.Lock()
	c.lastImage = image
	c.sessionUses++
	c.mu.Unlock()
	return image, nil
}

// remainingInfo mirrors the server's usage snapshot.
type remainingInfo struct {
	DailyRemaining     int `json:"daily_remaining"`
	BoostPackRemaining int `json:"boost_pack_remaining"`
}

// Resync replaces the local estimate with the server's current snapshot.
func (c *Client) Resync(ctx context.Context) (RemainingEstimate, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return RemainingEstimate{}, ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/usage/remaining", nil)
	if err != nil {
		return RemainingEstimate{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return RemainingEstimate{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RemainingEstimate{}, fmt.Errorf("server error (%d)", resp.StatusCode)
	}

	var info remainingInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return RemainingEstimate{}, fmt.Errorf("unmarshal response: %w", err)
	}

	c.mu.Lock()
	c.initialDaily = info.DailyRemaining
	c.initialBoost = info.BoostPackRemaining
	c.sessionUses = 0
	c.mu.Unlock()

	return RemainingEstimate{Daily: info.DailyRemaining, Boost: info.BoostPackRemaining}, nil
}

// Styles fetches the supported style names.
func (c *Client) Styles(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/diffusion/styles", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server error (%d)", resp.StatusCode)
	}

	var out struct {
		Styles []string `json:"styles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return out.Styles, nil
}
