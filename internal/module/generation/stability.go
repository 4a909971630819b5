package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/inkgen/server/internal/shared/config"
	apperrors "github.com/inkgen/server/internal/shared/errors"
)

// Generator produces a tattoo design image for a finished prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Image, error)
}

// Image is a generated design, decoded from the upstream response.
type Image struct {
	Base64 string
	Data   []byte
}

// Fixed diffusion parameters. These are part of the product, not tunable
// per request.
const (
	cfgScale  = 7
	imgHeight = 1024
	imgWidth  = 1024
	steps     = 30
	samples   = 1
)

// StabilityClient calls the Stability AI text-to-image endpoint behind a
// circuit breaker.
type StabilityClient struct {
	host     string
	engineID string
	apiKey   string

	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Image]
	logger  *zap.Logger
}

// NewStabilityClient creates a Stability AI client from configuration.
func NewStabilityClient(cfg config.StabilityConfig, logger *zap.Logger) *StabilityClient {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "stability",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &StabilityClient{
		host:     cfg.Host,
		engineID: cfg.EngineID,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		breaker:  gobreaker.NewCircuitBreaker[*Image](settings),
		logger:   logger,
	}
}

type textPrompt struct {
	Text string `json:"text"`
}

type textToImageRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CfgScale    int          `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Steps       int          `json:"steps"`
	Samples     int          `json:"samples"`
}

type textToImageResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

// Generate submits the prompt and returns the first generated image.
func (c *StabilityClient) Generate(ctx context.Context, prompt string) (*Image, error) {
	img, err := c.breaker.Execute(func() (*Image, error) {
		return c.generate(ctx, prompt)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, apperrors.UpstreamUnavailable(err)
	}
	return img, err
}

func (c *StabilityClient) generate(ctx context.Context, prompt string) (*Image, error) {
	body, err := json.Marshal(&textToImageRequest{
		TextPrompts: []textPrompt{{Text: prompt}},
		CfgScale:    cfgScale,
		Height:      imgHeight,
		Width:       imgWidth,
		Steps:       steps,
		Samples:     samples,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/generation/%s/text-to-image", c.host, c.engineID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.UpstreamUnavailable(fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.UpstreamUnavailable(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperrors.RateLimited("rate limited, try again later")
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn("stability request failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(respBody, 512)))
		return nil, apperrors.UpstreamUnavailable(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	var apiResp textToImageResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, apperrors.UpstreamMalformed(fmt.Errorf("unmarshal response: %w", err))
	}
	if len(apiResp.Artifacts) == 0 {
		return nil, apperrors.UpstreamMalformed(fmt.Errorf("response contains no artifacts"))
	}

	b64 := apiResp.Artifacts[0].Base64
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, apperrors.UpstreamMalformed(fmt.Errorf("decode artifact: %w", err))
	}

	return &Image{Base64: b64, Data: data}, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
