package generation

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inkgen/server/internal/shared/config"
	apperrors "github.com/inkgen/server/internal/shared/errors"
)

func newTestStabilityClient(t *testing.T, handler http.HandlerFunc) *StabilityClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStabilityClient(config.StabilityConfig{
		Host:     srv.URL,
		EngineID: "stable-diffusion-v1-6",
		APIKey:   "test-key",
	}, zap.NewNop())
}

func TestStabilityGenerate(t *testing.T) {
	pngBytes := []byte("fake-png")
	var gotReq textToImageRequest
	var gotPath, gotAuth string

	client := newTestStabilityClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"artifacts": []map[string]any{
				{"base64": base64.StdEncoding.EncodeToString(pngBytes), "finishReason": "SUCCESS"},
			},
		})
	})

	img, err := client.Generate(context.Background(), "a serpent coiled around a dagger")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, img.Data)

	assert.Equal(t, "/v1/generation/stable-diffusion-v1-6/text-to-image", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	require.Len(t, gotReq.TextPrompts, 1)
	assert.Equal(t, "a serpent coiled around a dagger", gotReq.TextPrompts[0].Text)
	assert.Equal(t, 7, gotReq.CfgScale)
	assert.Equal(t, 1024, gotReq.Height)
	assert.Equal(t, 1024, gotReq.Width)
	assert.Equal(t, 30, gotReq.Steps)
	assert.Equal(t, 1, gotReq.Samples)
}

func TestStabilityGenerateNoArtifacts(t *testing.T) {
	client := newTestStabilityClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"artifacts": []any{}})
	})

	_, err := client.Generate(context.Background(), "a raven")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.GetStatusCode(err))
}

func TestStabilityGenerateInvalidBase64(t *testing.T) {
	client := newTestStabilityClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"artifacts": []map[string]any{{"base64": "not!!base64"}},
		})
	})

	_, err := client.Generate(context.Background(), "a raven")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.GetStatusCode(err))
}

func TestStabilityGenerateServerError(t *testing.T) {
	client := newTestStabilityClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), "a raven")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.GetStatusCode(err))
}

func TestStabilityGenerateRateLimited(t *testing.T) {
	client := newTestStabilityClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), "a raven")
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, apperrors.GetStatusCode(err))
}

func TestStabilityBreakerOpensAfterFailures(t *testing.T) {
	client := newTestStabilityClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := client.Generate(context.Background(), "a raven")
		require.Error(t, err)
	}

	// Breaker is open now; the request fails without reaching the server.
	_, err := client.Generate(context.Background(), "a raven")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.GetStatusCode(err))
}
