package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRequiresToken(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Generate(context.Background(), "a raven", "")
	require.ErrorIs(t, err, ErrNoToken)
	assert.False(t, called, "no network call without a token")
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/diffusion", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a raven", req.Prompt)
		assert.Equal(t, "Blackwork", req.Style)

		json.NewEncoder(w).Encode(map[string]any{
			"modelOutputs": []map[string]string{{"image_base64": "aW1n"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok", 5, 0)

	img, err := c.Generate(context.Background(), "a raven", "Blackwork")
	require.NoError(t, err)
	assert.Equal(t, "aW1n", img)
	assert.Equal(t, "aW1n", c.LastImage())
	assert.Equal(t, RemainingEstimate{Daily: 4, Boost: 0}, c.Remaining())
}

func TestGenerateFailureLeavesStateUntouched(t *testing.T) {
	fail := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			http.Error(w, `{"error":"upstream unavailable","code":"upstream_unavailable"}`, http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"modelOutputs": []map[string]string{{"image_base64": "Zmlyc3Q="}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok", 5, 0)

	_, err := c.Generate(context.Background(), "a raven", "")
	require.NoError(t, err)

	fail = true
	_, err = c.Generate(context.Background(), "a koi", "")
	require.Error(t, err)
	assert.Equal(t, "Zmlyc3Q=", c.LastImage(), "prior image survives a failed generation")
	assert.Equal(t, RemainingEstimate{Daily: 4, Boost: 0}, c.Remaining())
}

func TestGenerateErrorMapping(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok", 5, 0)

	_, err := c.Generate(context.Background(), "a raven", "")
	assert.ErrorIs(t, err, ErrRateLimited)

	status = http.StatusPaymentRequired
	_, err = c.Generate(context.Background(), "a raven", "")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
}

func TestRemainingEstimateDrainsDailyThenBoost(t *testing.T) {
	c := New("http://unused")
	c.SetToken("tok", 2, 3)

	c.mu.Lock()
	c.sessionUses = 4
	c.mu.Unlock()

	assert.Equal(t, RemainingEstimate{Daily: 0, Boost: 1}, c.Remaining())

	c.mu.Lock()
	c.sessionUses = 10
	c.mu.Unlock()
	assert.Equal(t, RemainingEstimate{Daily: 0, Boost: 0}, c.Remaining())
}

func TestResync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/usage/remaining", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"daily_remaining":      3,
			"boost_pack_remaining": 7,
			"daily_limit":          5,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok", 5, 0)
	c.mu.Lock()
	c.sessionUses = 2
	c.mu.Unlock()

	est, err := c.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RemainingEstimate{Daily: 3, Boost: 7}, est)
	assert.Equal(t, est, c.Remaining(), "resync resets the session counter")
}

func TestStyles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"styles":  []string{"Neo-Traditional", "Blackwork"},
			"default": "Neo-Traditional",
		})
	}))
	defer srv.Close()

	styles, err := New(srv.URL).Styles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Neo-Traditional", "Blackwork"}, styles)
}
