package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		err := MissingToken()
		assert.Equal(t, "missing_token", err.Code)
		assert.Equal(t, http.StatusUnauthorized, err.StatusCode)
		assert.True(t, errors.Is(err, ErrUnauthorized))
	})

	t.Run("unknown user", func(t *testing.T) {
		err := UnknownUser()
		assert.Equal(t, "unknown_user", err.Code)
		assert.Equal(t, http.StatusNotFound, err.StatusCode)
	})

	t.Run("quota exhausted", func(t *testing.T) {
		err := QuotaExhausted()
		assert.Equal(t, "quota_exhausted", err.Code)
		assert.Equal(t, http.StatusPaymentRequired, err.StatusCode)
		assert.True(t, errors.Is(err, ErrQuotaExhausted))
	})

	t.Run("upstream errors wrap the cause", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := UpstreamUnavailable(cause)
		assert.True(t, errors.Is(err, ErrUpstreamUnavailable))
		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, http.StatusBadGateway, err.StatusCode)
	})

	t.Run("store unavailable", func(t *testing.T) {
		err := StoreUnavailable(fmt.Errorf("dial tcp: timeout"))
		assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
		assert.True(t, errors.Is(err, ErrStoreUnavailable))
	})
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, GetStatusCode(MissingToken()))
	assert.Equal(t, http.StatusNotFound, GetStatusCode(ErrNotFound))
	assert.Equal(t, http.StatusPaymentRequired, GetStatusCode(ErrQuotaExhausted))
	assert.Equal(t, http.StatusTooManyRequests, GetStatusCode(ErrRateLimited))
	assert.Equal(t, http.StatusBadGateway, GetStatusCode(fmt.Errorf("wrapped: %w", ErrUpstreamMalformed)))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(fmt.Errorf("boom")))
}
