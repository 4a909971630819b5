package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkgen/server/internal/shared/middleware"
)

type fakeResolver struct {
	tokens map[string]uuid.UUID
	calls  int
	err    error
}

func (f *fakeResolver) Resolve(_ context.Context, token string) (uuid.UUID, error) {
	f.calls++
	if f.err != nil {
		return uuid.Nil, f.err
	}
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return uuid.Nil, ErrTokenNotFound
}

func newAuthTestRouter(resolver TokenResolver) (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)
	var seen uuid.UUID
	r := gin.New()
	r.GET("/protected", RequireUser(resolver), func(c *gin.Context) {
		seen = middleware.GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, &seen
}

func TestRequireUser(t *testing.T) {
	userID := uuid.New()

	t.Run("missing header aborts before any store read", func(t *testing.T) {
		resolver := &fakeResolver{}
		r, _ := newAuthTestRouter(resolver)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing_token")
		assert.Zero(t, resolver.calls)
	})

	t.Run("malformed header is treated as missing", func(t *testing.T) {
		resolver := &fakeResolver{}
		r, _ := newAuthTestRouter(resolver)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Token abc123")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Zero(t, resolver.calls)
	})

	t.Run("unresolvable token returns 404", func(t *testing.T) {
		resolver := &fakeResolver{}
		r, _ := newAuthTestRouter(resolver)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer expired-token")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "unknown_user")
		assert.Equal(t, 1, resolver.calls)
	})

	t.Run("valid token sets user id", func(t *testing.T) {
		resolver := &fakeResolver{tokens: map[string]uuid.UUID{"good-token": userID}}
		r, seen := newAuthTestRouter(resolver)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID, *seen)
	})
}

func TestExtractBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := map[string]string{
		"":                 "",
		"Bearer abc":       "abc",
		"bearer abc":       "",
		"Basic dXNlcg==":   "",
		"Bearer ":          "",
		"Bearer two parts": "two parts",
	}

	for header, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			c.Request.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, ExtractBearerToken(c), "header %q", header)
	}
}
