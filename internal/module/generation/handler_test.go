package generation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inkgen/server/internal/module/usage"
	"github.com/inkgen/server/internal/shared/middleware"
)

func newTestRouter(svc *Service, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	protected := r.Group("/api")
	protected.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
	})
	NewHandler(svc).RegisterRoutes(api, protected)
	return r
}

func TestHandlerGenerate(t *testing.T) {
	ledger := &fakeLedger{info: usage.RemainingInfo{DailyRemaining: 2, DailyLimit: 5}}
	gen := &fakeGenerator{}
	svc := NewService(ledger, gen, nil, testMetrics, zap.NewNop())
	router := newTestRouter(svc, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/diffusion",
		strings.NewReader(`{"prompt": "a raven on a skull", "style": "Blackwork"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.ModelOutputs, 1)
	assert.NotEmpty(t, resp.ModelOutputs[0].ImageBase64)
	assert.Contains(t, w.Body.String(), `"modelOutputs"`)
}

func TestHandlerGenerateEmptyPrompt(t *testing.T) {
	ledger := &fakeLedger{info: usage.RemainingInfo{DailyRemaining: 2, DailyLimit: 5}}
	gen := &fakeGenerator{}
	svc := NewService(ledger, gen, nil, testMetrics, zap.NewNop())
	router := newTestRouter(svc, uuid.New())

	for _, body := range []string{`{}`, `{"prompt": "   "}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/diffusion", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		assert.Zero(t, gen.calls)
	}
}

func TestHandlerGenerateUnknownStyle(t *testing.T) {
	ledger := &fakeLedger{info: usage.RemainingInfo{DailyRemaining: 2, DailyLimit: 5}}
	svc := NewService(ledger, &fakeGenerator{}, nil, testMetrics, zap.NewNop())
	router := newTestRouter(svc, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/diffusion",
		strings.NewReader(`{"prompt": "a raven", "style": "Cubist"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerGenerateQuotaExhausted(t *testing.T) {
	ledger := &fakeLedger{info: usage.RemainingInfo{DailyLimit: 5}}
	gen := &fakeGenerator{}
	svc := NewService(ledger, gen, nil, testMetrics, zap.NewNop())
	router := newTestRouter(svc, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/diffusion",
		strings.NewReader(`{"prompt": "a raven"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "quota_exhausted")
	assert.Contains(t, w.Body.String(), "0 credits remaining today")
	assert.Zero(t, gen.calls)

	var resp struct {
		Details struct {
			Remaining usage.RemainingInfo `json:"remaining"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Details.Remaining.DailyLimit)
}

func TestHandlerGeneratePreFoldedPrompt(t *testing.T) {
	ledger := &fakeLedger{info: usage.RemainingInfo{DailyRemaining: 2, DailyLimit: 5}}
	gen := &fakeGenerator{}
	svc := NewService(ledger, gen, nil, testMetrics, zap.NewNop())
	router := newTestRouter(svc, uuid.New())

	prompt := StyledPrompt(StyleJapanese, "a koi swimming upstream")
	body, err := json.Marshal(GenerateRequest{Prompt: prompt})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/diffusion", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, prompt, gen.prompts[0], "style-free prompts must reach the model unmodified")
}

func TestHandlerListStyles(t *testing.T) {
	svc := NewService(&fakeLedger{}, &fakeGenerator{}, nil, testMetrics, zap.NewNop())
	router := newTestRouter(svc, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/diffusion/styles", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Styles  []string `json:"styles"`
		Default string   `json:"default"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Neo-Traditional", resp.Default)
	assert.Contains(t, resp.Styles, "Watercolor")
}

func TestHandlerRemaining(t *testing.T) {
	ledger := &fakeLedger{info: usage.RemainingInfo{DailyRemaining: 3, BoostPackRemaining: 7, DailyLimit: 5}}
	svc := NewService(ledger, &fakeGenerator{}, nil, testMetrics, zap.NewNop())
	router := newTestRouter(svc, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/usage/remaining", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var info usage.RemainingInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, 3, info.DailyRemaining)
	assert.Equal(t, 7, info.BoostPackRemaining)
}
