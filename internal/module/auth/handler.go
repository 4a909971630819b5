package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkgen/server/internal/shared/metrics"
	"github.com/inkgen/server/internal/shared/middleware"
	"github.com/inkgen/server/internal/shared/response"
)

// Handler handles HTTP requests for authentication.
type Handler struct {
	service *Service
	metrics *metrics.Metrics
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

// RegisterRoutes registers the public auth routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.GET("/:provider/login", h.Login)
		authGroup.GET("/:provider/callback", h.Callback)
	}
}

// RegisterProtectedRoutes registers routes that require a resolved user.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/auth/logout", h.Logout)
}

// Login redirects the browser to the provider's authorization page.
func (h *Handler) Login(c *gin.Context) {
	url, err := h.service.LoginURL(c.Request.Context(), c.Param("provider"))
	if err != nil {
		response.NotFound(c, "unknown provider")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}

// Callback completes the OAuth flow and returns a session token.
func (h *Handler) Callback(c *gin.Context) {
	provider := c.Param("provider")
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		response.BadRequest(c, "state and code are required")
		return
	}

	result, err := h.service.HandleCallback(c.Request.Context(), provider, state, code)
	if err != nil {
		h.metrics.AuthEventsTotal.WithLabelValues("login_failed", provider).Inc()
		if errors.Is(err, ErrStateNotFound) {
			response.BadRequest(c, "invalid or expired oauth state")
			return
		}
		response.ErrorWithCode(c, http.StatusBadGateway, "oauth_failed", "login failed")
		return
	}

	h.metrics.AuthEventsTotal.WithLabelValues("login_success", provider).Inc()
	c.JSON(http.StatusOK, result)
}

// Logout revokes the caller's session token.
func (h *Handler) Logout(c *gin.Context) {
	token := middleware.GetToken(c)
	if token == "" {
		response.Unauthorized(c, "")
		return
	}

	if err := h.service.Logout(c.Request.Context(), token); err != nil {
		response.AppError(c, err)
		return
	}

	h.metrics.AuthEventsTotal.WithLabelValues("logout", "").Inc()
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}
