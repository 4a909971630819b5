package generation

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/inkgen/server/internal/shared/errors"
	"github.com/inkgen/server/internal/shared/middleware"
	"github.com/inkgen/server/internal/shared/response"
)

// Handler exposes generation HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new generation handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers generation routes. The styles listing is public;
// everything else requires an authenticated user.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/diffusion/styles", h.ListStyles)
	protected.POST("/diffusion", h.Generate)
	protected.GET("/usage/remaining", h.Remaining)
}

// GenerateRequest is the generation request body. style is optional: when
// absent the prompt is forwarded to the model unmodified, for callers that
// fold the style into the prompt themselves.
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Style  string `json:"style"`
}

// ModelOutput mirrors the legacy diffusion response element.
type ModelOutput struct {
	ImageBase64 string `json:"image_base64"`
}

// GenerateResponse is the generation response body.
type GenerateResponse struct {
	ModelOutputs []ModelOutput `json:"modelOutputs"`
}

// Generate handles POST /api/diffusion.
func (h *Handler) Generate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "prompt is required")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		response.BadRequest(c, "prompt is required")
		return
	}

	style, err := ParseStyle(req.Style)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Generate(c.Request.Context(), userID, style, req.Prompt)
	var quotaErr *QuotaError
	if errors.As(err, &quotaErr) {
		quota := apperrors.QuotaExhausted()
		response.ErrorWithDetails(c, quota.StatusCode, quota.Code, quota.Message,
			gin.H{"remaining": quotaErr.Remaining})
		return
	}
	if err != nil {
		response.AppError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		ModelOutputs: []ModelOutput{{ImageBase64: result.ImageBase64}},
	})
}

// ListStyles handles GET /api/diffusion/styles.
func (h *Handler) ListStyles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"styles":  Styles,
		"default": DefaultStyle,
	})
}

// Remaining handles GET /api/usage/remaining. Clients use it to resync
// their locally derived credit estimate.
func (h *Handler) Remaining(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	info, err := h.service.Remaining(c.Request.Context(), userID)
	if err != nil {
		response.AppError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
