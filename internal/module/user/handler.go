package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkgen/server/internal/shared/middleware"
	"github.com/inkgen/server/internal/shared/response"
)

// Handler exposes user HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new user handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers user routes on the given group. All routes
// require an authenticated user.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/user/me", h.Me)
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "authentication required")
		return
	}
	u, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		response.AppError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
