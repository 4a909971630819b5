package gallery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inkgen/server/internal/shared/response"
)

const defaultRecentLimit = 12

// Handler exposes gallery HTTP endpoints.
type Handler struct {
	store Store
}

// NewHandler creates a new gallery handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers gallery routes. The gallery is public.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/designs/recent", h.Recent)
}

// Recent handles GET /api/designs/recent.
func (h *Handler) Recent(c *gin.Context) {
	limit := int64(defaultRecentLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 || parsed > 100 {
			response.BadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	designs, err := h.store.Recent(c.Request.Context(), int32(limit))
	if err != nil {
		response.AppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"designs": designs})
}
