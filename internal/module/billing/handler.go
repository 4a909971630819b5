package billing

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/inkgen/server/internal/shared/middleware"
	"github.com/inkgen/server/internal/shared/response"
)

// Handler exposes billing HTTP endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new billing handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers billing routes. Checkout requires an
// authenticated user; the webhook is authenticated by its signature.
func (h *Handler) RegisterRoutes(protected, webhooks *gin.RouterGroup) {
	protected.POST("/billing/checkout", h.CreateCheckout)
	webhooks.POST("/stripe", h.HandleStripeWebhook)
}

// CheckoutRequest is the checkout request body.
type CheckoutRequest struct {
	Product string `json:"product" binding:"required"`
}

// CreateCheckout handles POST /api/billing/checkout.
func (h *Handler) CreateCheckout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "product is required")
		return
	}

	result, err := h.service.CreateCheckout(c.Request.Context(), userID, Product(req.Product))
	if err != nil {
		response.AppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleStripeWebhook handles incoming Stripe webhook events.
func (h *Handler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	event, err := h.service.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("invalid webhook signature", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			h.logger.Error("failed to parse checkout session", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
			return
		}
		if err := h.service.Fulfill(c.Request.Context(), &sess); err != nil {
			h.logger.Error("failed to fulfill purchase",
				zap.String("event_id", event.ID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
			return
		}
	default:
		h.logger.Debug("unhandled webhook event type", zap.String("type", string(event.Type)))
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
