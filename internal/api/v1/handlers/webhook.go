package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"printforge/internal/api/errors"
	"printforge/internal/api/middleware"
	"printforge/internal/app/webhook"
)

// maxWebhookBytes bounds the accepted delivery body.
const maxWebhookBytes = 1 << 20

// WebhookHandler receives print service status deliveries
type WebhookHandler struct {
	ingestor *webhook.Ingestor
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(ingestor *webhook.Ingestor) *WebhookHandler {
	return &WebhookHandler{ingestor: ingestor}
}

// Receive handles POST /api/v1/webhooks/print-status
//
// @Summary Receive a print service status delivery
// @Description Verifies the HMAC signature and folds the status into the job through the shared reconciliation rule. Duplicate and out-of-order deliveries are acknowledged as stale.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "Hex HMAC-SHA256 of the raw body"
// @Success 200 {object} webhook.Result "Delivery acknowledged"
// @Failure 400 {object} errors.APIError "Malformed payload"
// @Failure 401 {object} errors.APIError "Invalid signature (strict mode only)"
// @Router /webhooks/print-status [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("failed to read request body"))
		return
	}

	result, apiErr := h.ingestor.Ingest(c.Request.Context(), body, c.GetHeader("X-Webhook-Signature"))
	if apiErr != nil {
		middleware.HandleError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}
