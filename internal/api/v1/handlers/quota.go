package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"printforge/internal/api/middleware"
	"printforge/internal/api/v1/dto"
	"printforge/internal/api/v1/services"
)

// QuotaHandler exposes usage counters and tier administration
type QuotaHandler struct {
	service services.QuotaService
}

// NewQuotaHandler creates a new quota handler
func NewQuotaHandler(service services.QuotaService) *QuotaHandler {
	return &QuotaHandler{service: service}
}

// Usage handles GET /api/v1/usage
//
// @Summary Get the caller's usage counters
// @Tags quota
// @Produce json
// @Success 200 {object} dto.UsageResponse "Counters and tier limits"
// @Router /usage [get]
func (h *QuotaHandler) Usage(c *gin.Context) {
	response, err := h.service.Usage(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// UpgradeTier handles PUT /api/v1/admin/users/:id/tier
//
// @Summary Set a user's subscription tier
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param tier body dto.UpgradeTierRequest true "New tier"
// @Success 204 "Tier updated"
// @Router /admin/users/{id}/tier [put]
func (h *QuotaHandler) UpgradeTier(c *gin.Context) {
	var req dto.UpgradeTierRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}
	if err := h.service.UpgradeTier(c.Request.Context(), c.Param("id"), req.Tier); err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetLimits handles DELETE /api/v1/admin/users/:id/usage
//
// @Summary Reset a user's usage counters
// @Tags admin
// @Param id path string true "User ID"
// @Success 204 "Counters cleared"
// @Router /admin/users/{id}/usage [delete]
func (h *QuotaHandler) ResetLimits(c *gin.Context) {
	if err := h.service.ResetLimits(c.Request.Context(), c.Param("id")); err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
