package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"printforge/internal/api/middleware"
	"printforge/internal/api/v1/services"
)

// ProviderHandler exposes registered conversion providers
type ProviderHandler struct {
	service services.ProviderService
}

// NewProviderHandler creates a new provider handler
func NewProviderHandler(service services.ProviderService) *ProviderHandler {
	return &ProviderHandler{service: service}
}

// List handles GET /api/v1/providers
//
// @Summary List registered conversion providers
// @Tags providers
// @Produce json
// @Success 200 {array} dto.ProviderResponse "Providers in fallback order"
// @Router /providers [get]
func (h *ProviderHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.List(c.Request.Context()))
}

// Stats handles GET /api/v1/providers/:name/stats
//
// @Summary Get rolling stats for one provider
// @Tags providers
// @Produce json
// @Param name path string true "Provider name"
// @Success 200 {object} dto.ProviderStatsResponse "Provider stats"
// @Failure 404 {object} errors.APIError "Provider not found"
// @Router /providers/{name}/stats [get]
func (h *ProviderHandler) Stats(c *gin.Context) {
	response, err := h.service.Stats(c.Param("name"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Health handles GET /api/v1/providers/health
//
// @Summary Health-check every registered provider
// @Tags providers
// @Produce json
// @Success 200 {object} map[string]string "Provider name to status"
// @Router /providers/health [get]
func (h *ProviderHandler) Health(c *gin.Context) {
	results := h.service.HealthCheck(c.Request.Context())
	out := make(map[string]string, len(results))
	for name, err := range results {
		if err != nil {
			out[name] = err.Error()
		} else {
			out[name] = "ok"
		}
	}
	c.JSON(http.StatusOK, out)
}
