package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"printforge/internal/api/middleware"
	"printforge/internal/api/v1/dto"
	"printforge/internal/api/v1/services"
)

// ExportHandler streams user records in a chosen format
type ExportHandler struct {
	service services.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(service services.ExportService) *ExportHandler {
	return &ExportHandler{service: service}
}

var exportContentTypes = map[string]string{
	"csv":  "text/csv",
	"json": "application/json",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Export handles GET /api/v1/export
//
// @Summary Export the caller's conversions or print jobs
// @Tags export
// @Produce json
// @Param kind query string false "What to export" default(conversions) Enums(conversions,print_jobs)
// @Param format query string false "Output format" default(csv) Enums(csv,json,xlsx)
// @Param limit query int false "Max records" default(1000) maximum(10000)
// @Success 200 {file} file "Exported records"
// @Router /export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Header("Content-Type", exportContentTypes[query.Format])
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", query.Kind, query.Format))

	if err := h.service.Export(c.Request.Context(), middleware.UserID(c), query, c.Writer); err != nil {
		middleware.HandleError(c, err)
		return
	}
}
