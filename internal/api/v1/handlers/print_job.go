package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"printforge/internal/api/middleware"
	"printforge/internal/api/v1/dto"
	"printforge/internal/api/v1/services"
)

// PrintJobHandler handles print job lifecycle endpoints
type PrintJobHandler struct {
	service services.PrintJobService
}

// NewPrintJobHandler creates a new print job handler
func NewPrintJobHandler(service services.PrintJobService) *PrintJobHandler {
	return &PrintJobHandler{service: service}
}

// Create handles POST /api/v1/print-jobs
//
// @Summary Create and submit a print job
// @Description Creates a job over a completed conversion's artifact and submits it to the print service. Omitted settings take the documented defaults.
// @Tags print-jobs
// @Accept json
// @Produce json
// @Param job body dto.CreatePrintJobRequest true "Job creation data"
// @Success 201 {object} dto.PrintJobResponse "Job submitted"
// @Failure 409 {object} errors.APIError "Conversion has no printable artifact"
// @Failure 503 {object} errors.APIError "Print service unavailable"
// @Router /print-jobs [post]
func (h *PrintJobHandler) Create(c *gin.Context) {
	var req dto.CreatePrintJobRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.CreateAndSubmit(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response)
}

// Get handles GET /api/v1/print-jobs/:id
//
// @Summary Get print job by ID
// @Tags print-jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} dto.PrintJobResponse "Job details"
// @Failure 404 {object} errors.APIError "Job not found"
// @Router /print-jobs/{id} [get]
func (h *PrintJobHandler) Get(c *gin.Context) {
	response, err := h.service.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// List handles GET /api/v1/print-jobs
//
// @Summary List the caller's print jobs
// @Tags print-jobs
// @Produce json
// @Param limit query int false "Items per page" default(20) minimum(1) maximum(100)
// @Param offset query int false "Offset" default(0) minimum(0)
// @Success 200 {array} dto.PrintJobResponse "Jobs, newest first"
// @Router /print-jobs [get]
func (h *PrintJobHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if err := middleware.ValidateQuery(c, &query); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.List(c.Request.Context(), middleware.UserID(c), query)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.Header("X-Total-Count", strconv.Itoa(len(response)))
	c.JSON(http.StatusOK, response)
}

// Reprint handles POST /api/v1/print-jobs/:id/reprint
//
// @Summary Reprint an existing job
// @Description Creates a fresh pending job over the original job's artifact. The original record is never mutated.
// @Tags print-jobs
// @Produce json
// @Param id path string true "Original job ID"
// @Success 201 {object} dto.PrintJobResponse "New pending job"
// @Failure 404 {object} errors.APIError "Job or source artifact not found"
// @Router /print-jobs/{id}/reprint [post]
func (h *PrintJobHandler) Reprint(c *gin.Context) {
	response, err := h.service.Reprint(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response)
}
