package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"printforge/internal/api/errors"
	"printforge/internal/api/middleware"
	"printforge/internal/api/v1/dto"
	"printforge/internal/api/v1/services"
)

// maxUploadBytes bounds the accepted image size.
const maxUploadBytes = 20 << 20

// ConversionHandler handles conversion lifecycle endpoints
type ConversionHandler struct {
	service services.ConversionService
}

// NewConversionHandler creates a new conversion handler
func NewConversionHandler(service services.ConversionService) *ConversionHandler {
	return &ConversionHandler{service: service}
}

// Create handles POST /api/v1/conversions
//
// @Summary Start an image-to-3D conversion
// @Description Uploads an image and starts the asynchronous conversion pipeline. Consumes one unit of the caller's quota.
// @Tags conversions
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Source image"
// @Param description formData string false "Optional description, enhanced before conversion" maxLength(500)
// @Success 202 {object} dto.ConversionResponse "Conversion accepted"
// @Failure 422 {object} errors.APIError "Validation error"
// @Failure 429 {object} errors.APIError "Quota exceeded"
// @Router /conversions [post]
func (h *ConversionHandler) Create(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		middleware.HandleError(c, errors.NewBadRequestError("image file is required"))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		middleware.HandleError(c, errors.NewValidationError("image too large", map[string]string{
			"image": "must be at most 20 MB",
		}))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to read upload"))
		return
	}
	defer file.Close()
	image, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("failed to read upload"))
		return
	}

	req := dto.CreateConversionRequest{Description: c.PostForm("description")}
	if err := req.Validate(); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.Create(c.Request.Context(), middleware.UserID(c), image, fileHeader.Filename, req.Description)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, response)
}

// Get handles GET /api/v1/conversions/:id
//
// @Summary Get conversion by ID
// @Tags conversions
// @Produce json
// @Param id path string true "Conversion ID"
// @Success 200 {object} dto.ConversionResponse "Conversion details"
// @Failure 404 {object} errors.APIError "Conversion not found"
// @Router /conversions/{id} [get]
func (h *ConversionHandler) Get(c *gin.Context) {
	response, err := h.service.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Status handles GET /api/v1/conversions/:id/status
//
// @Summary Get conversion status with progress
// @Description Returns the record plus an advisory progress percentage and estimated completion time.
// @Tags conversions
// @Produce json
// @Param id path string true "Conversion ID"
// @Success 200 {object} dto.ConversionStatusResponse "Status with progress"
// @Failure 404 {object} errors.APIError "Conversion not found"
// @Router /conversions/{id}/status [get]
func (h *ConversionHandler) Status(c *gin.Context) {
	response, err := h.service.Status(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// List handles GET /api/v1/conversions
//
// @Summary List the caller's conversions
// @Tags conversions
// @Produce json
// @Param limit query int false "Items per page" default(20) minimum(1) maximum(100)
// @Param offset query int false "Offset" default(0) minimum(0)
// @Success 200 {array} dto.ConversionResponse "Conversions, newest first"
// @Router /conversions [get]
func (h *ConversionHandler) List(c *gin.Context) {
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

// Download handles GET /api/v1/conversions/:id/download
//
// @Summary Download the generated model artifact
// @Description Streams the print-ready artifact when one exists, otherwise the raw model.
// @Tags conversions
// @Produce octet-stream
// @Param id path string true "Conversion ID"
// @Success 200 {file} binary "Model artifact"
// @Failure 404 {object} errors.APIError "Conversion or artifact not found"
// @Failure 409 {object} errors.APIError "No artifact in current state"
// @Router /conversions/{id}/download [get]
func (h *ConversionHandler) Download(c *gin.Context) {
	data, fileName, err := h.service.Download(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// Action handles POST /api/v1/conversions/:id/actions
//
// @Summary Apply a lifecycle action
// @Description Applies retry (legal only from failed, does not consume quota) or cancel (legal only while in flight).
// @Tags conversions
// @Accept json
// @Produce json
// @Param id path string true "Conversion ID"
// @Param action body dto.ConversionActionRequest true "Action to apply"
// @Success 200 {object} dto.ConversionResponse "Updated conversion"
// @Failure 409 {object} errors.APIError "Action not legal in current state"
// @Router /conversions/{id}/actions [post]
func (h *ConversionHandler) Action(c *gin.Context) {
	var req dto.ConversionActionRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	userID := middleware.UserID(c)
	id := c.Param("id")

	var response *dto.ConversionResponse
	var err error
	switch req.NormalizeAction() {
	case "retry":
		response, err = h.service.Retry(c.Request.Context(), userID, id)
	case "cancel":
		response, err = h.service.Cancel(c.Request.Context(), userID, id)
	default:
		err = errors.NewBadRequestError("unknown action")
	}
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
