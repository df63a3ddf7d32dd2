package dto

import (
	"strings"
	"time"

	"printforge/internal/api/errors"
	"printforge/internal/app/model"
)

// CreateConversionRequest is the multipart form accompanying an image upload.
type CreateConversionRequest struct {
	Description string `form:"description" json:"description"`
}

// Validate enforces domain rules beyond binding tags.
func (r *CreateConversionRequest) Validate() error {
	if len(r.Description) > model.MaxDescriptionLength {
		return errors.NewValidationError("description too long", map[string]string{
			"description": "must be at most 500 characters",
		})
	}
	return nil
}

// ConversionActionRequest names the lifecycle action to apply.
type ConversionActionRequest struct {
	Action string `json:"action" binding:"required,oneof=retry cancel"`
}

// ConversionResponse is the API shape of one conversion record.
type ConversionResponse struct {
	ID                string                `json:"id"`
	Status            string                `json:"status"`
	Description       string                `json:"description,omitempty"`
	FileName          string                `json:"file_name"`
	FileSize          int64                 `json:"file_size"`
	Provider          string                `json:"provider,omitempty"`
	ModelPath         string                `json:"model_path,omitempty"`
	Meta              *model.ModelMetadata  `json:"meta,omitempty"`
	EstimatedPrintMin int                   `json:"estimated_print_min,omitempty"`
	Error             string                `json:"error,omitempty"`
	RetryCount        int                   `json:"retry_count"`
	CreatedAt         time.Time             `json:"created_at"`
	StartedAt         *time.Time            `json:"started_at,omitempty"`
	CompletedAt       *time.Time            `json:"completed_at,omitempty"`
}

// ConversionStatusResponse adds progress to the record view.
type ConversionStatusResponse struct {
	ConversionResponse
	ProgressPercent     int        `json:"progress_percent"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
}

// ToConversionResponse maps the domain record to its API shape.
func ToConversionResponse(rec *model.ConversionRecord) ConversionResponse {
	return ConversionResponse{
		ID:                rec.ID,
		Status:            string(rec.Status),
		Description:       rec.Description,
		FileName:          rec.FileName,
		FileSize:          rec.FileSize,
		Provider:          rec.Provider,
		ModelPath:         rec.ModelPath,
		Meta:              rec.Meta,
		EstimatedPrintMin: rec.EstimatedPrintMin,
		Error:             rec.Error,
		RetryCount:        rec.RetryCount,
		CreatedAt:         rec.CreatedAt,
		StartedAt:         rec.StartedAt,
		CompletedAt:       rec.CompletedAt,
	}
}

// NormalizeAction lowercases and trims the action name.
func (r *ConversionActionRequest) NormalizeAction() string {
	return strings.ToLower(strings.TrimSpace(r.Action))
}

// ListQuery is the shared pagination query.
type ListQuery struct {
	Limit  int `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"omitempty,min=0"`
}
