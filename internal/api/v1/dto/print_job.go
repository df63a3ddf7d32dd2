package dto

import (
	"time"

	"printforge/internal/api/errors"
	"printforge/internal/app/model"
)

// CreatePrintJobRequest starts a print job for a completed conversion. The
// settings block is optional; unset fields take the documented defaults.
type CreatePrintJobRequest struct {
	ConversionID string                    `json:"conversion_id" binding:"required"`
	Settings     *model.PrintSettingsPatch `json:"settings"`
}

// Validate enforces the closed sets behind the settings patch.
func (r *CreatePrintJobRequest) Validate() error {
	return validateSettingsPatch(r.Settings)
}

// ReprintRequest creates a fresh job over an existing job's artifact.
type ReprintRequest struct {
	JobID string `json:"job_id" binding:"required"`
}

// PrintJobResponse is the API shape of one print job.
type PrintJobResponse struct {
	ID               string              `json:"id"`
	ConversionID     string              `json:"conversion_id"`
	Status           string              `json:"status"`
	FileName         string              `json:"file_name"`
	Settings         model.PrintSettings `json:"settings"`
	Error            string              `json:"error,omitempty"`
	EstimatedMinutes int                 `json:"estimated_minutes,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	SubmittedAt      *time.Time          `json:"submitted_at,omitempty"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
}

// ToPrintJobResponse maps the domain job to its API shape.
func ToPrintJobResponse(job *model.PrintJob) PrintJobResponse {
	return PrintJobResponse{
		ID:               job.ID,
		ConversionID:     job.ConversionID,
		Status:           string(job.Status),
		FileName:         job.FileName,
		Settings:         job.Settings,
		Error:            job.Error,
		EstimatedMinutes: job.EstimatedMinutes,
		CreatedAt:        job.CreatedAt,
		SubmittedAt:      job.SubmittedAt,
		CompletedAt:      job.CompletedAt,
	}
}

var validMaterials = map[string]bool{"PLA": true, "ABS": true, "PETG": true, "TPU": true, "resin": true}
var validQualities = map[string]bool{"draft": true, "standard": true, "high": true}

func validateSettingsPatch(p *model.PrintSettingsPatch) error {
	if p == nil {
		return nil
	}
	fields := make(map[string]string)
	if p.Material != nil && !validMaterials[*p.Material] {
		fields["material"] = "must be one of PLA, ABS, PETG, TPU, resin"
	}
	if p.Quality != nil && !validQualities[*p.Quality] {
		fields["quality"] = "must be one of draft, standard, high"
	}
	if p.InfillPercent != nil && (*p.InfillPercent < 0 || *p.InfillPercent > 100) {
		fields["infill_percent"] = "must be between 0 and 100"
	}
	if p.LayerHeightMM != nil && (*p.LayerHeightMM < 0.05 || *p.LayerHeightMM > 1.0) {
		fields["layer_height_mm"] = "must be between 0.05 and 1.0"
	}
	if p.SpeedMMS != nil && (*p.SpeedMMS < 10 || *p.SpeedMMS > 300) {
		fields["speed_mms"] = "must be between 10 and 300"
	}
	if len(fields) > 0 {
		return errors.NewValidationError("invalid print settings", fields)
	}
	return nil
}
