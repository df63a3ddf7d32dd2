package repository

import (
	"time"

	"printforge/internal/app/model"
)

// ApplyConversionUpdate folds an update into an in-memory copy of a record.
// All store implementations use this so a transition writes the same final
// row regardless of backend.
func ApplyConversionUpdate(rec *model.ConversionRecord, u ConversionUpdate, now time.Time) {
	rec.Status = u.Status
	if u.Provider != nil {
		rec.Provider = *u.Provider
	}
	if u.ModelPath != nil {
		rec.ModelPath = *u.ModelPath
	}
	if u.PrintReadyPath != nil {
		rec.PrintReadyPath = *u.PrintReadyPath
	}
	if u.ExportPaths != nil {
		rec.ExportPaths = u.ExportPaths
	}
	if u.Meta != nil {
		rec.Meta = u.Meta
	}
	if u.EstimatedPrintMin != nil {
		rec.EstimatedPrintMin = *u.EstimatedPrintMin
	}
	if u.Error != nil {
		rec.Error = *u.Error
	}
	if u.IncrementRetry {
		rec.RetryCount++
	}
	if u.StartedAt != nil {
		rec.StartedAt = u.StartedAt
	}
	if u.CompletedAt != nil {
		rec.CompletedAt = u.CompletedAt
	}
	rec.UpdatedAt = now
}

// ApplyJobUpdate folds a status update into an in-memory copy of a print job.
func ApplyJobUpdate(job *model.PrintJob, u JobStatusUpdate, now time.Time) {
	job.Status = u.Status
	if u.Settings != nil {
		job.Settings = *u.Settings
	}
	if u.ServiceResponse != nil {
		job.ServiceResponse = *u.ServiceResponse
	}
	if u.Error != nil {
		job.Error = *u.Error
	}
	if u.EstimatedMinutes != nil {
		job.EstimatedMinutes = *u.EstimatedMinutes
	}
	if u.SubmittedAt != nil {
		job.SubmittedAt = u.SubmittedAt
	}
	if u.CompletedAt != nil {
		job.CompletedAt = u.CompletedAt
	}
	job.UpdatedAt = now
}
