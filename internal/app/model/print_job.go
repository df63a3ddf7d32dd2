package model

import (
	"time"
)

// PrintSettings are the fully resolved fabrication parameters. Every field is
// populated before a job may be submitted to the print service.
type PrintSettings struct {
	Material      string  `json:"material"`
	Quality       string  `json:"quality"`
	InfillPercent int     `json:"infill_percent"`
	Supports      bool    `json:"supports"`
	LayerHeightMM float64 `json:"layer_height_mm"`
	SpeedMMS      int     `json:"speed_mms"`
	BedTempC      int     `json:"bed_temp_c"`
	NozzleTempC   int     `json:"nozzle_temp_c"`
}

// DefaultPrintSettings returns the documented defaults applied when the
// caller leaves a field unset.
func DefaultPrintSettings() PrintSettings {
	return PrintSettings{
		Material:      "PLA",
		Quality:       "standard",
		InfillPercent: 20,
		Supports:      false,
		LayerHeightMM: 0.2,
		SpeedMMS:      50,
		BedTempC:      60,
		NozzleTempC:   210,
	}
}

// PrintSettingsPatch carries caller overrides. Nil fields keep the default;
// overrides win field-by-field.
type PrintSettingsPatch struct {
	Material      *string  `json:"material,omitempty"`
	Quality       *string  `json:"quality,omitempty"`
	InfillPercent *int     `json:"infill_percent,omitempty"`
	Supports      *bool    `json:"supports,omitempty"`
	LayerHeightMM *float64 `json:"layer_height_mm,omitempty"`
	SpeedMMS      *int     `json:"speed_mms,omitempty"`
	BedTempC      *int     `json:"bed_temp_c,omitempty"`
	NozzleTempC   *int     `json:"nozzle_temp_c,omitempty"`
}

// ApplyTo merges the patch over base and returns the resolved settings.
func (p *PrintSettingsPatch) ApplyTo(base PrintSettings) PrintSettings {
	if p == nil {
		return base
	}
	if p.Material != nil {
		base.Material = *p.Material
	}
	if p.Quality != nil {
		base.Quality = *p.Quality
	}
	if p.InfillPercent != nil {
		base.InfillPercent = *p.InfillPercent
	}
	if p.Supports != nil {
		base.Supports = *p.Supports
	}
	if p.LayerHeightMM != nil {
		base.LayerHeightMM = *p.LayerHeightMM
	}
	if p.SpeedMMS != nil {
		base.SpeedMMS = *p.SpeedMMS
	}
	if p.BedTempC != nil {
		base.BedTempC = *p.BedTempC
	}
	if p.NozzleTempC != nil {
		base.NozzleTempC = *p.NozzleTempC
	}
	return base
}

// PrintJob represents one request to fabricate a physical object.
// Resubmission always creates a fresh record; the reprint flow reuses the
// source artifact path under a new id.
type PrintJob struct {
	ID               string         `json:"id" db:"id"`
	UserID           string         `json:"user_id" db:"user_id"`
	ConversionID     string         `json:"conversion_id" db:"conversion_id"`
	Status           PrintJobStatus `json:"status" db:"status"`
	ArtifactPath     string         `json:"artifact_path" db:"artifact_path"`
	FileName         string         `json:"file_name" db:"file_name"`
	FileSize         int64          `json:"file_size" db:"file_size"`
	Settings         PrintSettings  `json:"settings" db:"settings"`
	ServiceResponse  string         `json:"service_response" db:"service_response"`
	Error            string         `json:"error" db:"error"`
	EstimatedMinutes int            `json:"estimated_minutes" db:"estimated_minutes"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
	SubmittedAt      *time.Time     `json:"submitted_at" db:"submitted_at"`
	CompletedAt      *time.Time     `json:"completed_at" db:"completed_at"`
}

// TableName returns the table name for PrintJob
func (PrintJob) TableName() string {
	return "print_jobs"
}
