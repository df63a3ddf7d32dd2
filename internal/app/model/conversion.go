package model

import (
	"time"
)

// MaxDescriptionLength bounds the optional user-supplied description.
const MaxDescriptionLength = 500

// ModelMetadata describes the generated 3D model
type ModelMetadata struct {
	VertexCount int     `json:"vertex_count"`
	FaceCount   int     `json:"face_count"`
	WidthMM     float64 `json:"width_mm"`
	DepthMM     float64 `json:"depth_mm"`
	HeightMM    float64 `json:"height_mm"`
}

// ConversionRecord represents one image-to-3D-model request
type ConversionRecord struct {
	ID                string            `json:"id" db:"id"`
	UserID            string            `json:"user_id" db:"user_id"`
	Status            ConversionStatus  `json:"status" db:"status"`
	Description       string            `json:"description" db:"description"`
	FileName          string            `json:"file_name" db:"file_name"`
	FileSize          int64             `json:"file_size" db:"file_size"`
	Provider          string            `json:"provider" db:"provider"`
	ImagePath         string            `json:"image_path" db:"image_path"`
	ModelPath         string            `json:"model_path" db:"model_path"`
	PrintReadyPath    string            `json:"print_ready_path" db:"print_ready_path"`
	ExportPaths       map[string]string `json:"export_paths" db:"export_paths"`
	Meta              *ModelMetadata    `json:"meta" db:"meta"`
	EstimatedPrintMin int               `json:"estimated_print_min" db:"estimated_print_min"`
	Error             string            `json:"error" db:"error"`
	RetryCount        int               `json:"retry_count" db:"retry_count"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
	StartedAt         *time.Time        `json:"started_at" db:"started_at"`
	CompletedAt       *time.Time        `json:"completed_at" db:"completed_at"`
}

// TableName returns the table name for ConversionRecord
func (ConversionRecord) TableName() string {
	return "conversions"
}

// HasModelArtifact reports whether at least one derived model artifact exists.
// A completed record without one is an invariant violation.
func (c *ConversionRecord) HasModelArtifact() bool {
	return c.ModelPath != "" || c.PrintReadyPath != "" || len(c.ExportPaths) > 0
}
