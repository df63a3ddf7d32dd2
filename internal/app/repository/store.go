package repository

import (
	"context"
	"errors"
	"time"

	"printforge/internal/app/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ConversionUpdate carries the fields mutated by a conversion transition.
// Nil pointers leave the stored value untouched.
type ConversionUpdate struct {
	Status            model.ConversionStatus
	Provider          *string
	ModelPath         *string
	PrintReadyPath    *string
	ExportPaths       map[string]string
	Meta              *model.ModelMetadata
	EstimatedPrintMin *int
	Error             *string
	IncrementRetry    bool
	StartedAt         *time.Time
	CompletedAt       *time.Time
}

// JobStatusUpdate carries the fields mutated by a print job transition.
type JobStatusUpdate struct {
	Status           model.PrintJobStatus
	Settings         *model.PrintSettings
	ServiceResponse  *string
	Error            *string
	EstimatedMinutes *int
	SubmittedAt      *time.Time
	CompletedAt      *time.Time
}

// ConversionStore persists conversion records
type ConversionStore interface {
	CreateConversion(ctx context.Context, rec *model.ConversionRecord) error
	GetConversion(ctx context.Context, id string) (*model.ConversionRecord, error)
	ListConversionsByUser(ctx context.Context, userID string, limit, offset int) ([]model.ConversionRecord, error)

	// CompareAndSetConversionStatus applies the update only if the stored
	// status still equals expect. Returns false without error when the guard
	// fails, so callers can re-read and decide again.
	CompareAndSetConversionStatus(ctx context.Context, id string, expect model.ConversionStatus, update ConversionUpdate) (bool, error)

	// FindStuckConversions returns records sitting in processing longer than
	// threshold. A non-empty result is an invariant violation to alert on.
	FindStuckConversions(ctx context.Context, threshold time.Duration) ([]model.ConversionRecord, error)
}

// PrintJobStore persists print jobs
type PrintJobStore interface {
	CreatePrintJob(ctx context.Context, job *model.PrintJob) error
	GetPrintJob(ctx context.Context, id string) (*model.PrintJob, error)
	ListPrintJobsByUser(ctx context.Context, userID string, limit, offset int) ([]model.PrintJob, error)

	// ListInFlightPrintJobs returns jobs in any non-terminal state, used to
	// rebuild the synchronizer's polling set after a restart.
	ListInFlightPrintJobs(ctx context.Context) ([]model.PrintJob, error)

	// CompareAndSetJobStatus applies the update only if the stored status
	// still equals expect. This is the linearization point for the pull and
	// push reconciliation paths.
	CompareAndSetJobStatus(ctx context.Context, id string, expect model.PrintJobStatus, update JobStatusUpdate) (bool, error)
}

// Store is the single persisted source of truth shared by the orchestrator,
// the synchronizer and the webhook ingestor.
type Store interface {
	ConversionStore
	PrintJobStore
	Close() error
}
