package services

import (
	"context"
	"io"

	"printforge/internal/api/v1/dto"
	"printforge/internal/app/api/provider"
)

// ConversionService exposes the conversion lifecycle to the API layer.
type ConversionService interface {
	Create(ctx context.Context, userID string, image []byte, fileName, description string) (*dto.ConversionResponse, error)
	Get(ctx context.Context, userID, id string) (*dto.ConversionResponse, error)
	Status(ctx context.Context, userID, id string) (*dto.ConversionStatusResponse, error)
	List(ctx context.Context, userID string, q dto.ListQuery) ([]dto.ConversionResponse, error)
	Retry(ctx context.Context, userID, id string) (*dto.ConversionResponse, error)
	Cancel(ctx context.Context, userID, id string) (*dto.ConversionResponse, error)
	Download(ctx context.Context, userID, id string) ([]byte, string, error)
}

// PrintJobService exposes the print job lifecycle to the API layer.
type PrintJobService interface {
	CreateAndSubmit(ctx context.Context, userID string, req *dto.CreatePrintJobRequest) (*dto.PrintJobResponse, error)
	Get(ctx context.Context, userID, id string) (*dto.PrintJobResponse, error)
	List(ctx context.Context, userID string, q dto.ListQuery) ([]dto.PrintJobResponse, error)
	Reprint(ctx context.Context, userID, jobID string) (*dto.PrintJobResponse, error)
}

// QuotaService exposes usage counters and tier administration.
type QuotaService interface {
	Usage(ctx context.Context, userID string) (*dto.UsageResponse, error)
	UpgradeTier(ctx context.Context, userID, tier string) error
	ResetLimits(ctx context.Context, userID string) error
}

// ProviderService exposes registered provider info and health.
type ProviderService interface {
	List(ctx context.Context) []dto.ProviderResponse
	Stats(name string) (*dto.ProviderStatsResponse, error)
	HealthCheck(ctx context.Context) map[string]error
}

// ExportService streams user records in a chosen format.
type ExportService interface {
	Export(ctx context.Context, userID string, q dto.ExportQuery, w io.Writer) error
}

// ProviderRegistry re-exported for wiring convenience.
type ProviderRegistry = provider.Registry
