package services

import (
	"context"
	"fmt"
	"io"

	"printforge/internal/api/v1/dto"
	"printforge/internal/app/export"
	"printforge/internal/app/repository"
)

// ExportServiceImpl streams a user's records through the export encoders.
type ExportServiceImpl struct {
	store repository.Store
}

// NewExportService creates the export service.
func NewExportService(store repository.Store) ExportService {
	return &ExportServiceImpl{store: store}
}

func (s *ExportServiceImpl) Export(ctx context.Context, userID string, q dto.ExportQuery, w io.Writer) error {
	switch q.Kind {
	case "print_jobs":
		jobs, err := s.store.ListPrintJobsByUser(ctx, userID, q.Limit, 0)
		if err != nil {
			return fmt.Errorf("failed to fetch print jobs: %w", err)
		}
		return export.PrintJobs(jobs, q.Format, w)
	default:
		records, err := s.store.ListConversionsByUser(ctx, userID, q.Limit, 0)
		if err != nil {
			return fmt.Errorf("failed to fetch conversions: %w", err)
		}
		return export.Conversions(records, q.Format, w)
	}
}
