package services

import (
	"context"

	"printforge/internal/api/v1/dto"
	"printforge/internal/app/printer"
)

// PrintJobServiceImpl adapts the printer service to the API DTOs.
type PrintJobServiceImpl struct {
	printer *printer.Service
}

// NewPrintJobService creates the print job service.
func NewPrintJobService(p *printer.Service) PrintJobService {
	return &PrintJobServiceImpl{printer: p}
}

// CreateAndSubmit registers a pending job and immediately submits it with the
// resolved settings. The one-call shape is what the frontend uses; the
// pending state still exists between the two steps so a crash leaves a
// resubmittable record instead of a half-submitted one.
func (s *PrintJobServiceImpl) CreateAndSubmit(ctx context.Context, userID string, req *dto.CreatePrintJobRequest) (*dto.PrintJobResponse, error) {
	job, err := s.printer.Create(ctx, userID, req.ConversionID)
	if err != nil {
		return nil, err
	}
	job, err = s.printer.Submit(ctx, job.ID, req.Settings)
	if err != nil {
		return nil, err
	}
	resp := dto.ToPrintJobResponse(job)
	return &resp, nil
}

func (s *PrintJobServiceImpl) Get(ctx context.Context, userID, id string) (*dto.PrintJobResponse, error) {
	job, err := s.printer.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToPrintJobResponse(job)
	return &resp, nil
}

func (s *PrintJobServiceImpl) List(ctx context.Context, userID string, q dto.ListQuery) ([]dto.PrintJobResponse, error) {
	jobs, err := s.printer.List(ctx, userID, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PrintJobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, dto.ToPrintJobResponse(&jobs[i]))
	}
	return out, nil
}

func (s *PrintJobServiceImpl) Reprint(ctx context.Context, userID, jobID string) (*dto.PrintJobResponse, error) {
	job, err := s.printer.Reprint(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	resp := dto.ToPrintJobResponse(job)
	return &resp, nil
}
