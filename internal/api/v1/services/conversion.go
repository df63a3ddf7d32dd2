package services

import (
	"context"

	"printforge/internal/api/v1/dto"
	"printforge/internal/app/converter"
)

// ConversionServiceImpl adapts the orchestrator to the API DTOs.
type ConversionServiceImpl struct {
	orchestrator *converter.Orchestrator
}

// NewConversionService creates the conversion service.
func NewConversionService(orchestrator *converter.Orchestrator) ConversionService {
	return &ConversionServiceImpl{orchestrator: orchestrator}
}

func (s *ConversionServiceImpl) Create(ctx context.Context, userID string, image []byte, fileName, description string) (*dto.ConversionResponse, error) {
	rec, err := s.orchestrator.Start(ctx, &converter.StartRequest{
		UserID:      userID,
		Image:       image,
		FileName:    fileName,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	resp := dto.ToConversionResponse(rec)
	return &resp, nil
}

func (s *ConversionServiceImpl) Get(ctx context.Context, userID, id string) (*dto.ConversionResponse, error) {
	rec, err := s.orchestrator.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToConversionResponse(rec)
	return &resp, nil
}

func (s *ConversionServiceImpl) Status(ctx context.Context, userID, id string) (*dto.ConversionStatusResponse, error) {
	view, err := s.orchestrator.Status(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &dto.ConversionStatusResponse{
		ConversionResponse:  dto.ToConversionResponse(view.Conversion),
		ProgressPercent:     view.ProgressPercent,
		EstimatedCompletion: view.EstimatedCompletion,
	}, nil
}

func (s *ConversionServiceImpl) List(ctx context.Context, userID string, q dto.ListQuery) ([]dto.ConversionResponse, error) {
	records, err := s.orchestrator.List(ctx, userID, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ConversionResponse, 0, len(records))
	for i := range records {
		out = append(out, dto.ToConversionResponse(&records[i]))
	}
	return out, nil
}

func (s *ConversionServiceImpl) Retry(ctx context.Context, userID, id string) (*dto.ConversionResponse, error) {
	rec, err := s.orchestrator.Retry(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToConversionResponse(rec)
	return &resp, nil
}

func (s *ConversionServiceImpl) Download(ctx context.Context, userID, id string) ([]byte, string, error) {
	return s.orchestrator.Download(ctx, userID, id)
}

func (s *ConversionServiceImpl) Cancel(ctx context.Context, userID, id string) (*dto.ConversionResponse, error) {
	rec, err := s.orchestrator.Cancel(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToConversionResponse(rec)
	return &resp, nil
}
