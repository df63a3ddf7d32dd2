package printer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apierrors "printforge/internal/api/errors"
	"printforge/internal/app/metrics"
	"printforge/internal/app/model"
	"printforge/internal/app/repository"
	"printforge/internal/app/storage"
)

const submitTimeout = 60 * time.Second

// JobTracker receives job ids whose external progress must be watched. The
// synchronizer implements it; the indirection keeps this package free of the
// polling loop.
type JobTracker interface {
	Track(jobID string)
}

// Service drives print jobs through their lifecycle. Submission is the only
// caller-initiated transition; everything after slicing arrives from the
// print service through the reconciler.
type Service struct {
	store     repository.Store
	client    PrintServiceClient
	artifacts storage.ArtifactStore
	tracker   JobTracker
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the print job service.
func NewService(store repository.Store, client PrintServiceClient, artifacts storage.ArtifactStore, tracker JobTracker, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		client:    client,
		artifacts: artifacts,
		tracker:   tracker,
		logger:    logger,
		now:       time.Now,
	}
}

// Create registers a new pending job for a completed conversion's artifact.
func (s *Service) Create(ctx context.Context, userID, conversionID string) (*model.PrintJob, error) {
	conv, err := s.store.GetConversion(ctx, conversionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierrors.NewNotFoundError("conversion")
		}
		return nil, err
	}
	if conv.UserID != userID {
		return nil, apierrors.NewNotFoundError("conversion")
	}
	if conv.Status != model.ConversionCompleted || !conv.HasModelArtifact() {
		return nil, apierrors.NewInvalidStateError("create print job", string(conv.Status))
	}

	artifactPath := conv.PrintReadyPath
	if artifactPath == "" {
		artifactPath = conv.ModelPath
	}

	job := &model.PrintJob{
		ID:           uuid.New().String(),
		UserID:       userID,
		ConversionID: conversionID,
		Status:       model.JobPending,
		ArtifactPath: artifactPath,
		FileName:     conv.FileName,
		FileSize:     conv.FileSize,
		Settings:     model.DefaultPrintSettings(),
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}
	if conv.Meta != nil {
		job.EstimatedMinutes = conv.EstimatedPrintMin
	}
	if err := s.store.CreatePrintJob(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info("print job created", "job_id", job.ID, "conversion_id", conversionID, "user_id", userID)
	return job, nil
}

// Submit resolves the settings and hands the job to the print service. Only
// legal from pending; the pending to downloading compare-and-set guarantees a
// job is submitted at most once even under concurrent calls.
func (s *Service) Submit(ctx context.Context, jobID string, patch *model.PrintSettingsPatch) (*model.PrintJob, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobPending {
		return nil, apierrors.NewInvalidStateError("submit print job", string(job.Status))
	}

	settings := patch.ApplyTo(model.DefaultPrintSettings())
	submitted := s.now()
	ok, err := s.store.CompareAndSetJobStatus(ctx, jobID, model.JobPending, repository.JobStatusUpdate{
		Status:      model.JobDownloading,
		Settings:    &settings,
		SubmittedAt: &submitted,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		current, rerr := s.getJob(ctx, jobID)
		if rerr != nil {
			return nil, rerr
		}
		return nil, apierrors.NewInvalidStateError("submit print job", string(current.Status))
	}

	callCtx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()
	ack, err := s.client.Submit(callCtx, jobID, job.ArtifactPath, job.FileName, settings)
	if err != nil {
		s.failJob(ctx, jobID, model.JobDownloading, err.Error())
		return nil, apierrors.NewProviderError("print service submission failed")
	}

	update := repository.JobStatusUpdate{Status: model.JobSlicing}
	if ack.RawResponse != "" {
		update.ServiceResponse = &ack.RawResponse
	}
	if ack.EstimatedMinutes > 0 {
		update.EstimatedMinutes = &ack.EstimatedMinutes
	}
	if _, err := s.store.CompareAndSetJobStatus(ctx, jobID, model.JobDownloading, update); err != nil {
		return nil, err
	}
	metrics.PrintJobsTotal.WithLabelValues(string(model.JobSlicing)).Inc()
	if s.tracker != nil {
		s.tracker.Track(jobID)
	}
	s.logger.Info("print job submitted", "job_id", jobID, "external_id", ack.ExternalID,
		"material", settings.Material, "quality", settings.Quality)

	return s.getJob(ctx, jobID)
}

// Reprint creates a fresh pending job over the original job's artifact. The
// original record is never reused or mutated. Fails when the source artifact
// has been evicted from storage.
func (s *Service) Reprint(ctx context.Context, userID, originalJobID string) (*model.PrintJob, error) {
	original, err := s.getJob(ctx, originalJobID)
	if err != nil {
		return nil, err
	}
	if original.UserID != userID {
		return nil, apierrors.NewNotFoundError("print job")
	}

	exists, err := s.artifacts.Exists(ctx, original.ArtifactPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apierrors.NewNotFoundError("source artifact")
	}

	job := &model.PrintJob{
		ID:               uuid.New().String(),
		UserID:           userID,
		ConversionID:     original.ConversionID,
		Status:           model.JobPending,
		ArtifactPath:     original.ArtifactPath,
		FileName:         original.FileName,
		FileSize:         original.FileSize,
		Settings:         original.Settings,
		EstimatedMinutes: original.EstimatedMinutes,
		CreatedAt:        s.now(),
		UpdatedAt:        s.now(),
	}
	if err := s.store.CreatePrintJob(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info("reprint job created", "job_id", job.ID, "original_job_id", originalJobID)
	return job, nil
}

// Get returns the job, scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, jobID string) (*model.PrintJob, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, apierrors.NewNotFoundError("print job")
	}
	return job, nil
}

// List returns the user's jobs, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]model.PrintJob, error) {
	return s.store.ListPrintJobsByUser(ctx, userID, limit, offset)
}

func (s *Service) getJob(ctx context.Context, jobID string) (*model.PrintJob, error) {
	job, err := s.store.GetPrintJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierrors.NewNotFoundError("print job")
		}
		return nil, err
	}
	return job, nil
}

func (s *Service) failJob(ctx context.Context, jobID string, expect model.PrintJobStatus, msg string) {
	done := s.now()
	_, err := s.store.CompareAndSetJobStatus(ctx, jobID, expect, repository.JobStatusUpdate{
		Status:      model.JobFailed,
		Error:       &msg,
		CompletedAt: &done,
	})
	if err != nil {
		s.logger.Error("failed to mark job failed", "job_id", jobID, "error", err)
		return
	}
	metrics.PrintJobsTotal.WithLabelValues(string(model.JobFailed)).Inc()
}
