package memory

import (
	"context"
	"sync"
	"time"

	"printforge/internal/app/model"
	"printforge/internal/app/repository"
)

// MemoryStore implements repository.Store with in-process maps. It backs unit
// tests and local development without a database file.
type MemoryStore struct {
	mu          sync.Mutex
	conversions map[string]*model.ConversionRecord
	printJobs   map[string]*model.PrintJob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversions: make(map[string]*model.ConversionRecord),
		printJobs:   make(map[string]*model.PrintJob),
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) CreateConversion(ctx context.Context, rec *model.ConversionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.conversions[rec.ID] = &cp
	return nil
}

func (s *MemoryStore) GetConversion(ctx context.Context, id string) (*model.ConversionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.conversions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) ListConversionsByUser(ctx context.Context, userID string, limit, offset int) ([]model.ConversionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ConversionRecord, 0)
	for _, rec := range s.conversions {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return paginate(out, limit, offset), nil
}

func (s *MemoryStore) CompareAndSetConversionStatus(ctx context.Context, id string, expect model.ConversionStatus, update repository.ConversionUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.conversions[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if rec.Status != expect {
		return false, nil
	}
	repository.ApplyConversionUpdate(rec, update, time.Now().UTC())
	return true, nil
}

func (s *MemoryStore) FindStuckConversions(ctx context.Context, threshold time.Duration) ([]model.ConversionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-threshold)
	out := make([]model.ConversionRecord, 0)
	for _, rec := range s.conversions {
		if rec.Status == model.ConversionProcessing && rec.UpdatedAt.Before(cutoff) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreatePrintJob(ctx context.Context, job *model.PrintJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.printJobs[job.ID] = &cp
	return nil
}

func (s *MemoryStore) GetPrintJob(ctx context.Context, id string) (*model.PrintJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.printJobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) ListPrintJobsByUser(ctx context.Context, userID string, limit, offset int) ([]model.PrintJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PrintJob, 0)
	for _, job := range s.printJobs {
		if job.UserID == userID {
			out = append(out, *job)
		}
	}
	return paginate(out, limit, offset), nil
}

func (s *MemoryStore) ListInFlightPrintJobs(ctx context.Context) ([]model.PrintJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PrintJob, 0)
	for _, job := range s.printJobs {
		if !job.Status.Terminal() {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *MemoryStore) CompareAndSetJobStatus(ctx context.Context, id string, expect model.PrintJobStatus, update repository.JobStatusUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.printJobs[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if job.Status != expect {
		return false, nil
	}
	repository.ApplyJobUpdate(job, update, time.Now().UTC())
	return true, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
