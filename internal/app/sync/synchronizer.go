package sync

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"printforge/internal/app/metrics"
	"printforge/internal/app/model"
	"printforge/internal/app/printer"
	"printforge/internal/app/repository"
)

const (
	defaultPollInterval = 15 * time.Second
	defaultMaxFailures  = 10
	queryTimeout        = 20 * time.Second
)

// Synchronizer is the pull half of status reconciliation. On a fixed interval
// it queries the print service for every tracked job and folds the answers
// through the shared reconciler, so polling can never disagree with webhooks
// about ordering.
type Synchronizer struct {
	store       repository.PrintJobStore
	client      printer.PrintServiceClient
	reconciler  Reconciler
	set         *PollingSet
	logger      *slog.Logger
	interval    time.Duration
	maxFailures int
}

// Reconciler is the subset of the shared reconciler the synchronizer needs.
type Reconciler interface {
	Apply(ctx context.Context, jobID string, report *printer.JobStatusReport, source string) (*printer.Outcome, error)
}

// NewSynchronizer wires the polling synchronizer. Interval and failure budget
// come from SYNC_INTERVAL_SEC and SYNC_MAX_FAILURES when set.
func NewSynchronizer(store repository.PrintJobStore, client printer.PrintServiceClient, reconciler Reconciler, logger *slog.Logger) *Synchronizer {
	interval := defaultPollInterval
	if v := os.Getenv("SYNC_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			interval = time.Duration(n) * time.Second
		}
	}
	maxFailures := defaultMaxFailures
	if v := os.Getenv("SYNC_MAX_FAILURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxFailures = n
		}
	}
	return &Synchronizer{
		store:       store,
		client:      client,
		reconciler:  reconciler,
		set:         NewPollingSet(),
		logger:      logger,
		interval:    interval,
		maxFailures: maxFailures,
	}
}

// Track adds a job to the polling set. Satisfies printer.JobTracker.
func (s *Synchronizer) Track(jobID string) {
	s.set.Add(jobID)
	s.logger.Debug("tracking job", "job_id", jobID, "set_size", s.set.Len())
}

// Set exposes the polling set for tests and the restart recovery path.
func (s *Synchronizer) Set() *PollingSet {
	return s.set
}

// Recover rebuilds the polling set from persisted in-flight jobs. Called once
// on startup so jobs submitted before a restart keep converging.
func (s *Synchronizer) Recover(ctx context.Context) error {
	jobs, err := s.store.ListInFlightPrintJobs(ctx)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if job.SubmittedAt != nil {
			s.set.Add(job.ID)
		}
	}
	s.logger.Info("polling set recovered", "jobs", s.set.Len())
	return nil
}

// Run polls until ctx is cancelled.
func (s *Synchronizer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Info("status synchronizer started", "interval", s.interval, "max_failures", s.maxFailures)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("status synchronizer stopped")
			return
		case <-ticker.C:
			s.Cycle(ctx)
		}
	}
}

// Cycle polls every tracked job once. Exported so tests and the recovery path
// can drive it without the ticker.
func (s *Synchronizer) Cycle(ctx context.Context) {
	for _, jobID := range s.set.Snapshot() {
		s.pollOne(ctx, jobID)
		if ctx.Err() != nil {
			return
		}
	}
	metrics.SyncCyclesTotal.Inc()
}

func (s *Synchronizer) pollOne(ctx context.Context, jobID string) {
	callCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	report, err := s.client.QueryStatus(callCtx, jobID)
	cancel()
	if err != nil {
		metrics.SyncPollErrorsTotal.Inc()
		failures := s.set.RecordFailure(jobID)
		s.logger.Warn("status poll failed", "job_id", jobID, "failures", failures, "error", err)
		if failures >= s.maxFailures {
			s.giveUp(ctx, jobID, failures)
		}
		return
	}

	s.set.ClearFailures(jobID)
	outcome, err := s.reconciler.Apply(ctx, jobID, report, "pull")
	if err != nil {
		s.logger.Error("poll reconciliation failed", "job_id", jobID, "error", err)
		return
	}
	if outcome.Status.Terminal() {
		s.set.Remove(jobID)
		s.logger.Info("job left polling set", "job_id", jobID, "status", outcome.Status)
	}
}

// giveUp marks a job failed after the consecutive failure budget is exhausted,
// so unreachable jobs cannot sit in a live-looking state forever.
func (s *Synchronizer) giveUp(ctx context.Context, jobID string, failures int) {
	report := &printer.JobStatusReport{
		Status:       model.JobFailed,
		ErrorMessage: "status synchronization timed out: print service unreachable",
	}
	if _, err := s.reconciler.Apply(ctx, jobID, report, "pull"); err != nil {
		s.logger.Error("failed to mark unreachable job failed", "job_id", jobID, "error", err)
		return
	}
	s.set.Remove(jobID)
	s.logger.Warn("job abandoned after repeated poll failures", "job_id", jobID, "failures", failures)
}
