package printer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"printforge/internal/app/metrics"
	"printforge/internal/app/model"
	"printforge/internal/app/repository"
)

const maxReconcileAttempts = 5

// Outcome says what a reconciliation attempt did to the stored job.
type Outcome struct {
	Applied bool
	Status  model.PrintJobStatus
}

// Reconciler applies externally reported job statuses to the store. Both the
// polling synchronizer and the webhook ingestor funnel through Apply, so a
// status observed on either path can never move a job backwards.
type Reconciler struct {
	store  repository.PrintJobStore
	logger *slog.Logger
	now    func() time.Time
}

// NewReconciler creates a reconciler over the given job store.
func NewReconciler(store repository.PrintJobStore, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger, now: time.Now}
}

// Apply folds one reported status into the stored job. A report that is not
// strictly later than the stored status (and not an absorbing failure or
// cancellation) is discarded as stale, which makes redelivery and the
// poll/webhook race idempotent. The conditional write is retried a few times
// when a concurrent reconciliation moves the job first.
func (r *Reconciler) Apply(ctx context.Context, jobID string, report *JobStatusReport, source string) (*Outcome, error) {
	for attempt := 0; attempt < maxReconcileAttempts; attempt++ {
		job, err := r.store.GetPrintJob(ctx, jobID)
		if err != nil {
			return nil, err
		}

		if !model.ShouldApply(job.Status, report.Status) {
			metrics.ReconciliationsTotal.WithLabelValues(source, "stale").Inc()
			r.logger.Debug("discarded stale status report",
				"job_id", jobID, "source", source,
				"current", job.Status, "incoming", report.Status)
			return &Outcome{Applied: false, Status: job.Status}, nil
		}

		update := repository.JobStatusUpdate{Status: report.Status}
		if report.RawResponse != "" {
			update.ServiceResponse = &report.RawResponse
		}
		if report.EstimatedMinutes > 0 {
			update.EstimatedMinutes = &report.EstimatedMinutes
		}
		if report.Status == model.JobFailed {
			msg := report.ErrorMessage
			if msg == "" {
				msg = "print service reported failure without detail"
			}
			update.Error = &msg
		}
		if report.Status.Terminal() {
			done := r.now()
			update.CompletedAt = &done
		}

		ok, err := r.store.CompareAndSetJobStatus(ctx, jobID, job.Status, update)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost the race against another reconciliation, re-read and retry.
			continue
		}

		metrics.ReconciliationsTotal.WithLabelValues(source, "applied").Inc()
		metrics.PrintJobsTotal.WithLabelValues(string(report.Status)).Inc()
		r.logger.Info("job status reconciled",
			"job_id", jobID, "source", source,
			"from", job.Status, "to", report.Status)
		return &Outcome{Applied: true, Status: report.Status}, nil
	}
	return nil, fmt.Errorf("gave up reconciling job %s after %d contended attempts", jobID, maxReconcileAttempts)
}
