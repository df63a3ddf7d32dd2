package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"

	apierrors "printforge/internal/api/errors"
	"printforge/internal/app/metrics"
	"printforge/internal/app/model"
	"printforge/internal/app/printer"
	"printforge/internal/app/repository"
)

// Payload is the document the print service posts on every status change.
type Payload struct {
	Event  string     `json:"event"`
	JobID  string     `json:"job_id"`
	Status string     `json:"status"`
	Job    JobDetails `json:"job"`
}

// JobDetails carries the optional per-status detail block.
type JobDetails struct {
	ErrorMessage         string `json:"error_message,omitempty"`
	PrintServiceResponse string `json:"print_service_response,omitempty"`
	EstimatedMinutes     int    `json:"estimated_minutes,omitempty"`
}

// Result tells the HTTP handler what to acknowledge.
type Result struct {
	Outcome string `json:"outcome"`
	JobID   string `json:"job_id,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Ingestor is the push half of status reconciliation. Deliveries fold through
// the same reconciler as the polling path; signature failures and unknown
// jobs are acknowledged rather than retried, since the poller will converge
// on the truth anyway.
type Ingestor struct {
	reconciler Reconciler
	secret     string
	strict     bool
	logger     *slog.Logger
}

// Reconciler is the subset of the shared reconciler the ingestor needs.
type Reconciler interface {
	Apply(ctx context.Context, jobID string, report *printer.JobStatusReport, source string) (*printer.Outcome, error)
}

// NewIngestor wires the webhook ingestor. The signing secret comes from
// WEBHOOK_SECRET; when it is unset deliveries are accepted unsigned.
// WEBHOOK_STRICT_SIGNATURE=true turns signature failures into 401s instead of
// logged acknowledgements.
func NewIngestor(reconciler Reconciler, logger *slog.Logger) *Ingestor {
	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		logger.Warn("WEBHOOK_SECRET is not set, accepting unsigned webhook deliveries")
	}
	return &Ingestor{
		reconciler: reconciler,
		secret:     secret,
		strict:     strings.EqualFold(os.Getenv("WEBHOOK_STRICT_SIGNATURE"), "true"),
		logger:     logger,
	}
}

// Ingest validates and applies one delivery. The returned APIError is only
// non-nil when the caller should answer with an error status; every other
// outcome is a 200 acknowledgement with the Result explaining what happened.
func (i *Ingestor) Ingest(ctx context.Context, body []byte, signature string) (*Result, *apierrors.APIError) {
	if i.secret != "" && !Verify(i.secret, body, signature) {
		metrics.WebhookDeliveriesTotal.WithLabelValues("invalid_signature").Inc()
		if i.strict {
			return nil, apierrors.NewInvalidSignatureError()
		}
		i.logger.Warn("webhook signature verification failed, acknowledging anyway")
		return &Result{Outcome: "invalid_signature"}, nil
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("invalid_payload").Inc()
		return nil, apierrors.NewBadRequestError("malformed webhook payload")
	}
	if payload.Event != "job_status_update" || payload.JobID == "" {
		metrics.WebhookDeliveriesTotal.WithLabelValues("invalid_payload").Inc()
		return nil, apierrors.NewBadRequestError("unsupported webhook event")
	}

	status := model.PrintJobStatus(strings.ToLower(payload.Status))
	if !status.Valid() {
		metrics.WebhookDeliveriesTotal.WithLabelValues("invalid_payload").Inc()
		return nil, apierrors.NewBadRequestError("unknown job status in webhook payload")
	}

	report := &printer.JobStatusReport{
		Status:           status,
		ErrorMessage:     payload.Job.ErrorMessage,
		EstimatedMinutes: payload.Job.EstimatedMinutes,
		RawResponse:      payload.Job.PrintServiceResponse,
	}

	outcome, err := i.reconciler.Apply(ctx, payload.JobID, report, "push")
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Deliveries for jobs this instance never created are logged and
			// acknowledged so the service does not retry them forever.
			metrics.WebhookDeliveriesTotal.WithLabelValues("unknown_job").Inc()
			i.logger.Warn("webhook for unknown job", "job_id", payload.JobID, "status", status)
			return &Result{Outcome: "unknown_job", JobID: payload.JobID}, nil
		}
		return nil, apierrors.NewInternalError("failed to apply webhook update")
	}

	if outcome.Applied {
		metrics.WebhookDeliveriesTotal.WithLabelValues("applied").Inc()
		return &Result{Outcome: "applied", JobID: payload.JobID, Status: string(outcome.Status)}, nil
	}
	metrics.WebhookDeliveriesTotal.WithLabelValues("stale").Inc()
	return &Result{Outcome: "stale", JobID: payload.JobID, Status: string(outcome.Status)}, nil
}
