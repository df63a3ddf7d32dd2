package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "printforge/internal/api/errors"
	"printforge/internal/app/model"
	"printforge/internal/app/printer"
	"printforge/internal/app/repository/memory"
)

const testSecret = "whsec_test"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestIngestor(t *testing.T, store *memory.MemoryStore) *Ingestor {
	t.Helper()
	t.Setenv("WEBHOOK_SECRET", testSecret)
	return NewIngestor(printer.NewReconciler(store, testLogger()), testLogger())
}

func seedJob(t *testing.T, store *memory.MemoryStore, status model.PrintJobStatus) {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.CreatePrintJob(context.Background(), &model.PrintJob{
		ID:          "job-1",
		UserID:      "user-1",
		Status:      status,
		Settings:    model.DefaultPrintSettings(),
		CreatedAt:   now,
		SubmittedAt: &now,
	}))
}

func signedBody(t *testing.T, payload Payload) ([]byte, string) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body, Sign(testSecret, body)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	body := []byte(`{"event":"job_status_update"}`)

	sig := Sign(testSecret, body)
	assert.True(t, Verify(testSecret, body, sig))
	assert.False(t, Verify(testSecret, []byte("tampered"), sig))
	assert.False(t, Verify("other-secret", body, sig))
	assert.False(t, Verify(testSecret, body, ""))
	assert.False(t, Verify("", body, sig), "Verify itself demands a configured secret")
}

func TestIngestUnsignedWhenNoSecretConfigured(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobPrinting)
	t.Setenv("WEBHOOK_SECRET", "")
	ing := NewIngestor(printer.NewReconciler(store, testLogger()), testLogger())

	body, err := json.Marshal(Payload{Event: "job_status_update", JobID: "job-1", Status: "complete"})
	require.NoError(t, err)

	res, apiErr := ing.Ingest(context.Background(), body, "")
	require.Nil(t, apiErr)
	assert.Equal(t, "applied", res.Outcome)

	job, err := store.GetPrintJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobComplete, job.Status, "unsigned deliveries apply when no secret is configured")
}

func TestIngestAppliesUpdate(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobSlicing)
	ing := newTestIngestor(t, store)

	body, sig := signedBody(t, Payload{
		Event:  "job_status_update",
		JobID:  "job-1",
		Status: "printing",
		Job:    JobDetails{EstimatedMinutes: 45},
	})

	res, apiErr := ing.Ingest(context.Background(), body, sig)
	require.Nil(t, apiErr)
	assert.Equal(t, "applied", res.Outcome)
	assert.Equal(t, "printing", res.Status)

	job, err := store.GetPrintJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobPrinting, job.Status)
	assert.Equal(t, 45, job.EstimatedMinutes)
}

func TestIngestDuplicateDeliveryIsStale(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobSlicing)
	ing := newTestIngestor(t, store)

	body, sig := signedBody(t, Payload{Event: "job_status_update", JobID: "job-1", Status: "printing"})

	first, apiErr := ing.Ingest(context.Background(), body, sig)
	require.Nil(t, apiErr)
	assert.Equal(t, "applied", first.Outcome)

	second, apiErr := ing.Ingest(context.Background(), body, sig)
	require.Nil(t, apiErr)
	assert.Equal(t, "stale", second.Outcome)

	job, err := store.GetPrintJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobPrinting, job.Status)
}

func TestIngestBadSignatureAcknowledged(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobSlicing)
	ing := newTestIngestor(t, store)

	body, _ := signedBody(t, Payload{Event: "job_status_update", JobID: "job-1", Status: "printing"})

	res, apiErr := ing.Ingest(context.Background(), body, "deadbeef")
	require.Nil(t, apiErr)
	assert.Equal(t, "invalid_signature", res.Outcome)

	job, err := store.GetPrintJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobSlicing, job.Status, "unverified payloads never touch state")
}

func TestIngestBadSignatureStrictMode(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobSlicing)
	t.Setenv("WEBHOOK_SECRET", testSecret)
	t.Setenv("WEBHOOK_STRICT_SIGNATURE", "true")
	ing := NewIngestor(printer.NewReconciler(store, testLogger()), testLogger())

	body, _ := signedBody(t, Payload{Event: "job_status_update", JobID: "job-1", Status: "printing"})

	_, apiErr := ing.Ingest(context.Background(), body, "deadbeef")
	require.NotNil(t, apiErr)
	assert.Equal(t, apierrors.KindInvalidSignature, apiErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatus())
}

func TestIngestUnknownJobAcknowledged(t *testing.T) {
	ing := newTestIngestor(t, memory.NewMemoryStore())

	body, sig := signedBody(t, Payload{Event: "job_status_update", JobID: "ghost", Status: "printing"})

	res, apiErr := ing.Ingest(context.Background(), body, sig)
	require.Nil(t, apiErr)
	assert.Equal(t, "unknown_job", res.Outcome)
	assert.Equal(t, "ghost", res.JobID)
}

func TestIngestRejectsMalformedPayloads(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobSlicing)
	ing := newTestIngestor(t, store)

	tests := []struct {
		name string
		body []byte
	}{
		{"not json", []byte("{{")},
		{"wrong event", mustMarshal(t, Payload{Event: "job_created", JobID: "job-1", Status: "printing"})},
		{"missing job id", mustMarshal(t, Payload{Event: "job_status_update", Status: "printing"})},
		{"unknown status", mustMarshal(t, Payload{Event: "job_status_update", JobID: "job-1", Status: "melting"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, apiErr := ing.Ingest(context.Background(), tt.body, Sign(testSecret, tt.body))
			require.NotNil(t, apiErr)
			assert.Equal(t, apierrors.KindBadRequest, apiErr.Kind)
		})
	}
}

func TestIngestFailureCarriesMessage(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobPrinting)
	ing := newTestIngestor(t, store)

	body, sig := signedBody(t, Payload{
		Event:  "job_status_update",
		JobID:  "job-1",
		Status: "failed",
		Job:    JobDetails{ErrorMessage: "filament runout on extruder 1"},
	})

	res, apiErr := ing.Ingest(context.Background(), body, sig)
	require.Nil(t, apiErr)
	assert.Equal(t, "applied", res.Outcome)

	job, err := store.GetPrintJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, job.Status)
	assert.Equal(t, "filament runout on extruder 1", job.Error)
	assert.NotNil(t, job.CompletedAt)
}

func mustMarshal(t *testing.T, payload Payload) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}
