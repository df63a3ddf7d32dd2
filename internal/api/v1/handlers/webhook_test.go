package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printforge/internal/api/middleware"
	"printforge/internal/app/model"
	"printforge/internal/app/printer"
	"printforge/internal/app/repository/memory"
	"printforge/internal/app/webhook"
)

const webhookTestSecret = "whsec_handler_test"

func newWebhookRouter(t *testing.T, store *memory.MemoryStore) *gin.Engine {
	t.Helper()
	t.Setenv("WEBHOOK_SECRET", webhookTestSecret)
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ingestor := webhook.NewIngestor(printer.NewReconciler(store, logger), logger)

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))
	router.POST("/api/v1/webhooks/print-status", NewWebhookHandler(ingestor).Receive)
	return router
}

func seedWebhookJob(t *testing.T, store *memory.MemoryStore, status model.PrintJobStatus) {
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

func deliver(t *testing.T, router *gin.Engine, payload webhook.Payload, sign bool) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/print-status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sign {
		req.Header.Set("X-Webhook-Signature", webhook.Sign(webhookTestSecret, body))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookDeliveryApplied(t *testing.T) {
	store := memory.NewMemoryStore()
	seedWebhookJob(t, store, model.JobSlicing)
	router := newWebhookRouter(t, store)

	w := deliver(t, router, webhook.Payload{
		Event:  "job_status_update",
		JobID:  "job-1",
		Status: "complete",
	}, true)

	require.Equal(t, http.StatusOK, w.Code)
	var result webhook.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "applied", result.Outcome)
	assert.Equal(t, "complete", result.Status)

	job, err := store.GetPrintJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobComplete, job.Status)
	assert.NotNil(t, job.CompletedAt)
}

func TestWebhookDuplicateDeliveryIsNoOp(t *testing.T) {
	store := memory.NewMemoryStore()
	seedWebhookJob(t, store, model.JobSlicing)
	router := newWebhookRouter(t, store)

	payload := webhook.Payload{Event: "job_status_update", JobID: "job-1", Status: "printing"}

	first := deliver(t, router, payload, true)
	require.Equal(t, http.StatusOK, first.Code)

	second := deliver(t, router, payload, true)
	require.Equal(t, http.StatusOK, second.Code)
	var result webhook.Result
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &result))
	assert.Equal(t, "stale", result.Outcome)

	job, err := store.GetPrintJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobPrinting, job.Status)
}

func TestWebhookUnsignedDeliveryAcknowledged(t *testing.T) {
	store := memory.NewMemoryStore()
	seedWebhookJob(t, store, model.JobSlicing)
	router := newWebhookRouter(t, store)

	w := deliver(t, router, webhook.Payload{
		Event:  "job_status_update",
		JobID:  "job-1",
		Status: "printing",
	}, false)

	require.Equal(t, http.StatusOK, w.Code)
	var result webhook.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "invalid_signature", result.Outcome)

	job, err := store.GetPrintJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobSlicing, job.Status)
}

func TestWebhookMalformedPayloadRejected(t *testing.T) {
	store := memory.NewMemoryStore()
	router := newWebhookRouter(t, store)

	body := []byte("{{not json")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/print-status", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", webhook.Sign(webhookTestSecret, body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookUnknownJobAcknowledged(t *testing.T) {
	store := memory.NewMemoryStore()
	router := newWebhookRouter(t, store)

	w := deliver(t, router, webhook.Payload{
		Event:  "job_status_update",
		JobID:  "ghost",
		Status: "printing",
	}, true)

	require.Equal(t, http.StatusOK, w.Code)
	var result webhook.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "unknown_job", result.Outcome)
}
