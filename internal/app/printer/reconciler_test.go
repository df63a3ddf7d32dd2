package printer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printforge/internal/app/model"
	"printforge/internal/app/repository/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedJob(t *testing.T, store *memory.MemoryStore, status model.PrintJobStatus) *model.PrintJob {
	t.Helper()
	job := &model.PrintJob{
		ID:           "job-1",
		UserID:       "user-1",
		ConversionID: "conv-1",
		Status:       status,
		ArtifactPath: "models/user-1/conv-1.stl",
		FileName:     "model.stl",
		Settings:     model.DefaultPrintSettings(),
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.CreatePrintJob(context.Background(), job))
	return job
}

func TestReconcilerAppliesForwardStatus(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobSlicing)
	r := NewReconciler(store, testLogger())

	outcome, err := r.Apply(context.Background(), "job-1", &JobStatusReport{Status: model.JobPrinting}, "pull")
	require.NoError(t, err)
	assert.True(t, outcome.Applied)
	assert.Equal(t, model.JobPrinting, outcome.Status)

	job, err := store.GetPrintJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobPrinting, job.Status)
}

func TestReconcilerDiscardsStale(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobPrinting)
	r := NewReconciler(store, testLogger())

	// repeat of the current status
	outcome, err := r.Apply(context.Background(), "job-1", &JobStatusReport{Status: model.JobPrinting}, "push")
	require.NoError(t, err)
	assert.False(t, outcome.Applied)

	// backward report
	outcome, err = r.Apply(context.Background(), "job-1", &JobStatusReport{Status: model.JobSlicing}, "push")
	require.NoError(t, err)
	assert.False(t, outcome.Applied)
	assert.Equal(t, model.JobPrinting, outcome.Status)
}

func TestReconcilerDuplicateDeliveryIsIdempotent(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobSlicing)
	r := NewReconciler(store, testLogger())

	first, err := r.Apply(context.Background(), "job-1", &JobStatusReport{Status: model.JobPrinting}, "push")
	require.NoError(t, err)
	assert.True(t, first.Applied)

	second, err := r.Apply(context.Background(), "job-1", &JobStatusReport{Status: model.JobPrinting}, "push")
	require.NoError(t, err)
	assert.False(t, second.Applied, "redelivery must be a no-op")
	assert.Equal(t, model.JobPrinting, second.Status)
}

func TestReconcilerTerminalSetsCompletion(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobPrinting)
	r := NewReconciler(store, testLogger())

	outcome, err := r.Apply(context.Background(), "job-1", &JobStatusReport{Status: model.JobComplete}, "pull")
	require.NoError(t, err)
	assert.True(t, outcome.Applied)

	job, err := store.GetPrintJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobComplete, job.Status)
	assert.NotNil(t, job.CompletedAt)
}

func TestReconcilerFailureRequiresMessage(t *testing.T) {
	store := memory.NewMemoryStore()
	seedJob(t, store, model.JobPrinting)
	r := NewReconciler(store, testLogger())

	_, err := r.Apply(context.Background(), "job-1", &JobStatusReport{Status: model.JobFailed}, "push")
	require.NoError(t, err)

	job, err := store.GetPrintJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, job.Status)
	assert.NotEmpty(t, job.Error, "failed jobs always carry an error message")
}

func TestReconcilerPullAndPushConverge(t *testing.T) {
	// Whichever path delivers first, the job ends at the later status.
	run := func(order []model.PrintJobStatus) model.PrintJobStatus {
		store := memory.NewMemoryStore()
		seedJob(t, store, model.JobDownloading)
		r := NewReconciler(store, testLogger())
		for _, status := range order {
			_, err := r.Apply(context.Background(), "job-1", &JobStatusReport{Status: status}, "pull")
			require.NoError(t, err)
		}
		job, err := store.GetPrintJob(context.Background(), "job-1")
		require.NoError(t, err)
		return job.Status
	}

	inOrder := run([]model.PrintJobStatus{model.JobSlicing, model.JobPrinting})
	reversed := run([]model.PrintJobStatus{model.JobPrinting, model.JobSlicing})
	assert.Equal(t, inOrder, reversed)
	assert.Equal(t, model.JobPrinting, inOrder)
}

func TestReconcilerUnknownJob(t *testing.T) {
	store := memory.NewMemoryStore()
	r := NewReconciler(store, testLogger())

	_, err := r.Apply(context.Background(), "missing", &JobStatusReport{Status: model.JobPrinting}, "push")
	assert.Error(t, err)
}
