package printer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "printforge/internal/api/errors"
	"printforge/internal/app/model"
	"printforge/internal/app/repository/memory"
	"printforge/internal/app/storage"
)

type recordingTracker struct {
	tracked []string
}

func (r *recordingTracker) Track(jobID string) {
	r.tracked = append(r.tracked, jobID)
}

func newTestService(t *testing.T) (*Service, *memory.MemoryStore, *MockPrintServiceClient, *storage.MockArtifactStore, *recordingTracker) {
	t.Helper()
	store := memory.NewMemoryStore()
	client := NewMockPrintServiceClient()
	artifacts := storage.NewMockArtifactStore()
	tracker := &recordingTracker{}
	svc := NewService(store, client, artifacts, tracker, testLogger())
	return svc, store, client, artifacts, tracker
}

func seedCompletedConversion(t *testing.T, store *memory.MemoryStore, artifacts *storage.MockArtifactStore) *model.ConversionRecord {
	t.Helper()
	rec := &model.ConversionRecord{
		ID:        "conv-1",
		UserID:    "user-1",
		Status:    model.ConversionCompleted,
		FileName:  "widget.png",
		FileSize:  1024,
		ModelPath: "models/user-1/conv-1.stl",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateConversion(context.Background(), rec))
	require.NoError(t, artifacts.Put(context.Background(), rec.ModelPath, []byte("stl-bytes"), "model/stl"))
	return rec
}

func TestCreateRequiresCompletedConversion(t *testing.T) {
	svc, store, _, artifacts, _ := newTestService(t)
	seedCompletedConversion(t, store, artifacts)

	job, err := svc.Create(context.Background(), "user-1", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, job.Status)
	assert.Equal(t, "models/user-1/conv-1.stl", job.ArtifactPath)

	// processing conversion has no printable artifact
	require.NoError(t, store.CreateConversion(context.Background(), &model.ConversionRecord{
		ID:     "conv-2",
		UserID: "user-1",
		Status: model.ConversionProcessing,
	}))
	_, err = svc.Create(context.Background(), "user-1", "conv-2")
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindInvalidState, apiErr.Kind)
}

func TestCreateScopedToOwner(t *testing.T) {
	svc, store, _, artifacts, _ := newTestService(t)
	seedCompletedConversion(t, store, artifacts)

	_, err := svc.Create(context.Background(), "someone-else", "conv-1")
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindNotFound, apiErr.Kind)
}

func TestSubmitAppliesDefaultsExactly(t *testing.T) {
	svc, store, _, artifacts, tracker := newTestService(t)
	seedCompletedConversion(t, store, artifacts)
	job, err := svc.Create(context.Background(), "user-1", "conv-1")
	require.NoError(t, err)

	material := "PETG"
	submitted, err := svc.Submit(context.Background(), job.ID, &model.PrintSettingsPatch{Material: &material})
	require.NoError(t, err)

	assert.Equal(t, model.JobSlicing, submitted.Status)
	assert.Equal(t, "PETG", submitted.Settings.Material)
	// everything else stays at the documented defaults
	assert.Equal(t, "standard", submitted.Settings.Quality)
	assert.Equal(t, 20, submitted.Settings.InfillPercent)
	assert.Equal(t, 0.2, submitted.Settings.LayerHeightMM)
	assert.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, []string{job.ID}, tracker.tracked)
}

func TestSubmitOnlyFromPending(t *testing.T) {
	svc, store, _, artifacts, _ := newTestService(t)
	seedCompletedConversion(t, store, artifacts)
	job, err := svc.Create(context.Background(), "user-1", "conv-1")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), job.ID, nil)
	require.NoError(t, err)

	// second submission hits the slicing state
	_, err = svc.Submit(context.Background(), job.ID, nil)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindInvalidState, apiErr.Kind)
	assert.Equal(t, "slicing", apiErr.Details["current_state"])
}

func TestSubmitClientErrorFailsJob(t *testing.T) {
	svc, store, client, artifacts, tracker := newTestService(t)
	seedCompletedConversion(t, store, artifacts)
	job, err := svc.Create(context.Background(), "user-1", "conv-1")
	require.NoError(t, err)

	client.SubmitErr = errors.New("connection refused")
	_, err = svc.Submit(context.Background(), job.ID, nil)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindProvider, apiErr.Kind)

	stored, err := store.GetPrintJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, stored.Status)
	assert.NotEmpty(t, stored.Error)
	assert.Empty(t, tracker.tracked, "failed submissions are not polled")
}

func TestReprintCreatesFreshJob(t *testing.T) {
	svc, store, _, artifacts, _ := newTestService(t)
	seedCompletedConversion(t, store, artifacts)
	original, err := svc.Create(context.Background(), "user-1", "conv-1")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), original.ID, nil)
	require.NoError(t, err)

	reprint, err := svc.Reprint(context.Background(), "user-1", original.ID)
	require.NoError(t, err)

	assert.NotEqual(t, original.ID, reprint.ID)
	assert.Equal(t, model.JobPending, reprint.Status)
	assert.Equal(t, original.ArtifactPath, reprint.ArtifactPath)

	// the original record is untouched
	stored, err := store.GetPrintJob(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobSlicing, stored.Status)
}

func TestReprintMissingArtifact(t *testing.T) {
	svc, store, _, artifacts, _ := newTestService(t)
	seedCompletedConversion(t, store, artifacts)
	original, err := svc.Create(context.Background(), "user-1", "conv-1")
	require.NoError(t, err)

	artifacts.Delete("models/user-1/conv-1.stl")

	_, err = svc.Reprint(context.Background(), "user-1", original.ID)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindNotFound, apiErr.Kind)
}
