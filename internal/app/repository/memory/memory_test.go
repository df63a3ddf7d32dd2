package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printforge/internal/app/model"
	"printforge/internal/app/repository"
)

func TestConversionRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := &model.ConversionRecord{
		ID:       "conv-1",
		UserID:   "user-1",
		Status:   model.ConversionUploading,
		FileName: "widget.png",
	}
	require.NoError(t, s.CreateConversion(ctx, rec))

	got, err := s.GetConversion(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "widget.png", got.FileName)

	// the store hands out copies
	got.FileName = "mutated.png"
	again, err := s.GetConversion(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "widget.png", again.FileName)
}

func TestGetConversionNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetConversion(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCompareAndSetConversionStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateConversion(ctx, &model.ConversionRecord{
		ID:     "conv-1",
		UserID: "user-1",
		Status: model.ConversionProcessing,
	}))

	prov := "tripo"
	ok, err := s.CompareAndSetConversionStatus(ctx, "conv-1", model.ConversionProcessing, repository.ConversionUpdate{
		Status:   model.ConversionCompleted,
		Provider: &prov,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetConversion(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, model.ConversionCompleted, got.Status)
	assert.Equal(t, "tripo", got.Provider)

	// guard failure is not an error
	ok, err = s.CompareAndSetConversionStatus(ctx, "conv-1", model.ConversionProcessing, repository.ConversionUpdate{
		Status: model.ConversionFailed,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.CompareAndSetConversionStatus(ctx, "missing", model.ConversionProcessing, repository.ConversionUpdate{
		Status: model.ConversionFailed,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListConversionsByUserPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateConversion(ctx, &model.ConversionRecord{ID: id, UserID: "user-1"}))
	}
	require.NoError(t, s.CreateConversion(ctx, &model.ConversionRecord{ID: "d", UserID: "user-2"}))

	all, err := s.ListConversionsByUser(ctx, "user-1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := s.ListConversionsByUser(ctx, "user-1", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := s.ListConversionsByUser(ctx, "user-1", 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	empty, err := s.ListConversionsByUser(ctx, "user-1", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFindStuckConversions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	old := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, s.CreateConversion(ctx, &model.ConversionRecord{
		ID:        "stuck",
		UserID:    "user-1",
		Status:    model.ConversionProcessing,
		UpdatedAt: old,
	}))
	require.NoError(t, s.CreateConversion(ctx, &model.ConversionRecord{
		ID:        "fresh",
		UserID:    "user-1",
		Status:    model.ConversionProcessing,
		UpdatedAt: time.Now().UTC(),
	}))
	require.NoError(t, s.CreateConversion(ctx, &model.ConversionRecord{
		ID:        "done",
		UserID:    "user-1",
		Status:    model.ConversionCompleted,
		UpdatedAt: old,
	}))

	stuck, err := s.FindStuckConversions(ctx, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, "stuck", stuck[0].ID)
}

func TestCompareAndSetJobStatus(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreatePrintJob(ctx, &model.PrintJob{
		ID:     "job-1",
		UserID: "user-1",
		Status: model.JobPending,
	}))

	now := time.Now().UTC()
	settings := model.DefaultPrintSettings()
	ok, err := s.CompareAndSetJobStatus(ctx, "job-1", model.JobPending, repository.JobStatusUpdate{
		Status:      model.JobDownloading,
		Settings:    &settings,
		SubmittedAt: &now,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetPrintJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobDownloading, got.Status)
	assert.NotNil(t, got.SubmittedAt)

	// losing a race is reported without an error
	ok, err = s.CompareAndSetJobStatus(ctx, "job-1", model.JobPending, repository.JobStatusUpdate{
		Status: model.JobSlicing,
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListInFlightPrintJobs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for id, status := range map[string]model.PrintJobStatus{
		"pending":  model.JobPending,
		"printing": model.JobPrinting,
		"complete": model.JobComplete,
		"failed":   model.JobFailed,
	} {
		require.NoError(t, s.CreatePrintJob(ctx, &model.PrintJob{ID: id, UserID: "user-1", Status: status}))
	}

	inflight, err := s.ListInFlightPrintJobs(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(inflight))
	for _, job := range inflight {
		ids = append(ids, job.ID)
	}
	assert.ElementsMatch(t, []string{"pending", "printing"}, ids)
}
