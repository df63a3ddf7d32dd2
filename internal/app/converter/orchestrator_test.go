package converter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "printforge/internal/api/errors"
	"printforge/internal/app/api/provider"
	"printforge/internal/app/model"
	"printforge/internal/app/quota"
	"printforge/internal/app/repository/memory"
	"printforge/internal/app/storage"
	"printforge/internal/app/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubProvider is a scriptable ConversionProvider for pipeline tests.
type stubProvider struct {
	mu     sync.Mutex
	result *provider.ConversionResult
	err    error
	block  bool
	calls  int
}

func (p *stubProvider) Convert(ctx context.Context, req *provider.ConversionRequest) (*provider.ConversionResult, error) {
	p.mu.Lock()
	p.calls++
	result, err, block := p.result, p.err, p.block
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *stubProvider) GetProviderInfo() provider.ProviderInfo {
	return provider.ProviderInfo{Name: "stub", Type: "test", SupportedFormats: []string{"stl"}}
}

func (p *stubProvider) HealthCheck(ctx context.Context) error { return nil }

func (p *stubProvider) set(result *provider.ConversionResult, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result, p.err = result, err
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type testEnv struct {
	orchestrator *Orchestrator
	store        *memory.MemoryStore
	artifacts    *storage.MockArtifactStore
	gate         *quota.Gate
	provider     *stubProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := memory.NewMemoryStore()
	artifacts := storage.NewMockArtifactStore()
	gate := quota.NewGate(rdb, testLogger())

	stub := &stubProvider{result: &provider.ConversionResult{
		Model:  testutil.BinarySTL(testutil.UnitTetrahedron()),
		Format: "stl",
	}}
	registry := provider.NewRegistry()
	require.NoError(t, registry.RegisterProvider("stub", stub))

	o := NewOrchestrator(store, registry, provider.NewMetrics(), artifacts, gate, nil, testLogger())
	return &testEnv{orchestrator: o, store: store, artifacts: artifacts, gate: gate, provider: stub}
}

func startRequest() *StartRequest {
	return &StartRequest{
		UserID:      "user-1",
		Image:       []byte("png-bytes"),
		FileName:    "widget.png",
		Description: "a small widget",
	}
}

func waitForStatus(t *testing.T, env *testEnv, id string, want model.ConversionStatus) *model.ConversionRecord {
	t.Helper()
	var rec *model.ConversionRecord
	require.Eventually(t, func() bool {
		var err error
		rec, err = env.store.GetConversion(context.Background(), id)
		return err == nil && rec.Status == want
	}, 10*time.Second, 20*time.Millisecond, "conversion never reached %s", want)
	return rec
}

func TestStartRunsPipelineToCompletion(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.orchestrator.Start(context.Background(), startRequest())
	require.NoError(t, err)
	assert.Equal(t, model.ConversionProcessing, rec.Status)
	assert.NotNil(t, rec.StartedAt)

	done := waitForStatus(t, env, rec.ID, model.ConversionCompleted)
	assert.Equal(t, "stub", done.Provider)
	assert.NotEmpty(t, done.ModelPath)
	assert.NotNil(t, done.CompletedAt)

	require.NotNil(t, done.Meta)
	assert.Equal(t, 4, done.Meta.FaceCount)
	assert.Greater(t, done.EstimatedPrintMin, 0)

	exists, err := env.artifacts.Exists(context.Background(), done.ModelPath)
	require.NoError(t, err)
	assert.True(t, exists, "model artifact stored before completion")
}

func TestStartValidatesInput(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orchestrator.Start(context.Background(), &StartRequest{UserID: "user-1", FileName: "x.png"})
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindValidation, apiErr.Kind)

	long := make([]byte, model.MaxDescriptionLength+1)
	for i := range long {
		long[i] = 'a'
	}
	req := startRequest()
	req.Description = string(long)
	_, err = env.orchestrator.Start(context.Background(), req)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindValidation, apiErr.Kind)
}

func TestStartDeniedWhenQuotaExhausted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	limit := model.LimitsFor(model.TierFree).DailyConversions
	for i := 0; i < limit; i++ {
		d, err := env.gate.RecordAttempt(ctx, "user-1", "seed", 0)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	_, err := env.orchestrator.Start(ctx, startRequest())
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindRateLimited, apiErr.Kind)
	assert.Greater(t, apiErr.RetryAfter, 0)
	assert.Equal(t, 0, env.provider.callCount(), "denied requests never reach a provider")
}

func TestPipelineFailsWhenProvidersExhausted(t *testing.T) {
	env := newTestEnv(t)
	env.provider.set(nil, errors.New("provider error: mesh generation failed"))

	rec, err := env.orchestrator.Start(context.Background(), startRequest())
	require.NoError(t, err, "provider failures surface asynchronously")

	failed := waitForStatus(t, env, rec.ID, model.ConversionFailed)
	assert.Contains(t, failed.Error, "all conversion providers failed")
	assert.GreaterOrEqual(t, env.provider.callCount(), 2, "each provider gets a bounded retry budget")
}

func TestRetryOnlyFromFailed(t *testing.T) {
	env := newTestEnv(t)
	env.provider.set(nil, errors.New("transient outage"))

	rec, err := env.orchestrator.Start(context.Background(), startRequest())
	require.NoError(t, err)
	waitForStatus(t, env, rec.ID, model.ConversionFailed)

	// provider recovers; retry reuses the stored upload
	env.provider.set(&provider.ConversionResult{
		Model:  testutil.BinarySTL(testutil.UnitTetrahedron()),
		Format: "stl",
	}, nil)

	retried, err := env.orchestrator.Retry(context.Background(), "user-1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConversionProcessing, retried.Status)
	assert.Equal(t, 1, retried.RetryCount)

	done := waitForStatus(t, env, rec.ID, model.ConversionCompleted)
	assert.Empty(t, done.Error)

	// completed conversions cannot re-enter the pipeline
	_, err = env.orchestrator.Retry(context.Background(), "user-1", rec.ID)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindInvalidState, apiErr.Kind)
}

func TestRetryDoesNotConsumeQuota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provider.set(nil, errors.New("down"))

	rec, err := env.orchestrator.Start(ctx, startRequest())
	require.NoError(t, err)
	waitForStatus(t, env, rec.ID, model.ConversionFailed)

	before, err := env.gate.Usage(ctx, "user-1")
	require.NoError(t, err)

	env.provider.set(&provider.ConversionResult{
		Model:  testutil.BinarySTL(testutil.UnitTetrahedron()),
		Format: "stl",
	}, nil)
	_, err = env.orchestrator.Retry(ctx, "user-1", rec.ID)
	require.NoError(t, err)
	waitForStatus(t, env, rec.ID, model.ConversionCompleted)

	after, err := env.gate.Usage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, before.DailyCount, after.DailyCount, "retries ride on the original admission")
}

func TestRetryMissingSourceImage(t *testing.T) {
	env := newTestEnv(t)
	env.provider.set(nil, errors.New("down"))

	rec, err := env.orchestrator.Start(context.Background(), startRequest())
	require.NoError(t, err)
	failed := waitForStatus(t, env, rec.ID, model.ConversionFailed)

	env.artifacts.Delete(failed.ImagePath)

	_, err = env.orchestrator.Retry(context.Background(), "user-1", rec.ID)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindNotFound, apiErr.Kind)
}

func TestCancelInterruptsPipeline(t *testing.T) {
	env := newTestEnv(t)
	env.provider.block = true

	rec, err := env.orchestrator.Start(context.Background(), startRequest())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return env.provider.callCount() > 0
	}, 5*time.Second, 10*time.Millisecond, "pipeline never reached the provider")

	cancelled, err := env.orchestrator.Cancel(context.Background(), "user-1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConversionCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CompletedAt)

	// the interrupted pipeline must not overwrite the cancellation
	time.Sleep(100 * time.Millisecond)
	final, err := env.store.GetConversion(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConversionCancelled, final.Status)
}

func TestCancelTerminalConversion(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.orchestrator.Start(context.Background(), startRequest())
	require.NoError(t, err)
	waitForStatus(t, env, rec.ID, model.ConversionCompleted)

	_, err = env.orchestrator.Cancel(context.Background(), "user-1", rec.ID)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindInvalidState, apiErr.Kind)
	assert.Equal(t, "completed", apiErr.Details["current_state"])
}

func TestDownloadReturnsModelArtifact(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.orchestrator.Start(context.Background(), startRequest())
	require.NoError(t, err)
	done := waitForStatus(t, env, rec.ID, model.ConversionCompleted)

	data, fileName, err := env.orchestrator.Download(context.Background(), "user-1", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, testutil.BinarySTL(testutil.UnitTetrahedron()), data)
	assert.Equal(t, rec.ID+".stl", fileName)
	assert.NotEmpty(t, done.ModelPath)
}

func TestGetScopedToOwner(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.orchestrator.Start(context.Background(), startRequest())
	require.NoError(t, err)

	_, err = env.orchestrator.Get(context.Background(), "someone-else", rec.ID)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.KindNotFound, apiErr.Kind)
}
