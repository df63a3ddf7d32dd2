package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	apierrors "printforge/internal/api/errors"
	"printforge/internal/app/api/provider"
	"printforge/internal/app/enhance"
	"printforge/internal/app/mesh"
	"printforge/internal/app/metrics"
	"printforge/internal/app/model"
	"printforge/internal/app/quota"
	"printforge/internal/app/repository"
	"printforge/internal/app/storage"
)

const (
	attemptTimeout     = 5 * time.Minute
	enhanceTimeout     = 30 * time.Second
	maxAttemptsPerProv = 2
	attemptCostUSD     = 0.30
)

// Orchestrator drives conversions from upload to a stored model artifact. It
// owns the conversion state machine; provider calls, enhancement and quota
// admission all hang off it.
type Orchestrator struct {
	store     repository.Store
	registry  provider.Registry
	provstats *provider.Metrics
	artifacts storage.ArtifactStore
	gate      *quota.Gate
	enhancer  enhance.Enhancer
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewOrchestrator wires the conversion orchestrator. enhancer may be nil when
// no enhancement backend is configured.
func NewOrchestrator(store repository.Store, registry provider.Registry, provstats *provider.Metrics, artifacts storage.ArtifactStore, gate *quota.Gate, enhancer enhance.Enhancer, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		registry:  registry,
		provstats: provstats,
		artifacts: artifacts,
		gate:      gate,
		enhancer:  enhancer,
		logger:    logger,
		now:       time.Now,
		cancels:   make(map[string]context.CancelFunc),
	}
}

// StartRequest is one new conversion submission.
type StartRequest struct {
	UserID      string
	Image       []byte
	FileName    string
	Description string
}

// Start admits the request through the quota gate, persists the upload and
// kicks off the asynchronous pipeline. Quota is consumed exactly once here;
// retries of a failed conversion do not consume again.
func (o *Orchestrator) Start(ctx context.Context, req *StartRequest) (*model.ConversionRecord, error) {
	if len(req.Image) == 0 {
		return nil, apierrors.NewValidationError("image data is required", map[string]string{"image": "empty"})
	}
	if len(req.Description) > model.MaxDescriptionLength {
		return nil, apierrors.NewValidationError("description too long", map[string]string{
			"description": fmt.Sprintf("must be at most %d characters", model.MaxDescriptionLength),
		})
	}

	decision, err := o.gate.RecordAttempt(ctx, req.UserID, "", attemptCostUSD)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		metrics.QuotaDenialsTotal.WithLabelValues(decision.Reason).Inc()
		return nil, apierrors.NewRateLimitError("conversion quota exceeded: "+decision.Reason, decision.RetryAfterSeconds)
	}

	rec := &model.ConversionRecord{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Status:      model.ConversionUploading,
		Description: strings.TrimSpace(req.Description),
		FileName:    req.FileName,
		FileSize:    int64(len(req.Image)),
		ImagePath:   path.Join("uploads", req.UserID, uuid.New().String()+"_"+req.FileName),
		CreatedAt:   o.now(),
		UpdatedAt:   o.now(),
	}
	if err := o.store.CreateConversion(ctx, rec); err != nil {
		return nil, err
	}
	if err := o.artifacts.Put(ctx, rec.ImagePath, req.Image, "application/octet-stream"); err != nil {
		o.failConversion(ctx, rec.ID, model.ConversionUploading, "failed to store uploaded image")
		return nil, apierrors.NewInternalError("failed to store uploaded image")
	}

	started := o.now()
	ok, err := o.store.CompareAndSetConversionStatus(ctx, rec.ID, model.ConversionUploading, repository.ConversionUpdate{
		Status:    model.ConversionProcessing,
		StartedAt: &started,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Cancelled between create and processing. Leave it as it is.
		return o.store.GetConversion(ctx, rec.ID)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.registerCancel(rec.ID, cancel)
	go o.run(runCtx, rec.ID, req.Image)

	rec.Status = model.ConversionProcessing
	rec.StartedAt = &started
	return rec, nil
}

// Retry re-enters processing from failed. The only legal re-entry into the
// pipeline; it does not consume quota again.
func (o *Orchestrator) Retry(ctx context.Context, userID, conversionID string) (*model.ConversionRecord, error) {
	rec, err := o.getOwned(ctx, userID, conversionID)
	if err != nil {
		return nil, err
	}
	if rec.Status != model.ConversionFailed {
		return nil, apierrors.NewInvalidStateError("retry conversion", string(rec.Status))
	}

	image, err := o.artifacts.Get(ctx, rec.ImagePath)
	if err != nil {
		if errors.Is(err, storage.ErrArtifactNotFound) {
			return nil, apierrors.NewNotFoundError("source image")
		}
		return nil, err
	}

	started := o.now()
	empty := ""
	ok, err := o.store.CompareAndSetConversionStatus(ctx, conversionID, model.ConversionFailed, repository.ConversionUpdate{
		Status:         model.ConversionProcessing,
		Error:          &empty,
		IncrementRetry: true,
		StartedAt:      &started,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		current, rerr := o.store.GetConversion(ctx, conversionID)
		if rerr != nil {
			return nil, rerr
		}
		return nil, apierrors.NewInvalidStateError("retry conversion", string(current.Status))
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.registerCancel(conversionID, cancel)
	go o.run(runCtx, conversionID, image)

	return o.store.GetConversion(ctx, conversionID)
}

// Cancel aborts an in-flight conversion. Legal only from uploading or
// processing; the running pipeline is interrupted through its context.
func (o *Orchestrator) Cancel(ctx context.Context, userID, conversionID string) (*model.ConversionRecord, error) {
	rec, err := o.getOwned(ctx, userID, conversionID)
	if err != nil {
		return nil, err
	}
	if rec.Status.Terminal() {
		return nil, apierrors.NewInvalidStateError("cancel conversion", string(rec.Status))
	}

	done := o.now()
	ok, err := o.store.CompareAndSetConversionStatus(ctx, conversionID, rec.Status, repository.ConversionUpdate{
		Status:      model.ConversionCancelled,
		CompletedAt: &done,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		current, rerr := o.store.GetConversion(ctx, conversionID)
		if rerr != nil {
			return nil, rerr
		}
		return nil, apierrors.NewInvalidStateError("cancel conversion", string(current.Status))
	}

	o.cancelRun(conversionID)
	metrics.ConversionsTotal.WithLabelValues(string(model.ConversionCancelled)).Inc()
	o.logger.Info("conversion cancelled", "conversion_id", conversionID, "user_id", userID)
	return o.store.GetConversion(ctx, conversionID)
}

// Get returns the conversion, scoped to its owner.
func (o *Orchestrator) Get(ctx context.Context, userID, conversionID string) (*model.ConversionRecord, error) {
	return o.getOwned(ctx, userID, conversionID)
}

// List returns the user's conversions, newest first.
func (o *Orchestrator) List(ctx context.Context, userID string, limit, offset int) ([]model.ConversionRecord, error) {
	return o.store.ListConversionsByUser(ctx, userID, limit, offset)
}

// Download returns the stored model artifact and its file name. Print-ready
// artifacts win over the raw model when both exist.
func (o *Orchestrator) Download(ctx context.Context, userID, conversionID string) ([]byte, string, error) {
	rec, err := o.getOwned(ctx, userID, conversionID)
	if err != nil {
		return nil, "", err
	}
	if !rec.HasModelArtifact() {
		return nil, "", apierrors.NewInvalidStateError("download model", string(rec.Status))
	}

	artifactPath := rec.PrintReadyPath
	if artifactPath == "" {
		artifactPath = rec.ModelPath
	}
	data, err := o.artifacts.Get(ctx, artifactPath)
	if err != nil {
		if errors.Is(err, storage.ErrArtifactNotFound) {
			return nil, "", apierrors.NewNotFoundError("model artifact")
		}
		return nil, "", err
	}
	return data, path.Base(artifactPath), nil
}

// run is the asynchronous pipeline body. It owns the record from processing
// to a terminal state; the conditional writes let a concurrent Cancel win.
func (o *Orchestrator) run(ctx context.Context, conversionID string, image []byte) {
	defer o.cancelRun(conversionID)

	rec, err := o.store.GetConversion(ctx, conversionID)
	if err != nil {
		o.logger.Error("pipeline could not load conversion", "conversion_id", conversionID, "error", err)
		return
	}

	description := o.enhanceDescription(ctx, rec.Description)

	result, providerName, err := o.convertWithFallback(ctx, &provider.ConversionRequest{
		ConversionID: conversionID,
		Image:        image,
		ImageName:    rec.FileName,
		Description:  description,
	})
	if err != nil {
		if ctx.Err() != nil {
			// Cancel already moved the record; nothing to write.
			o.logger.Info("pipeline interrupted", "conversion_id", conversionID)
			return
		}
		o.failConversion(ctx, conversionID, model.ConversionProcessing, "all conversion providers failed")
		return
	}

	format := result.Format
	if format == "" {
		format = "stl"
	}
	modelPath := path.Join("models", rec.UserID, conversionID+"."+format)
	if err := o.artifacts.Put(ctx, modelPath, result.Model, "model/"+format); err != nil {
		o.failConversion(ctx, conversionID, model.ConversionProcessing, "failed to store model artifact")
		return
	}

	update := repository.ConversionUpdate{
		Status:    model.ConversionCompleted,
		Provider:  &providerName,
		ModelPath: &modelPath,
	}
	if meta, merr := mesh.ExtractMetadata(result.Model); merr == nil {
		update.Meta = meta
		est := mesh.EstimatePrintMinutes(meta, model.DefaultPrintSettings().LayerHeightMM)
		update.EstimatedPrintMin = &est
	} else {
		o.logger.Warn("model metadata extraction failed", "conversion_id", conversionID, "error", merr)
	}
	done := o.now()
	update.CompletedAt = &done

	ok, err := o.store.CompareAndSetConversionStatus(ctx, conversionID, model.ConversionProcessing, update)
	if err != nil {
		o.logger.Error("failed to complete conversion", "conversion_id", conversionID, "error", err)
		return
	}
	if !ok {
		o.logger.Info("conversion finished after cancellation, result discarded", "conversion_id", conversionID)
		return
	}
	metrics.ConversionsTotal.WithLabelValues(string(model.ConversionCompleted)).Inc()
	o.logger.Info("conversion completed", "conversion_id", conversionID, "provider", providerName, "model_path", modelPath)
}

// convertWithFallback walks the fallback chain, giving each provider a small
// bounded-backoff retry budget and a per-attempt timeout. Raw provider errors
// stay in the logs; callers see only the aggregate failure.
func (o *Orchestrator) convertWithFallback(ctx context.Context, req *provider.ConversionRequest) (*provider.ConversionResult, string, error) {
	chain := o.registry.FallbackChain()
	if len(chain) == 0 {
		return nil, "", fmt.Errorf("no conversion providers registered")
	}

	var lastErr error
	for _, name := range chain {
		p, err := o.registry.GetProvider(name)
		if err != nil {
			lastErr = err
			continue
		}

		var result *provider.ConversionResult
		backoff := retry.WithMaxRetries(maxAttemptsPerProv-1, retry.NewExponential(2*time.Second))
		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
			defer cancel()

			start := time.Now()
			res, convErr := p.Convert(attemptCtx, req)
			if convErr != nil {
				o.provstats.RecordFailure(name, errorType(convErr))
				return retry.RetryableError(convErr)
			}
			o.provstats.RecordSuccess(name, time.Since(start).Milliseconds())
			result = res
			return nil
		})
		if err == nil {
			return result, name, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		o.logger.Warn("provider exhausted, falling back", "conversion_id", req.ConversionID, "provider", name, "error", err)
	}
	return nil, "", fmt.Errorf("fallback chain exhausted: %w", lastErr)
}

// enhanceDescription is best-effort: a failed enhancement never fails the
// conversion, the original text is used instead.
func (o *Orchestrator) enhanceDescription(ctx context.Context, description string) string {
	if o.enhancer == nil || strings.TrimSpace(description) == "" {
		return description
	}
	callCtx, cancel := context.WithTimeout(ctx, enhanceTimeout)
	defer cancel()
	enhanced, err := o.enhancer.Enhance(callCtx, description)
	if err != nil {
		o.logger.Warn("description enhancement failed, using original", "error", err)
		return description
	}
	if len(enhanced) > model.MaxDescriptionLength {
		enhanced = enhanced[:model.MaxDescriptionLength]
	}
	return enhanced
}

func (o *Orchestrator) getOwned(ctx context.Context, userID, conversionID string) (*model.ConversionRecord, error) {
	rec, err := o.store.GetConversion(ctx, conversionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierrors.NewNotFoundError("conversion")
		}
		return nil, err
	}
	if rec.UserID != userID {
		return nil, apierrors.NewNotFoundError("conversion")
	}
	return rec, nil
}

func (o *Orchestrator) failConversion(ctx context.Context, conversionID string, expect model.ConversionStatus, msg string) {
	done := o.now()
	ok, err := o.store.CompareAndSetConversionStatus(ctx, conversionID, expect, repository.ConversionUpdate{
		Status:      model.ConversionFailed,
		Error:       &msg,
		CompletedAt: &done,
	})
	if err != nil {
		o.logger.Error("failed to mark conversion failed", "conversion_id", conversionID, "error", err)
		return
	}
	if ok {
		metrics.ConversionsTotal.WithLabelValues(string(model.ConversionFailed)).Inc()
		o.logger.Warn("conversion failed", "conversion_id", conversionID, "reason", msg)
	}
}

func (o *Orchestrator) registerCancel(conversionID string, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancels[conversionID] = cancel
}

func (o *Orchestrator) cancelRun(conversionID string) {
	o.mu.Lock()
	cancel, ok := o.cancels[conversionID]
	delete(o.cancels, conversionID)
	o.mu.Unlock()
	if ok {
		cancel()
	}
}
