package converter

import (
	"context"
	"errors"
	"time"

	"printforge/internal/app/metrics"
	"printforge/internal/app/model"
)

// StatusView is the enriched status the API returns for one conversion.
type StatusView struct {
	Conversion          *model.ConversionRecord `json:"conversion"`
	ProgressPercent     int                     `json:"progress_percent"`
	EstimatedCompletion *time.Time              `json:"estimated_completion,omitempty"`
}

// averageConversionDuration seeds the completion estimate before enough
// history exists to do better.
const averageConversionDuration = 3 * time.Minute

func errorType(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "provider_error"
}

// Status returns the owner-scoped record with a coarse progress figure. The
// percentage is advisory; the status field is the truth.
func (o *Orchestrator) Status(ctx context.Context, userID, conversionID string) (*StatusView, error) {
	rec, err := o.getOwned(ctx, userID, conversionID)
	if err != nil {
		return nil, err
	}

	view := &StatusView{Conversion: rec}
	switch rec.Status {
	case model.ConversionUploading:
		view.ProgressPercent = 10
	case model.ConversionProcessing:
		view.ProgressPercent = progressWhileProcessing(rec, o.now())
		if rec.StartedAt != nil {
			eta := rec.StartedAt.Add(averageConversionDuration)
			view.EstimatedCompletion = &eta
		}
	case model.ConversionCompleted:
		view.ProgressPercent = 100
	case model.ConversionFailed, model.ConversionCancelled:
		view.ProgressPercent = 0
	}
	return view, nil
}

// progressWhileProcessing maps elapsed time onto 20..95 so the bar keeps
// moving without ever claiming completion.
func progressWhileProcessing(rec *model.ConversionRecord, now time.Time) int {
	if rec.StartedAt == nil {
		return 20
	}
	elapsed := now.Sub(*rec.StartedAt)
	pct := 20 + int(float64(elapsed)/float64(averageConversionDuration)*75)
	if pct > 95 {
		pct = 95
	}
	return pct
}

// FindStuck surfaces conversions that have sat in processing past threshold
// and refreshes the gauge. Used by the monitor loop and the admin endpoint.
func (o *Orchestrator) FindStuck(ctx context.Context, threshold time.Duration) ([]model.ConversionRecord, error) {
	stuck, err := o.store.FindStuckConversions(ctx, threshold)
	if err != nil {
		return nil, err
	}
	metrics.StuckConversions.Set(float64(len(stuck)))
	return stuck, nil
}

// MonitorStuck refreshes the stuck gauge on an interval until ctx ends.
func (o *Orchestrator) MonitorStuck(ctx context.Context, interval, threshold time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := o.FindStuck(ctx, threshold); err != nil {
				o.logger.Error("stuck conversion scan failed", "error", err)
			}
		}
	}
}
