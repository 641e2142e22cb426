package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yobot/leadflow/internal/model"
)

// RunBatch processes leads strictly in order, one full sequence at a time,
// pacing items with a token bucket so the external APIs see at most one
// lead per interval. Per-lead failures do not abort the batch.
func (p *Pipeline) RunBatch(ctx context.Context, leads []model.Lead, interval time.Duration) (*model.BatchResult, error) {
	batch := &model.BatchResult{}
	if len(leads) == 0 {
		return batch, nil
	}

	if interval <= 0 {
		interval = time.Second
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	zap.L().Info("pipeline: starting batch",
		zap.Int("leads", len(leads)),
		zap.Duration("interval", interval),
	)

	for i, lead := range leads {
		if err := limiter.Wait(ctx); err != nil {
			return batch, err
		}

		result, err := p.Run(ctx, lead)
		batch.Results = append(batch.Results, *result)
		if err != nil || !result.Success {
			batch.Failed++
		} else {
			batch.Processed++
		}

		zap.L().Debug("pipeline: batch item done",
			zap.Int("index", i),
			zap.Bool("success", result.Success),
		)
	}

	if p.notifier != nil {
		p.notifier.Notify(ctx, model.Event{
			Type:    model.EventBatchComplete,
			Source:  leads[0].Source,
			Subject: fmt.Sprintf("%d leads", len(leads)),
			Status:  batchStatus(batch),
			Detail:  fmt.Sprintf("Batch complete: %d processed, %d failed", batch.Processed, batch.Failed),
		})
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int("processed", batch.Processed),
		zap.Int("failed", batch.Failed),
	)
	return batch, nil
}

func batchStatus(batch *model.BatchResult) model.EventStatus {
	switch {
	case batch.Failed == 0:
		return model.EventStatusSuccess
	case batch.Processed == 0:
		return model.EventStatusError
	default:
		return model.EventStatusPartial
	}
}
