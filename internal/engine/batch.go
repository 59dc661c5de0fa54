package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/gamerank/internal/ranking"
	"github.com/onnwee/gamerank/internal/tracing"
)

// BatchOptions configures BatchScore.
type BatchOptions struct {
	// Mode defaults to hot when zero.
	Mode ranking.Mode
	// BatchSize overrides the engine's group size when positive.
	BatchSize        int
	ForceRecalculate bool
}

// BatchScore scores items group by group, yielding between groups and
// checking ctx before each one. On cancellation the results produced so far
// are returned with an error wrapping ranking.ErrCancelled and the context
// error. Invalid items are skipped.
func (e *Engine) BatchScore(ctx context.Context, items []ranking.ContentItem, opts BatchOptions) (results []ranking.ScoreResult, err error) {
	mode, err := resolveMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	size := opts.BatchSize
	if size <= 0 {
		size = e.opts.BatchSize
	}

	batchID := uuid.NewString()
	log := e.log.With("batch_id", batchID, "mode", mode.String())

	ctx, endSpan := tracing.StartSpan(ctx, "engine.batch_score")
	defer func() { endSpan(err) }()
	tracing.SetAttributes(ctx,
		attribute.String("batch.id", batchID),
		attribute.Int("batch.items", len(items)),
		attribute.Int("batch.size", size))

	results = make([]ranking.ScoreResult, 0, len(items))
	var skipped int
	for start := 0; start < len(items); start += size {
		if cerr := ctx.Err(); cerr != nil {
			log.Info("batch score cancelled",
				"processed", start,
				"total", len(items))
			if m := e.opts.Metrics; m != nil {
				m.IncBatchCancellations()
			}
			return results, fmt.Errorf("%w: %w", ranking.ErrCancelled, cerr)
		}

		end := min(start+size, len(items))
		for _, item := range items[start:end] {
			res, err := e.Score(ctx, item, ScoreOptions{Mode: mode, ForceRecalculate: opts.ForceRecalculate})
			if err != nil {
				if errors.Is(err, ranking.ErrInvalidInput) {
					skipped++
					log.Debug("skipping invalid batch item", "content_id", item.ID, "error", err)
					continue
				}
				return results, err
			}
			results = append(results, res)
		}

		if end < len(items) {
			yield()
		}
	}

	log.Debug("batch score completed",
		"scored", len(results),
		"skipped", skipped)
	return results, nil
}
