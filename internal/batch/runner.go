package batch

import (
	"context"
	"log/slog"
	"time"

	"storyforge/internal/artifact"
	"storyforge/internal/generation"
	"storyforge/internal/logging"
	"storyforge/internal/monitor"
	"storyforge/internal/services"
	"storyforge/internal/workitem"
)

const (
	defaultBatchSize = 3
	defaultPause     = 5 * time.Second
)

// Processor handles one work item end to end.
type Processor interface {
	Process(ctx context.Context, item workitem.Item) generation.Result
}

// Outcome is one item's result within a run.
type Outcome struct {
	ItemID    string
	Title     string
	Path      monitor.Path
	Artifacts []artifact.Artifact
	Err       error
}

// Summary aggregates a full run.
type Summary struct {
	ItemsProcessed int
	ArtifactCount  int
	PathCounts     map[monitor.Path]int
	Errors         int
	Outcomes       []Outcome
}

// Runner processes work items in bounded batches with a pause between
// batches. One item's failure never aborts the rest of the run.
type Runner struct {
	processor Processor
	logger    *slog.Logger
	batchSize int
	pause     time.Duration
	sleeper   func(time.Duration)
}

// Option customizes the runner.
type Option func(*Runner)

// WithBatchSize overrides the number of items per batch.
func WithBatchSize(size int) Option {
	return func(r *Runner) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// WithPause overrides the inter-batch pause.
func WithPause(pause time.Duration) Option {
	return func(r *Runner) {
		if pause >= 0 {
			r.pause = pause
		}
	}
}

// WithSleeper overrides how the inter-batch pause is performed (useful for
// tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(r *Runner) {
		r.sleeper = sleeper
	}
}

// NewRunner constructs a runner over the supplied processor.
func NewRunner(processor Processor, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := &Runner{
		processor: processor,
		logger:    logger,
		batchSize: defaultBatchSize,
		pause:     defaultPause,
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run processes every item in submission order, batch by batch. A canceled
// context stops the run between items; the summary covers what completed.
func (r *Runner) Run(ctx context.Context, items []workitem.Item) (Summary, error) {
	summary := Summary{PathCounts: make(map[monitor.Path]int)}

	for batchStart := 0; batchStart < len(items); batchStart += r.batchSize {
		batchEnd := min(batchStart+r.batchSize, len(items))
		batchNum := batchStart/r.batchSize + 1
		batchCtx := services.WithBatch(ctx, batchNum)

		r.logger.Info("batch starting",
			logging.Int(logging.FieldBatch, batchNum),
			logging.Int("items", batchEnd-batchStart),
		)

		for _, item := range items[batchStart:batchEnd] {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			result := r.processor.Process(batchCtx, item)

			summary.ItemsProcessed++
			summary.ArtifactCount += len(result.Artifacts)
			summary.PathCounts[result.Path]++
			if result.Err != nil {
				summary.Errors++
				r.logger.Error("item failed",
					logging.Int(logging.FieldBatch, batchNum),
					logging.String(logging.FieldItemID, item.ID),
					logging.Error(result.Err),
				)
			}
			summary.Outcomes = append(summary.Outcomes, Outcome{
				ItemID:    item.ID,
				Title:     item.Title,
				Path:      result.Path,
				Artifacts: result.Artifacts,
				Err:       result.Err,
			})
		}

		if batchEnd < len(items) && r.pause > 0 {
			if err := r.sleep(ctx, r.pause); err != nil {
				return summary, err
			}
		}
	}

	r.logger.Info("run complete",
		logging.Int("items", summary.ItemsProcessed),
		logging.Int("artifacts", summary.ArtifactCount),
		logging.Int("errors", summary.Errors),
	)
	return summary, nil
}

func (r *Runner) sleep(ctx context.Context, pause time.Duration) error {
	if r.sleeper != nil {
		r.sleeper(pause)
		return ctx.Err()
	}
	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
