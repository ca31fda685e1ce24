package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"storyforge/internal/logging"
	"storyforge/internal/services"
	"storyforge/internal/workitem"
)

const defaultStageTimeout = 120 * time.Second

// Backend is the generative service a stage calls.
type Backend interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Gate reserves backend capacity before each call.
type Gate interface {
	Acquire(ctx context.Context) error
}

// Pipeline runs the staged experimental generation path. Any stage failure
// or timeout abandons the whole run; partial output is never emitted.
type Pipeline struct {
	backend      Backend
	gate         Gate
	logger       *slog.Logger
	stages       []Stage
	stageTimeout time.Duration
}

// Option customizes the pipeline.
type Option func(*Pipeline)

// WithStageTimeout overrides the per-stage ceiling.
func WithStageTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		if timeout > 0 {
			p.stageTimeout = timeout
		}
	}
}

// WithStages overrides the stage sequence (useful for tests).
func WithStages(stages []Stage) Option {
	return func(p *Pipeline) {
		if len(stages) > 0 {
			p.stages = stages
		}
	}
}

// New constructs a pipeline over the supplied backend and quota gate.
func New(backend Backend, gate Gate, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	pipeline := &Pipeline{
		backend:      backend,
		gate:         gate,
		logger:       logger,
		stages:       Stages(),
		stageTimeout: defaultStageTimeout,
	}
	for _, opt := range opts {
		opt(pipeline)
	}
	return pipeline
}

// Run executes every stage in order and returns the final stage's raw
// output. The error, when non-nil, is classified with the services sentinels
// so the coordinator can decide on fallback.
func (p *Pipeline) Run(ctx context.Context, item workitem.Item) (string, error) {
	runCtx := NewContext(item)
	started := time.Now()

	for i, stage := range p.stages {
		stageLogger := p.logger.With(
			logging.String(logging.FieldStage, stage.Name),
			logging.String(logging.FieldItemID, item.ID),
		)
		stageLogger.Debug("stage starting", logging.Int("position", i+1))

		output, err := p.runStage(services.WithStage(ctx, stage.Name), stage, runCtx)
		if err != nil {
			stageLogger.Error("stage failed", logging.Error(err))
			return "", err
		}
		if err := runCtx.Append(stage.Name, output); err != nil {
			return "", services.Wrap(services.ErrBackend, stage.Name, "append", "record stage output", err)
		}
		stageLogger.Debug("stage complete", logging.Int("output_bytes", len(output)))
	}

	p.logger.Info("pipeline complete",
		logging.String(logging.FieldItemID, item.ID),
		logging.Int("stages", len(p.stages)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return runCtx.Last(), nil
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, runCtx *Context) (string, error) {
	if err := p.gate.Acquire(ctx); err != nil {
		return "", err
	}

	stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	output, err := p.backend.Generate(stageCtx, stage.System, stage.User(runCtx))
	if err != nil {
		return "", classifyStageError(stage.Name, err)
	}
	return output, nil
}

// classifyStageError folds backend failures into the error taxonomy: a
// deadline becomes a timeout, everything else a backend error. Quota errors
// pass through untouched.
func classifyStageError(stageName string, err error) error {
	switch {
	case errors.Is(err, services.ErrQuotaExceeded):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stageName, "generate", "stage exceeded its time ceiling", err)
	default:
		return services.Wrap(services.ErrBackend, stageName, "generate", "backend call failed", err)
	}
}
