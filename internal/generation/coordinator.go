package generation

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"storyforge/internal/artifact"
	"storyforge/internal/logging"
	"storyforge/internal/monitor"
	"storyforge/internal/rollout"
	"storyforge/internal/services"
	"storyforge/internal/workitem"
)

// Settings is the coordinator's hot-reloadable configuration. A settings
// change swaps the whole snapshot; one Process call never observes a mix of
// old and new values.
type Settings struct {
	Rollout      rollout.Settings
	AutoFallback bool
}

type settingsSnapshot struct {
	settings Settings
	selector *rollout.Selector
}

// Validator checks raw output and produces artifacts.
type Validator interface {
	Validate(rawOutput string, item workitem.Item) ([]artifact.Artifact, error)
}

// Recorder receives the per-call session record.
type Recorder interface {
	Record(ctx context.Context, session monitor.Session) error
	ShouldRollback(ctx context.Context) (bool, error)
}

// Coordinator drives one work item through path selection, execution,
// validation, and session recording.
type Coordinator struct {
	baseline     Generator
	experimental Generator
	validator    Validator
	recorder     Recorder
	logger       *slog.Logger
	snapshot     atomic.Pointer[settingsSnapshot]
	now          func() time.Time
}

// Option customizes the coordinator.
type Option func(*Coordinator)

// WithNow overrides the time source (useful for tests).
func WithNow(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCoordinator constructs a coordinator over the two generation paths.
func NewCoordinator(
	baseline, experimental Generator,
	validator Validator,
	recorder Recorder,
	settings Settings,
	logger *slog.Logger,
	opts ...Option,
) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	coordinator := &Coordinator{
		baseline:     baseline,
		experimental: experimental,
		validator:    validator,
		recorder:     recorder,
		logger:       logger,
		now:          time.Now,
	}
	coordinator.UpdateSettings(settings)
	for _, opt := range opts {
		opt(coordinator)
	}
	return coordinator
}

// UpdateSettings atomically replaces the coordinator's settings snapshot.
func (c *Coordinator) UpdateSettings(settings Settings) {
	c.snapshot.Store(&settingsSnapshot{
		settings: settings,
		selector: rollout.NewSelector(settings.Rollout),
	})
}

// Settings returns the current settings.
func (c *Coordinator) Settings() Settings {
	return c.snapshot.Load().settings
}

// Result is the outcome of one coordinator call.
type Result struct {
	Artifacts []artifact.Artifact
	Path      monitor.Path
	Err       error
}

// coordinator states, named after the transitions they take.
type state int

const (
	stateSelectPath state = iota
	stateExecute
	stateFallbackExecute
	stateValidate
	stateRecord
	stateDone
	stateFailed
)

// Process drives the item through the state machine. Exactly one session is
// recorded per call, whatever path is taken and however many fallbacks
// occur. The returned error is non-nil only when no path produced a valid
// result.
func (c *Coordinator) Process(ctx context.Context, item workitem.Item) Result {
	snap := c.snapshot.Load()
	started := c.now()
	ctx = services.WithItemID(ctx, item.ID)
	logger := c.logger.With(logging.String(logging.FieldItemID, item.ID))

	var (
		current   = stateSelectPath
		path      monitor.Path
		generator Generator
		rawOutput string
		artifacts []artifact.Artifact
		runErr    error
		fellBack  bool
	)

	for current != stateDone && current != stateFailed {
		switch current {
		case stateSelectPath:
			path, generator = c.selectPath(ctx, item, snap, logger)
			current = stateExecute

		case stateExecute:
			rawOutput, runErr = generator.Run(ctx, item)
			if runErr != nil {
				logger.Warn("execution failed", logging.String("path", string(path)), logging.Error(runErr))
				current = c.afterFailure(path, snap, logger)
				break
			}
			current = stateValidate

		case stateFallbackExecute:
			fellBack = true
			path = monitor.PathExperimentalFallback
			rawOutput, runErr = c.baseline.Run(ctx, item)
			if runErr != nil {
				logger.Error("fallback execution failed", logging.Error(runErr))
				current = stateRecord
				break
			}
			current = stateValidate

		case stateValidate:
			artifacts, runErr = c.validator.Validate(rawOutput, item)
			if runErr != nil {
				logger.Warn("validation failed", logging.String("path", string(path)), logging.Error(runErr))
				current = c.afterFailure(path, snap, logger)
				break
			}
			c.scoreArtifacts(artifacts, path)
			current = stateRecord

		case stateRecord:
			c.recordSession(ctx, item, path, artifacts, runErr, c.now().Sub(started), logger)
			if runErr != nil {
				current = stateFailed
			} else {
				current = stateDone
			}
		}
	}

	if runErr == nil {
		logger.Info("generation complete",
			logging.String("path", string(path)),
			logging.Int("artifacts", len(artifacts)),
			logging.Bool("fallback", fellBack),
		)
	}
	return Result{Artifacts: artifacts, Path: path, Err: runErr}
}

// selectPath picks the generation path. A standing rollback verdict forces
// the baseline no matter what the selector says.
func (c *Coordinator) selectPath(ctx context.Context, item workitem.Item, snap *settingsSnapshot, logger *slog.Logger) (monitor.Path, Generator) {
	rollback, err := c.recorder.ShouldRollback(ctx)
	if err != nil {
		logger.Warn("rollback check failed, assuming baseline", logging.Error(err))
		return monitor.PathBaseline, c.baseline
	}
	if rollback {
		logger.Warn("experimental path rolled back, forcing baseline")
		return monitor.PathBaseline, c.baseline
	}
	if snap.selector.ShouldUseExperimental(item.ID) {
		return monitor.PathExperimental, c.experimental
	}
	return monitor.PathBaseline, c.baseline
}

// afterFailure decides where a failed execute or validate goes: a failed
// experimental run falls back to the baseline when enabled, everything else
// records the failure.
func (c *Coordinator) afterFailure(path monitor.Path, snap *settingsSnapshot, logger *slog.Logger) state {
	if path == monitor.PathExperimental && snap.settings.AutoFallback {
		logger.Info("falling back to baseline")
		return stateFallbackExecute
	}
	return stateRecord
}

func (c *Coordinator) scoreArtifacts(artifacts []artifact.Artifact, path monitor.Path) {
	method := "single-pass"
	if path == monitor.PathExperimental {
		method = "staged-pipeline"
	}
	for i := range artifacts {
		artifacts[i].GenerationMethod = method
		artifacts[i].QualityScore = artifact.Score(artifacts[i])
	}
}

func (c *Coordinator) recordSession(
	ctx context.Context,
	item workitem.Item,
	path monitor.Path,
	artifacts []artifact.Artifact,
	runErr error,
	elapsed time.Duration,
	logger *slog.Logger,
) {
	scores := make([]float64, 0, len(artifacts))
	for _, a := range artifacts {
		scores = append(scores, a.QualityScore)
	}
	session := monitor.Session{
		WorkItemID:    item.ID,
		Path:          path,
		Duration:      elapsed,
		ArtifactCount: len(artifacts),
		QualityScores: scores,
		ErrorOccurred: runErr != nil,
	}
	if err := c.recorder.Record(ctx, session); err != nil {
		logger.Warn("session record failed", logging.Error(err))
	}
}
