package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"storyforge/internal/logging"
)

// Recommendation tags emitted by ComparisonReport.
const (
	RecommendIncrease         = "increase"
	RecommendDecrease         = "decrease"
	RecommendMaintain         = "maintain"
	RecommendInsufficientData = "insufficient_data"
)

// Comparative thresholds behind the recommendation tag.
const (
	qualityGainForIncrease = 1.0
	errorGainForIncrease   = 5.0
	qualityLossForDecrease = -1.0
	errorGainForDecrease   = 10.0
)

// Settings holds the rollback thresholds.
type Settings struct {
	QualityThreshold float64
	ErrorThreshold   float64
	MinSampleSize    int
}

// Monitor records generation sessions and evaluates rollback conditions over
// the experimental cohort.
type Monitor struct {
	store    *Store
	settings Settings
	logger   *slog.Logger
	enabled  bool
	now      func() time.Time
}

// Option customizes the monitor.
type Option func(*Monitor)

// WithNow overrides the timestamp source (useful for tests).
func WithNow(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New constructs a monitor over the supplied store. A disabled monitor
// records nothing and never recommends rollback.
func New(store *Store, settings Settings, enabled bool, logger *slog.Logger, opts ...Option) *Monitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	monitor := &Monitor{
		store:    store,
		settings: settings,
		logger:   logger,
		enabled:  enabled,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(monitor)
	}
	return monitor
}

// Record appends one session. Missing fields derivable from the session
// itself (id, average quality, timestamp) are filled in.
func (m *Monitor) Record(ctx context.Context, session Session) error {
	if !m.enabled {
		return nil
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.AvgQuality == 0 {
		session.AvgQuality = meanScore(session.QualityScores)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = m.now()
	}

	if err := m.store.Insert(ctx, session); err != nil {
		return err
	}
	m.logger.Info("session recorded",
		logging.String(logging.FieldItemID, session.WorkItemID),
		logging.String("path", string(session.Path)),
		logging.Int("artifacts", session.ArtifactCount),
		logging.Float64("avg_quality", session.AvgQuality),
		logging.Bool("error", session.ErrorOccurred),
		logging.Duration("duration", session.Duration),
	)
	return nil
}

// ShouldRollback reports whether the experimental path has accumulated
// enough evidence of degradation to force every item onto the baseline.
// Fallback sessions are excluded: they measure the baseline rescuing an
// experimental failure, not the experimental path itself.
func (m *Monitor) ShouldRollback(ctx context.Context) (bool, error) {
	if !m.enabled {
		return false, nil
	}
	stats, err := m.store.StatsForPaths(ctx, PathExperimental)
	if err != nil {
		return false, err
	}
	if stats.Count < m.settings.MinSampleSize {
		return false, nil
	}
	if stats.MeanQuality < m.settings.QualityThreshold {
		m.logger.Warn("experimental quality below threshold",
			logging.Float64("mean_quality", stats.MeanQuality),
			logging.Float64("threshold", m.settings.QualityThreshold),
		)
		return true, nil
	}
	if stats.ErrorRate > m.settings.ErrorThreshold {
		m.logger.Warn("experimental error rate above threshold",
			logging.Float64("error_rate", stats.ErrorRate),
			logging.Float64("threshold", m.settings.ErrorThreshold),
		)
		return true, nil
	}
	return false, nil
}

// Comparison is the read-only aggregate surface exposed for dashboards.
type Comparison struct {
	Baseline     PathStats
	Experimental PathStats

	QualityImprovement  float64
	TimeDifference      time.Duration
	ErrorRateDifference float64
	Recommendation      string
}

// ComparisonReport aggregates both paths and derives a rollout
// recommendation. Fallback sessions count toward the baseline: the baseline
// generator produced their artifacts.
func (m *Monitor) ComparisonReport(ctx context.Context) (Comparison, error) {
	baseline, err := m.store.StatsForPaths(ctx, PathBaseline, PathExperimentalFallback)
	if err != nil {
		return Comparison{}, err
	}
	experimental, err := m.store.StatsForPaths(ctx, PathExperimental)
	if err != nil {
		return Comparison{}, err
	}

	comparison := Comparison{
		Baseline:       baseline,
		Experimental:   experimental,
		Recommendation: RecommendInsufficientData,
	}
	if baseline.Count == 0 || experimental.Count == 0 {
		return comparison, nil
	}

	comparison.QualityImprovement = experimental.MeanQuality - baseline.MeanQuality
	comparison.TimeDifference = experimental.MeanDuration - baseline.MeanDuration
	comparison.ErrorRateDifference = experimental.ErrorRate - baseline.ErrorRate

	switch {
	case comparison.QualityImprovement > qualityGainForIncrease && comparison.ErrorRateDifference < errorGainForIncrease:
		comparison.Recommendation = RecommendIncrease
	case comparison.QualityImprovement < qualityLossForDecrease || comparison.ErrorRateDifference > errorGainForDecrease:
		comparison.Recommendation = RecommendDecrease
	default:
		comparison.Recommendation = RecommendMaintain
	}
	return comparison, nil
}

// PruneOlderThan enforces the retention window.
func (m *Monitor) PruneOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := m.now().AddDate(0, 0, -retentionDays)
	removed, err := m.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		m.logger.Info("pruned expired sessions", logging.Int("removed", int(removed)), logging.Int("retention_days", retentionDays))
	}
	return removed, nil
}
