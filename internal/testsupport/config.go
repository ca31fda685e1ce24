package testsupport

import (
	"path/filepath"
	"testing"

	"storyforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.LLM.APIKey = "test"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Generation.BatchPauseSeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRollout enables the experimental path at the supplied percentage.
func WithRollout(percentage int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Rollout.Enabled = true
		cfg.Rollout.Percentage = percentage
	}
}

// WithAPIKey overrides the backend credential on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM.APIKey = key
	}
}
