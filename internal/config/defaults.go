package config

const (
	defaultDataDir             = "~/.local/share/storyforge"
	defaultLogDir              = "~/.local/share/storyforge/logs"
	defaultBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel               = "google/gemini-3-flash-preview"
	defaultReferer             = "https://github.com/storyforge/storyforge"
	defaultTitle               = "Storyforge"
	defaultLLMTimeoutSeconds   = 120
	defaultMaxPerMinute        = 10
	defaultMaxPerDay           = 150
	defaultQuotaTimezone       = "UTC"
	defaultRolloutSeed         = "storyforge"
	defaultQualityThreshold    = 5.5
	defaultErrorThreshold      = 15.0
	defaultMinSampleSize       = 5
	defaultRetentionDays       = 30
	defaultStageTimeoutSeconds = 120
	defaultBatchSize           = 3
	defaultBatchPauseSeconds   = 5
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults. Rollout is
// disabled at 0% so a fresh install never routes traffic to the experimental
// path without being positively configured.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultBaseURL,
			Model:          defaultModel,
			Referer:        defaultReferer,
			Title:          defaultTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Quota: Quota{
			MaxPerMinute: defaultMaxPerMinute,
			MaxPerDay:    defaultMaxPerDay,
			Timezone:     defaultQuotaTimezone,
		},
		Rollout: Rollout{
			Enabled:          false,
			Percentage:       0,
			Seed:             defaultRolloutSeed,
			QualityThreshold: defaultQualityThreshold,
			ErrorThreshold:   defaultErrorThreshold,
			MinSampleSize:    defaultMinSampleSize,
			AutoFallback:     true,
		},
		Monitoring: Monitoring{
			Enabled:       true,
			RetentionDays: defaultRetentionDays,
		},
		Generation: Generation{
			StageTimeoutSeconds: defaultStageTimeoutSeconds,
			BatchSize:           defaultBatchSize,
			BatchPauseSeconds:   defaultBatchPauseSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
