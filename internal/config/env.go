package config

import (
	"strconv"
	"strings"
)

// Environment override keys. The file remains the primary surface; these
// exist so deployments can flip rollout knobs without editing TOML.
const (
	EnvAPIKey            = "STORYFORGE_API_KEY"
	EnvRolloutEnabled    = "STORYFORGE_ROLLOUT_ENABLED"
	EnvRolloutPercentage = "STORYFORGE_ROLLOUT_PERCENTAGE"
	EnvQualityThreshold  = "STORYFORGE_QUALITY_THRESHOLD"
	EnvErrorThreshold    = "STORYFORGE_ERROR_THRESHOLD"
	EnvMinSampleSize     = "STORYFORGE_MIN_SAMPLE_SIZE"
	EnvAutoFallback      = "STORYFORGE_AUTO_FALLBACK"
	EnvMaxPerMinute      = "STORYFORGE_MAX_PER_MINUTE"
	EnvMaxPerDay         = "STORYFORGE_MAX_PER_DAY"
)

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAPIKey)); v != "" {
		c.LLM.APIKey = v
	}
	if v, ok := envBool(getenv(EnvRolloutEnabled)); ok {
		c.Rollout.Enabled = v
	}
	if v, ok := envInt(getenv(EnvRolloutPercentage)); ok {
		c.Rollout.Percentage = v
	}
	if v, ok := envFloat(getenv(EnvQualityThreshold)); ok {
		c.Rollout.QualityThreshold = v
	}
	if v, ok := envFloat(getenv(EnvErrorThreshold)); ok {
		c.Rollout.ErrorThreshold = v
	}
	if v, ok := envInt(getenv(EnvMinSampleSize)); ok {
		c.Rollout.MinSampleSize = v
	}
	if v, ok := envBool(getenv(EnvAutoFallback)); ok {
		c.Rollout.AutoFallback = v
	}
	if v, ok := envInt(getenv(EnvMaxPerMinute)); ok {
		c.Quota.MaxPerMinute = v
	}
	if v, ok := envInt(getenv(EnvMaxPerDay)); ok {
		c.Quota.MaxPerDay = v
	}
}

func envBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}

func envInt(value string) (int, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func envFloat(value string) (float64, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
