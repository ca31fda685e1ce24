package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateQuota(); err != nil {
		return err
	}
	if err := c.validateRollout(); err != nil {
		return err
	}
	if err := c.validateMonitoring(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateQuota() error {
	if c.Quota.MaxPerMinute <= 0 {
		return errors.New("quota.max_per_minute must be positive")
	}
	if c.Quota.MaxPerDay <= 0 {
		return errors.New("quota.max_per_day must be positive")
	}
	if c.Quota.Timezone != "" {
		if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
			return fmt.Errorf("quota.timezone: %w", err)
		}
	}
	return nil
}

func (c *Config) validateRollout() error {
	if c.Rollout.Percentage < 0 || c.Rollout.Percentage > 100 {
		return errors.New("rollout.percentage must be between 0 and 100")
	}
	if c.Rollout.QualityThreshold < 0 || c.Rollout.QualityThreshold > 10 {
		return errors.New("rollout.quality_threshold must be between 0 and 10")
	}
	if c.Rollout.ErrorThreshold < 0 || c.Rollout.ErrorThreshold > 100 {
		return errors.New("rollout.error_threshold must be between 0 and 100 (percent)")
	}
	if c.Rollout.MinSampleSize < 1 {
		return errors.New("rollout.min_sample_size must be >= 1")
	}
	if c.Rollout.Enabled && c.Rollout.Seed == "" {
		return errors.New("rollout.seed must be set when rollout.enabled is true")
	}
	return nil
}

func (c *Config) validateMonitoring() error {
	if c.Monitoring.RetentionDays < 0 {
		return errors.New("monitoring.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if c.Generation.StageTimeoutSeconds <= 0 {
		return errors.New("generation.stage_timeout_seconds must be positive")
	}
	if c.Generation.BatchSize <= 0 {
		return errors.New("generation.batch_size must be positive")
	}
	if c.Generation.BatchPauseSeconds < 0 {
		return errors.New("generation.batch_pause_seconds must be >= 0")
	}
	return nil
}

// RequireAPIKey reports an error when no backend credential is configured.
// Called by commands that actually reach the generative backend so read-only
// commands (report, status, config) keep working without one.
func (c *Config) RequireAPIKey() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/storyforge/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set %s or edit %s (create with 'storyforge config init')", EnvAPIKey, defaultPath)
	}
	return nil
}

// QuotaLocation resolves the configured day-boundary timezone.
func (c *Config) QuotaLocation() *time.Location {
	if c.Quota.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Quota.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
