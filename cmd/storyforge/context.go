package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"storyforge/internal/config"
	"storyforge/internal/logging"
	"storyforge/internal/monitor"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			"stderr",
			filepath.Join(cfg.Paths.LogDir, "storyforge.log"),
		},
	})
}

func (c *commandContext) openMonitor(cfg *config.Config, logger *slog.Logger) (*monitor.Monitor, *monitor.Store, error) {
	store, err := monitor.OpenStore(filepath.Join(cfg.Paths.DataDir, "sessions.db"))
	if err != nil {
		return nil, nil, err
	}
	mon := monitor.New(store, monitor.Settings{
		QualityThreshold: cfg.Rollout.QualityThreshold,
		ErrorThreshold:   cfg.Rollout.ErrorThreshold,
		MinSampleSize:    cfg.Rollout.MinSampleSize,
	}, cfg.Monitoring.Enabled, logger)
	return mon, store, nil
}
