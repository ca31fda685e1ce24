package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storyforge/internal/catalog"
	"storyforge/internal/monitor"
	"storyforge/internal/quota"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, rollout, session, and quota state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.newLogger(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := make([]string, 0, 32)

			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			configKind := statusOK
			configMessage := cmdCtx.configPath
			if !cmdCtx.configExists {
				configKind = statusWarn
				configMessage = "defaults in use, no file at " + cmdCtx.configPath
			}
			lines = append(lines,
				renderStatusLine("Config file", configKind, configMessage, colorize),
				renderStatusLine("Data directory", statusInfo, cfg.Paths.DataDir, colorize),
				renderStatusLine("Log directory", statusInfo, cfg.Paths.LogDir, colorize),
				renderStatusLine("Model", statusInfo, cfg.LLM.Model, colorize),
			)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Rollout", colorize)...)
			if cfg.Rollout.Enabled {
				lines = append(lines, renderStatusLine("Experimental path", statusOK,
					fmt.Sprintf("%d%% of items (seed %q)", cfg.Rollout.Percentage, cfg.Rollout.Seed), colorize))
			} else {
				lines = append(lines, renderStatusLine("Experimental path", statusInfo, "disabled", colorize))
			}

			mon, store, err := cmdCtx.openMonitor(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rollback, err := mon.ShouldRollback(cmd.Context())
			if err != nil {
				return err
			}
			if rollback {
				lines = append(lines, renderStatusLine("Rollback", statusWarn, "thresholds breached, forcing baseline", colorize))
			} else {
				lines = append(lines, renderStatusLine("Rollback", statusOK, "not triggered", colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Sessions", colorize)...)
			for _, path := range []monitor.Path{monitor.PathBaseline, monitor.PathExperimental, monitor.PathExperimentalFallback} {
				stats, err := store.StatsForPaths(cmd.Context(), path)
				if err != nil {
					return err
				}
				message := fmt.Sprintf("%d sessions", stats.Count)
				if stats.Count > 0 {
					message = fmt.Sprintf("%d sessions, mean quality %.2f, error rate %.1f%%",
						stats.Count, stats.MeanQuality, stats.ErrorRate)
				}
				lines = append(lines, renderStatusLine(string(path), statusInfo, message, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Quota", colorize)...)
			guard := quota.NewGuard(cfg.Quota.MaxPerMinute, cfg.Quota.MaxPerDay, cfg.QuotaLocation())
			snapshot := guard.Snapshot()
			lines = append(lines,
				renderStatusLine("Per minute", statusInfo, fmt.Sprintf("%d calls", snapshot.MinuteLimit), colorize),
				renderStatusLine("Per day", statusInfo, fmt.Sprintf("%d calls, resets %s",
					snapshot.DayLimit, snapshot.DayResetAt.Format(time.RFC3339)), colorize),
			)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Artifacts", colorize)...)
			artifactLines, err := renderArtifactStatus(cmd, cfg.Paths.DataDir, colorize)
			if err != nil {
				return err
			}
			lines = append(lines, artifactLines...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func renderArtifactStatus(cmd *cobra.Command, dataDir string, colorize bool) ([]string, error) {
	store, err := catalog.Open(filepath.Join(dataDir, "artifacts.db"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	total, err := store.Count(cmd.Context())
	if err != nil {
		return nil, err
	}
	lines := []string{renderStatusLine("Stored", statusInfo, fmt.Sprintf("%d artifacts", total), colorize)}
	if total == 0 {
		return lines, nil
	}

	counts, err := store.CountByContentType(cmd.Context())
	if err != nil {
		return nil, err
	}
	types := make([]string, 0, len(counts))
	for contentType := range counts {
		types = append(types, contentType)
	}
	sort.Strings(types)
	for _, contentType := range types {
		lines = append(lines, renderStatusLine(contentType, statusInfo, fmt.Sprintf("%d", counts[contentType]), colorize))
	}
	return lines, nil
}
