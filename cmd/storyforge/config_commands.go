package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"storyforge/internal/config"
)

func newConfigCommand(cmdCtx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(cmdCtx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintf(out, "Edit the file to set llm.api_key (or export %s) before running storyforge.\n", config.EnvAPIKey)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", cmdCtx.configPath)
			if !cmdCtx.configExists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}

			apiKey := "(unset)"
			if cfg.LLM.APIKey != "" {
				apiKey = "(set)"
			}
			rolloutState := "disabled"
			if cfg.Rollout.Enabled {
				rolloutState = fmt.Sprintf("%d%%", cfg.Rollout.Percentage)
			}

			rows := [][]string{
				{"paths.data_dir", cfg.Paths.DataDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"llm.api_key", apiKey},
				{"llm.base_url", cfg.LLM.BaseURL},
				{"llm.model", cfg.LLM.Model},
				{"quota.max_per_minute", fmt.Sprintf("%d", cfg.Quota.MaxPerMinute)},
				{"quota.max_per_day", fmt.Sprintf("%d", cfg.Quota.MaxPerDay)},
				{"quota.timezone", cfg.Quota.Timezone},
				{"rollout", rolloutState},
				{"rollout.seed", cfg.Rollout.Seed},
				{"rollout.quality_threshold", fmt.Sprintf("%.1f", cfg.Rollout.QualityThreshold)},
				{"rollout.error_threshold", fmt.Sprintf("%.1f", cfg.Rollout.ErrorThreshold)},
				{"rollout.min_sample_size", fmt.Sprintf("%d", cfg.Rollout.MinSampleSize)},
				{"rollout.auto_fallback", fmt.Sprintf("%t", cfg.Rollout.AutoFallback)},
				{"monitoring.enabled", fmt.Sprintf("%t", cfg.Monitoring.Enabled)},
				{"monitoring.retention_days", fmt.Sprintf("%d", cfg.Monitoring.RetentionDays)},
				{"generation.stage_timeout_seconds", fmt.Sprintf("%d", cfg.Generation.StageTimeoutSeconds)},
				{"generation.batch_size", fmt.Sprintf("%d", cfg.Generation.BatchSize)},
				{"generation.batch_pause_seconds", fmt.Sprintf("%d", cfg.Generation.BatchPauseSeconds)},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Setting", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}
