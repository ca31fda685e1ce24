package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"storyforge/internal/artifact"
	"storyforge/internal/batch"
	"storyforge/internal/catalog"
	"storyforge/internal/generation"
	"storyforge/internal/llm"
	"storyforge/internal/pipeline"
	"storyforge/internal/quota"
	"storyforge/internal/rollout"
	"storyforge/internal/services"
	"storyforge/internal/workitem"
)

func newProcessCommand(cmdCtx *commandContext) *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "process <work-items.json>",
		Short: "Generate artifacts for a file of work items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return err
			}
			logger, err := cmdCtx.newLogger(cfg)
			if err != nil {
				return err
			}

			items, err := workitem.LoadFile(args[0])
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No work items to process.")
				return nil
			}

			runLock := flock.New(filepath.Join(cfg.Paths.DataDir, "storyforge.lock"))
			locked, err := runLock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another storyforge run is already in progress")
			}
			defer func() { _ = runLock.Unlock() }()

			mon, store, err := cmdCtx.openMonitor(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			artifactStore, err := catalog.Open(filepath.Join(cfg.Paths.DataDir, "artifacts.db"))
			if err != nil {
				return err
			}
			defer func() { _ = artifactStore.Close() }()

			guard := quota.NewGuard(cfg.Quota.MaxPerMinute, cfg.Quota.MaxPerDay, cfg.QuotaLocation())
			client := llm.NewClient(llm.Config{
				APIKey:         cfg.LLM.APIKey,
				BaseURL:        cfg.LLM.BaseURL,
				Model:          cfg.LLM.Model,
				Referer:        cfg.LLM.Referer,
				Title:          cfg.LLM.Title,
				TimeoutSeconds: cfg.LLM.TimeoutSeconds,
			})

			stageTimeout := time.Duration(cfg.Generation.StageTimeoutSeconds) * time.Second
			staged := pipeline.New(client, guard, logger, pipeline.WithStageTimeout(stageTimeout))
			baseline, err := generation.NewBaseline(client, guard, logger, cfg.Generation.PromptPath, stageTimeout)
			if err != nil {
				return err
			}

			coordinator := generation.NewCoordinator(
				baseline,
				staged,
				artifact.NewValidator(logger),
				mon,
				generation.Settings{
					Rollout: rollout.Settings{
						Enabled:    cfg.Rollout.Enabled,
						Percentage: cfg.Rollout.Percentage,
						Seed:       cfg.Rollout.Seed,
					},
					AutoFallback: cfg.Rollout.AutoFallback,
				},
				logger,
			)

			size := cfg.Generation.BatchSize
			if batchSize > 0 {
				size = batchSize
			}
			runner := batch.NewRunner(coordinator, logger,
				batch.WithBatchSize(size),
				batch.WithPause(time.Duration(cfg.Generation.BatchPauseSeconds)*time.Second),
			)

			ctx := services.WithRequestID(cmd.Context(), uuid.NewString())
			summary, runErr := runner.Run(ctx, items)

			for _, outcome := range summary.Outcomes {
				if len(outcome.Artifacts) == 0 {
					continue
				}
				if err := artifactStore.Save(ctx, outcome.ItemID, outcome.Artifacts); err != nil {
					return fmt.Errorf("persist artifacts for %s: %w", outcome.ItemID, err)
				}
			}
			if _, err := mon.PruneOlderThan(ctx, cfg.Monitoring.RetentionDays); err != nil {
				logger.Warn("session pruning failed", "error", err)
			}

			printRunSummary(cmd, summary)
			if runErr != nil {
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Override the configured batch size")
	return cmd
}

func printRunSummary(cmd *cobra.Command, summary batch.Summary) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		status := "ok"
		if outcome.Err != nil {
			status = outcome.Err.Error()
		}
		rows = append(rows, []string{
			outcome.ItemID,
			outcome.Title,
			string(outcome.Path),
			strconv.Itoa(len(outcome.Artifacts)),
			status,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Item", "Title", "Path", "Artifacts", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "Processed %d items: %d artifacts, %d errors\n",
		summary.ItemsProcessed, summary.ArtifactCount, summary.Errors)
}
