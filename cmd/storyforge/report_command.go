package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storyforge/internal/monitor"
)

func newReportCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Compare baseline and experimental generation performance",
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
			mon, store, err := cmdCtx.openMonitor(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			comparison, err := mon.ComparisonReport(cmd.Context())
			if err != nil {
				return err
			}
			printComparison(cmd, comparison)
			return nil
		},
	}
}

func printComparison(cmd *cobra.Command, comparison monitor.Comparison) {
	out := cmd.OutOrStdout()
	titler := cases.Title(language.Und)

	rows := [][]string{
		statsRow(titler.String(string(monitor.PathBaseline)), comparison.Baseline),
		statsRow(titler.String(string(monitor.PathExperimental)), comparison.Experimental),
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Path", "Sessions", "Mean Quality", "Mean Duration", "Error Rate"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))

	if comparison.Recommendation == monitor.RecommendInsufficientData {
		fmt.Fprintln(out, "Not enough sessions on both paths to compare yet.")
		return
	}

	fmt.Fprintf(out, "Quality improvement:   %+.2f\n", comparison.QualityImprovement)
	fmt.Fprintf(out, "Time difference:       %s\n", formatSignedDuration(comparison.TimeDifference))
	fmt.Fprintf(out, "Error rate difference: %+.1f%%\n", comparison.ErrorRateDifference)
	fmt.Fprintf(out, "Recommendation:        %s rollout percentage\n", comparison.Recommendation)
}

func statsRow(label string, stats monitor.PathStats) []string {
	return []string{
		label,
		strconv.Itoa(stats.Count),
		fmt.Sprintf("%.2f", stats.MeanQuality),
		stats.MeanDuration.Round(time.Millisecond).String(),
		fmt.Sprintf("%.1f%%", stats.ErrorRate),
	}
}

func formatSignedDuration(d time.Duration) string {
	rounded := d.Round(time.Millisecond)
	if rounded >= 0 {
		return "+" + rounded.String()
	}
	return rounded.String()
}
