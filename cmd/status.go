package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nebulascloud/jaci/internal/health"
	"github.com/nebulascloud/jaci/internal/models"
	"github.com/nebulascloud/jaci/internal/output"
	"github.com/nebulascloud/jaci/internal/store"
)

var statusWindow int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline health dashboard",
	Long: `Show the pipeline health score and the latest result per stage.

The health score (0-100) weighs recent run success, coverage
attainment against the configured threshold, and activity recency.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusRun(cmd.Context())
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusWindow, "window", 20, "Number of recent runs to score")
	rootCmd.AddCommand(statusCmd)
}

func statusRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	runs, err := s.ListRuns(ctx, store.RunListFilter{Limit: statusWindow})
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		ui.Info("No runs recorded. Run 'jaci run' to get started.")
		return nil
	}

	scorer := health.NewScorer(viper.GetFloat64("coverage.threshold"))
	h := scorer.Score(runs)

	fmt.Fprintf(ui.Out, "Pipeline health: %s\n", output.HealthColor(h.Total))
	fmt.Fprintf(ui.Out, "  success rate         %d/40\n", h.SuccessRate)
	fmt.Fprintf(ui.Out, "  coverage attainment  %d/30\n", h.CoverageAttainment)
	fmt.Fprintf(ui.Out, "  activity recency     %d/30\n", h.ActivityRecency)
	fmt.Fprintln(ui.Out)

	table := ui.Table([]string{"Stage", "Status", "Coverage", "When"})
	for _, stage := range []models.Stage{models.StagePreflight, models.StageQuality, models.StageTest, models.StageBuild} {
		r := latestForStage(runs, stage)
		if r == nil {
			table.Append([]string{string(stage), "n/a", "", ""})
			continue
		}
		coverage := ""
		if r.Coverage > 0 {
			coverage = fmt.Sprintf("%.1f%%", r.Coverage)
		}
		table.Append([]string{
			string(stage),
			output.StatusColor(string(r.Status)),
			coverage,
			timeAgo(r.CreatedAt),
		})
	}
	table.Render()
	return nil
}

// latestForStage returns the newest run for a stage, runs are newest first.
func latestForStage(runs []*models.PipelineRun, stage models.Stage) *models.PipelineRun {
	for _, r := range runs {
		if r.Stage == stage {
			return r
		}
	}
	return nil
}
