package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nebulascloud/jaci/internal/models"
	"github.com/nebulascloud/jaci/internal/output"
	"github.com/nebulascloud/jaci/internal/preflight"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight [path]",
	Short: "Check that the target project is ready for the pipeline",
	Long: `Check the target directory for the files the pipeline needs:
a Go module, an entrypoint, and the supporting files the later stages
expect. Required checks block the pipeline; the rest are advisory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return preflightRun(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(preflightCmd)
}

func preflightRun(ctx context.Context, args []string) error {
	src, err := sourcePath(args...)
	if err != nil {
		return err
	}

	start := time.Now()
	checks := preflight.NewChecker().Run(src)
	ready := preflight.Ready(checks)

	table := ui.Table([]string{"Check", "Status", "Detail"})
	for _, c := range checks {
		status := "pass"
		if !c.Passed {
			status = "fail"
			if !c.Required {
				status = "warning"
			}
		}
		table.Append([]string{c.Name, output.StatusColor(status), c.Detail})
	}
	table.Render()
	fmt.Fprintln(ui.Out)

	summary := fmt.Sprintf("%d checks, ready=%t", len(checks), ready)
	recordStageRun(ctx, models.StagePreflight, ready, 0, time.Since(start), summary, checks, src)

	if !ready {
		ui.Error("Project is not ready: fix the required checks above")
		return fmt.Errorf("preflight failed")
	}
	ui.Success("Project is ready for the pipeline")
	return nil
}
