package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nebulascloud/jaci/internal/models"
	"github.com/nebulascloud/jaci/internal/pipeline"
	"github.com/nebulascloud/jaci/internal/preflight"
)

var runKeepGoing bool

var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Run the full pipeline: preflight, quality, test, build",
	Long: `Run every pipeline stage in order against the target project.
A failing stage stops the pipeline unless --keep-going is set.
Each stage outcome is recorded in the run history.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return pipelineRun(cmd.Context(), args)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runKeepGoing, "keep-going", false, "Continue with later stages after a failure")
	rootCmd.AddCommand(runCmd)
}

func pipelineRun(ctx context.Context, args []string) error {
	src, err := sourcePath(args...)
	if err != nil {
		return err
	}
	start := time.Now()

	// Preflight runs on the host before any container spins up.
	ui.Info("Stage 1/4: preflight")
	checks := preflight.NewChecker().Run(src)
	ready := preflight.Ready(checks)
	recordStageRun(ctx, models.StagePreflight, ready, 0, time.Since(start),
		fmt.Sprintf("%d checks, ready=%t", len(checks), ready), checks, src)
	if !ready {
		for _, c := range checks {
			if c.Required && !c.Passed {
				ui.Error("%s: %s", c.Name, c.Detail)
			}
		}
		return fmt.Errorf("preflight failed")
	}
	ui.Success("Preflight passed")

	eng, err := newEngine(ctx, args...)
	if err != nil {
		return err
	}
	defer eng.Close()

	failed := false

	ui.Info("Stage 2/4: quality")
	qres, err := eng.RunQuality(ctx, pipeline.QualityOptions{})
	if err != nil {
		return fmt.Errorf("quality stage: %w", err)
	}
	printQualityResult(qres)
	recordStageRun(ctx, models.StageQuality, qres.Success, 0, qres.Duration, qres.Summary(), qres, src)
	if !qres.Success {
		if !runKeepGoing {
			return fmt.Errorf("quality checks failed")
		}
		failed = true
	}

	ui.Info("Stage 3/4: test")
	tres, err := eng.RunTests(ctx, pipeline.TestOptions{
		CoverageThreshold: viper.GetFloat64("coverage.threshold"),
		ExportArtifacts:   true,
		ArtifactsDir:      viper.GetString("artifacts_dir") + "/test",
		WithMocks:         true,
	})
	if err != nil {
		return fmt.Errorf("test stage: %w", err)
	}
	printTestResult(tres)
	recordStageRun(ctx, models.StageTest, tres.Success, tres.Coverage, tres.Duration, tres.Summary(), tres, src)
	if !tres.Success {
		if !runKeepGoing {
			return fmt.Errorf("tests failed")
		}
		failed = true
	}

	ui.Info("Stage 4/4: build")
	bres, err := eng.RunBuild(ctx, buildOptions())
	if err != nil {
		return fmt.Errorf("build stage: %w", err)
	}
	printBuildResult(bres)
	recordStageRun(ctx, models.StageBuild, bres.Success, 0, bres.Duration, bres.Summary(), bres, src)
	if !bres.Success {
		failed = true
	}

	total := time.Since(start)
	success := !failed
	recordStageRun(ctx, models.StagePipeline, success, tres.Coverage, total,
		fmt.Sprintf("quality=%t test=%t build=%t", qres.Success, tres.Success, bres.Success), nil, src)

	fmt.Fprintln(ui.Out)
	if !success {
		ui.Error("Pipeline failed in %s", total.Round(time.Second))
		return fmt.Errorf("pipeline failed")
	}
	ui.Success("Pipeline passed in %s", total.Round(time.Second))
	return nil
}
