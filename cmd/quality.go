package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nebulascloud/jaci/internal/models"
	"github.com/nebulascloud/jaci/internal/pipeline"
)

var qualitySequential bool

var qualityCmd = &cobra.Command{
	Use:   "quality [path]",
	Short: "Run code quality checks in containers",
	Long: `Run the quality stage: gofmt, go vet, staticcheck, and gosec
against the target project, each in its own container. Security
findings are reported as warnings and do not fail the stage.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return qualityRun(cmd.Context(), args)
	},
}

func init() {
	qualityCmd.Flags().BoolVar(&qualitySequential, "sequential", false, "Run checks one at a time instead of in parallel")
	rootCmd.AddCommand(qualityCmd)
}

func qualityRun(ctx context.Context, args []string) error {
	eng, err := newEngine(ctx, args...)
	if err != nil {
		return err
	}
	defer eng.Close()

	res, err := eng.RunQuality(ctx, pipeline.QualityOptions{Sequential: qualitySequential})
	if err != nil {
		return fmt.Errorf("quality stage: %w", err)
	}

	printQualityResult(res)
	recordStageRun(ctx, models.StageQuality, res.Success, 0, res.Duration, res.Summary(), res, eng.SourcePath())

	if !res.Success {
		return fmt.Errorf("quality checks failed")
	}
	return nil
}
