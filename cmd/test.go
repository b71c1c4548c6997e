package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nebulascloud/jaci/internal/models"
	"github.com/nebulascloud/jaci/internal/pipeline"
)

var (
	testFilter     string
	testSequential bool
	testThreshold  float64
	testNoExport   bool
	testSkipMocks  bool
	testArtifacts  string
)

var testCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Run test suites in containers",
	Long: `Run the test stage: unit, integration, and performance suites
in parallel containers. Integration tests run against mock Jira and
OpenAI services. Coverage is measured on the unit suite and compared
against the configured threshold.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return testRun(cmd.Context(), args)
	},
}

func init() {
	testCmd.Flags().StringVar(&testFilter, "filter", "", "Run only suites whose name contains this string")
	testCmd.Flags().BoolVar(&testSequential, "sequential", false, "Run suites one at a time instead of in parallel")
	testCmd.Flags().Float64Var(&testThreshold, "coverage-threshold", 0, "Minimum statement coverage percent (default from config)")
	testCmd.Flags().BoolVar(&testNoExport, "no-export", false, "Skip exporting coverage and JUnit artifacts")
	testCmd.Flags().BoolVar(&testSkipMocks, "skip-mocks", false, "Run integration tests without mock services")
	testCmd.Flags().StringVar(&testArtifacts, "artifacts-dir", "", "Directory for exported test artifacts (default <artifacts_dir>/test)")
	rootCmd.AddCommand(testCmd)
}

func testRun(ctx context.Context, args []string) error {
	eng, err := newEngine(ctx, args...)
	if err != nil {
		return err
	}
	defer eng.Close()

	threshold := testThreshold
	if threshold == 0 {
		threshold = viper.GetFloat64("coverage.threshold")
	}
	artifactsDir := testArtifacts
	if artifactsDir == "" {
		artifactsDir = viper.GetString("artifacts_dir") + "/test"
	}

	opts := pipeline.TestOptions{
		Filter:            testFilter,
		Sequential:        testSequential,
		CoverageThreshold: threshold,
		ExportArtifacts:   !testNoExport,
		ArtifactsDir:      artifactsDir,
		WithMocks:         !testSkipMocks,
	}

	res, err := eng.RunTests(ctx, opts)
	if err != nil {
		return fmt.Errorf("test stage: %w", err)
	}

	printTestResult(res)
	recordStageRun(ctx, models.StageTest, res.Success, res.Coverage, res.Duration, res.Summary(), res, eng.SourcePath())

	if !res.Success {
		return fmt.Errorf("tests failed")
	}
	return nil
}
