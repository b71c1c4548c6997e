package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nebulascloud/jaci/internal/models"
	"github.com/nebulascloud/jaci/internal/output"
	"github.com/nebulascloud/jaci/internal/pipeline"
)

// newEngine connects to the Dagger engine against the resolved source
// directory. Engine logs go to stderr only in verbose mode.
func newEngine(ctx context.Context, args ...string) (*pipeline.Engine, error) {
	src, err := sourcePath(args...)
	if err != nil {
		return nil, err
	}

	var logOutput io.Writer = io.Discard
	if verbose {
		logOutput = os.Stderr
	}

	ui.Info("Connecting to container engine...")
	eng, err := pipeline.NewEngine(ctx, src, logOutput)
	if err != nil {
		return nil, fmt.Errorf("connect to container engine: %w", err)
	}
	return eng, nil
}

// recordStageRun persists a stage outcome, best effort.
func recordStageRun(ctx context.Context, stage models.Stage, success bool, coverage float64, duration time.Duration, summary string, detail any, src string) {
	s, err := getStore()
	if err != nil {
		ui.VerboseLog("run not recorded: %v", err)
		return
	}
	status := models.RunStatusPass
	if !success {
		status = models.RunStatusFail
	}
	raw, _ := json.Marshal(detail)
	run := &models.PipelineRun{
		Stage:      stage,
		Status:     status,
		Success:    success,
		Coverage:   coverage,
		Duration:   duration,
		Summary:    summary,
		Detail:     string(raw),
		SourcePath: src,
	}
	if err := s.CreateRun(ctx, run); err != nil {
		ui.VerboseLog("run not recorded: %v", err)
	}
}

func printQualityResult(res *models.QualityResult) {
	table := ui.Table([]string{"Check", "Status", "Detail"})
	for _, c := range res.Checks {
		detail := firstLine(c.Output)
		table.Append([]string{c.Tool, output.StatusColor(string(c.Status)), detail})
	}
	table.Render()
	fmt.Fprintln(ui.Out)

	if res.Success {
		ui.Success("Quality stage passed in %s", res.Duration.Round(time.Second))
	} else {
		ui.Error("Quality stage failed in %s", res.Duration.Round(time.Second))
	}
}

func printTestResult(res *models.TestResult) {
	table := ui.Table([]string{"Suite", "Status", "Duration"})
	for _, s := range res.Suites {
		status := "pass"
		if !s.Passed {
			status = "fail"
		}
		table.Append([]string{s.Suite, output.StatusColor(status), s.Duration.Round(time.Second).String()})
	}
	table.Render()
	fmt.Fprintln(ui.Out)

	if res.Coverage > 0 {
		ui.Info("Coverage: %s (target %.0f%%)", output.CoverageColor(res.Coverage, res.CoverageTarget), res.CoverageTarget)
	}
	if res.ArtifactsExported {
		ui.Info("Test artifacts exported")
	}

	if res.Success {
		ui.Success("Test stage passed in %s", res.Duration.Round(time.Second))
	} else {
		ui.Error("Test stage failed in %s", res.Duration.Round(time.Second))
	}
}

func printBuildResult(res *models.BuildResult) {
	step := func(done bool, name string) {
		if done {
			ui.Success("%s", name)
		} else {
			ui.Warning("%s (skipped)", name)
		}
	}
	step(res.ImageBuilt, "Production image")
	step(res.PackagesGenerated, "Release packages")
	step(res.ManifestsCreated, "Deployment manifests")
	step(res.DocsGenerated, "Documentation")
	if res.ImageRef != "" {
		ui.Info("Published: %s", res.ImageRef)
	}
	ui.Info("Artifacts: %d (environment: %s)", res.ArtifactCount, res.Environment)

	if res.Success {
		ui.Success("Build stage passed in %s", res.Duration.Round(time.Second))
	} else {
		ui.Error("Build stage failed in %s", res.Duration.Round(time.Second))
	}
}

// firstLine truncates multi-line tool output for table display.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		return s[:57] + "..."
	}
	return s
}
