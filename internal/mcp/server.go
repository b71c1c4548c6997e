package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nebulascloud/jaci/internal/health"
	"github.com/nebulascloud/jaci/internal/models"
	"github.com/nebulascloud/jaci/internal/pipeline"
	"github.com/nebulascloud/jaci/internal/store"
)

// Runner executes pipeline stages against the target project.
// *pipeline.Engine satisfies it.
type Runner interface {
	SourcePath() string
	RunQuality(ctx context.Context, opts pipeline.QualityOptions) (*models.QualityResult, error)
	RunTests(ctx context.Context, opts pipeline.TestOptions) (*models.TestResult, error)
	RunBuild(ctx context.Context, opts pipeline.BuildOptions) (*models.BuildResult, error)
}

// Asker answers natural language questions. *llm.Client satisfies it.
type Asker interface {
	Query(ctx context.Context, question string) (string, error)
}

// Server wraps the jaci pipeline and data layer and exposes them as MCP tools.
type Server struct {
	store  store.Store
	runner Runner
	asker  Asker
	scorer *health.Scorer
}

// NewServer creates the MCP server wrapper. runner and asker may be
// nil; the corresponding tools then report their unavailability.
func NewServer(s store.Store, runner Runner, asker Asker, coverageTarget float64) *Server {
	return &Server{
		store:  s,
		runner: runner,
		asker:  asker,
		scorer: health.NewScorer(coverageTarget),
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("jaci", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.runQualityTool())
	srv.AddTool(s.runTestsTool())
	srv.AddTool(s.runBuildTool())
	srv.AddTool(s.listRunsTool())
	srv.AddTool(s.pipelineHealthTool())
	srv.AddTool(s.askTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// recordRun persists a stage outcome. Best effort: tool results are
// returned even when bookkeeping fails.
func (s *Server) recordRun(ctx context.Context, stage models.Stage, success bool, coverage float64, duration time.Duration, summary string, detail any) {
	if s.store == nil {
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
		SourcePath: s.runner.SourcePath(),
	}
	_ = s.store.CreateRun(ctx, run)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// jaci_run_quality
func (s *Server) runQualityTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jaci_run_quality",
		mcp.WithDescription("Run the code quality stage (gofmt, go vet, staticcheck, gosec) against the target project. Returns a JSON summary of per-check results."),
		mcp.WithBoolean("sequential", mcp.Description("Run checks sequentially instead of in parallel")),
	)
	return tool, s.handleRunQuality
}

func (s *Server) handleRunQuality(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.runner == nil {
		return mcp.NewToolResultError("pipeline engine not available"), nil
	}

	opts := pipeline.QualityOptions{Sequential: request.GetBool("sequential", false)}
	res, err := s.runner.RunQuality(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("quality stage failed: %v", err)), nil
	}
	s.recordRun(ctx, models.StageQuality, res.Success, 0, res.Duration, res.Summary(), res)

	type checkOut struct {
		Tool   string `json:"tool"`
		Status string `json:"status"`
		Output string `json:"output,omitempty"`
	}
	out := struct {
		Success  bool       `json:"success"`
		Checks   []checkOut `json:"checks"`
		Duration float64    `json:"duration_seconds"`
	}{
		Success:  res.Success,
		Duration: res.Duration.Seconds(),
	}
	for _, c := range res.Checks {
		out.Checks = append(out.Checks, checkOut{Tool: c.Tool, Status: string(c.Status), Output: c.Output})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// jaci_run_tests
func (s *Server) runTestsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jaci_run_tests",
		mcp.WithDescription("Run the test stage (unit, integration, performance suites) with coverage measurement. Returns a JSON summary."),
		mcp.WithString("filter", mcp.Description("Run only suites whose name contains this string")),
		mcp.WithBoolean("sequential", mcp.Description("Run suites sequentially instead of in parallel")),
		mcp.WithNumber("coverage_threshold", mcp.Description("Minimum statement coverage percent (default 80)")),
	)
	return tool, s.handleRunTests
}

func (s *Server) handleRunTests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.runner == nil {
		return mcp.NewToolResultError("pipeline engine not available"), nil
	}

	opts := pipeline.TestOptions{
		Filter:            request.GetString("filter", ""),
		Sequential:        request.GetBool("sequential", false),
		CoverageThreshold: request.GetFloat("coverage_threshold", 80),
		WithMocks:         true,
	}
	res, err := s.runner.RunTests(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("test stage failed: %v", err)), nil
	}
	s.recordRun(ctx, models.StageTest, res.Success, res.Coverage, res.Duration, res.Summary(), res)

	out := map[string]any{
		"success":            res.Success,
		"unit_passed":        res.UnitPassed,
		"integration_passed": res.IntegrationPassed,
		"performance_passed": res.PerformancePassed,
		"coverage":           res.Coverage,
		"coverage_target":    res.CoverageTarget,
		"duration_seconds":   res.Duration.Seconds(),
	}
	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// jaci_run_build
func (s *Server) runBuildTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jaci_run_build",
		mcp.WithDescription("Run the build stage: production image, release packages, deployment manifests, documentation, and environment configs. Returns a JSON summary."),
		mcp.WithString("environment", mcp.Description("Target environment: production, staging, development (default production)")),
		mcp.WithString("registry", mcp.Description("Container registry for image references")),
	)
	return tool, s.handleRunBuild
}

func (s *Server) handleRunBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.runner == nil {
		return mcp.NewToolResultError("pipeline engine not available"), nil
	}

	opts := pipeline.BuildOptions{
		Environment: request.GetString("environment", "production"),
		Registry:    request.GetString("registry", "ghcr.io/nebulascloud"),
		OutputDir:   "dist",
	}
	res, err := s.runner.RunBuild(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build stage failed: %v", err)), nil
	}
	s.recordRun(ctx, models.StageBuild, res.Success, 0, res.Duration, res.Summary(), res)

	out := map[string]any{
		"success":            res.Success,
		"environment":        res.Environment,
		"image_built":        res.ImageBuilt,
		"packages_generated": res.PackagesGenerated,
		"manifests_created":  res.ManifestsCreated,
		"docs_generated":     res.DocsGenerated,
		"artifact_count":     res.ArtifactCount,
		"duration_seconds":   res.Duration.Seconds(),
	}
	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// jaci_list_runs
func (s *Server) listRunsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jaci_list_runs",
		mcp.WithDescription("List recorded pipeline runs, newest first. Returns a JSON array with stage, status, coverage, duration, and timestamps."),
		mcp.WithString("stage", mcp.Description("Filter by stage: preflight, quality, test, build, pipeline")),
		mcp.WithString("status", mcp.Description("Filter by status: pass, fail, error")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return (default 20)")),
	)
	return tool, s.handleListRuns
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.RunListFilter{
		Stage:  models.Stage(request.GetString("stage", "")),
		Status: models.RunStatus(request.GetString("status", "")),
		Limit:  request.GetInt("limit", 20),
	}
	runs, err := s.store.ListRuns(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}

	type runOut struct {
		ID         string  `json:"id"`
		Stage      string  `json:"stage"`
		Status     string  `json:"status"`
		Coverage   float64 `json:"coverage,omitempty"`
		Duration   float64 `json:"duration_seconds"`
		Summary    string  `json:"summary,omitempty"`
		SourcePath string  `json:"source_path,omitempty"`
		CreatedAt  string  `json:"created_at"`
	}
	out := make([]runOut, len(runs))
	for i, r := range runs {
		out[i] = runOut{
			ID:         r.ID,
			Stage:      string(r.Stage),
			Status:     string(r.Status),
			Coverage:   r.Coverage,
			Duration:   r.Duration.Seconds(),
			Summary:    r.Summary,
			SourcePath: r.SourcePath,
			CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal runs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// jaci_pipeline_health
func (s *Server) pipelineHealthTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jaci_pipeline_health",
		mcp.WithDescription("Compute the pipeline health score (0-100) from recent run history: success rate, coverage attainment, and recency."),
		mcp.WithNumber("window", mcp.Description("Number of recent runs to score (default 20)")),
	)
	return tool, s.handlePipelineHealth
}

func (s *Server) handlePipelineHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	window := request.GetInt("window", 20)
	runs, err := s.store.ListRuns(ctx, store.RunListFilter{Limit: window})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}

	h := s.scorer.Score(runs)
	out := map[string]any{
		"total":               h.Total,
		"success_rate":        h.SuccessRate,
		"coverage_attainment": h.CoverageAttainment,
		"activity_recency":    h.ActivityRecency,
		"run_count":           h.RunCount,
	}
	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal health: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// jaci_ask
func (s *Server) askTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("jaci_ask",
		mcp.WithDescription("Ask the assistant a natural language question about Jira work and dependencies. Conversation context carries across calls."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to ask")),
	)
	return tool, s.handleAsk
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.asker == nil {
		return mcp.NewToolResultError("assistant not configured: set an API key"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	answer, err := s.asker.Query(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return mcp.NewToolResultText(answer), nil
}
