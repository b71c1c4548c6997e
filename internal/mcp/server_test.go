package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulascloud/jaci/internal/models"
	"github.com/nebulascloud/jaci/internal/pipeline"
	"github.com/nebulascloud/jaci/internal/store"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockStore implements store.Store for testing.
type mockStore struct {
	runs      []*models.PipelineRun
	exchanges []*store.Exchange

	createdRuns []*models.PipelineRun

	listRunsErr error
}

func (m *mockStore) CreateRun(_ context.Context, run *models.PipelineRun) error {
	if run.ID == "" {
		run.ID = fmt.Sprintf("run-%d", len(m.runs)+1)
	}
	run.CreatedAt = time.Now()
	m.runs = append(m.runs, run)
	m.createdRuns = append(m.createdRuns, run)
	return nil
}

func (m *mockStore) GetRun(_ context.Context, id string) (*models.PipelineRun, error) {
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("run not found: %s", id)
}

func (m *mockStore) ListRuns(_ context.Context, filter store.RunListFilter) ([]*models.PipelineRun, error) {
	if m.listRunsErr != nil {
		return nil, m.listRunsErr
	}
	var out []*models.PipelineRun
	for _, r := range m.runs {
		if filter.Stage != "" && r.Stage != filter.Stage {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockStore) PruneRuns(_ context.Context, _ int) (int64, error) { return 0, nil }

func (m *mockStore) CreateExchange(_ context.Context, ex *store.Exchange) error {
	m.exchanges = append(m.exchanges, ex)
	return nil
}
func (m *mockStore) ListExchanges(_ context.Context, _ int) ([]*store.Exchange, error) {
	return m.exchanges, nil
}
func (m *mockStore) ClearExchanges(_ context.Context) (int64, error) { return 0, nil }
func (m *mockStore) Migrate(_ context.Context) error                 { return nil }
func (m *mockStore) Close() error                                    { return nil }

// mockRunner implements Runner with canned results.
type mockRunner struct {
	quality *models.QualityResult
	tests   *models.TestResult
	build   *models.BuildResult

	qualityErr error
	testsErr   error
	buildErr   error

	lastTestOpts pipeline.TestOptions
}

func (m *mockRunner) SourcePath() string { return "/tmp/project" }

func (m *mockRunner) RunQuality(_ context.Context, _ pipeline.QualityOptions) (*models.QualityResult, error) {
	return m.quality, m.qualityErr
}

func (m *mockRunner) RunTests(_ context.Context, opts pipeline.TestOptions) (*models.TestResult, error) {
	m.lastTestOpts = opts
	return m.tests, m.testsErr
}

func (m *mockRunner) RunBuild(_ context.Context, _ pipeline.BuildOptions) (*models.BuildResult, error) {
	return m.build, m.buildErr
}

// mockAsker implements Asker.
type mockAsker struct {
	answer string
	err    error
}

func (m *mockAsker) Query(_ context.Context, _ string) (string, error) {
	return m.answer, m.err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHandleRunQuality(t *testing.T) {
	st := &mockStore{}
	runner := &mockRunner{
		quality: &models.QualityResult{
			Success: true,
			Checks: []models.CheckResult{
				{Tool: "gofmt", Status: models.CheckPass},
				{Tool: "go vet", Status: models.CheckPass},
			},
			Duration: 5 * time.Second,
		},
	}
	s := NewServer(st, runner, nil, 80)

	result, err := s.handleRunQuality(context.Background(), callToolReq("jaci_run_quality", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	var out struct {
		Success bool `json:"success"`
		Checks  []struct {
			Tool   string `json:"tool"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.True(t, out.Success)
	require.Len(t, out.Checks, 2)
	assert.Equal(t, "gofmt", out.Checks[0].Tool)

	// Stage outcome is recorded
	require.Len(t, st.createdRuns, 1)
	assert.Equal(t, models.StageQuality, st.createdRuns[0].Stage)
	assert.True(t, st.createdRuns[0].Success)
}

func TestHandleRunQuality_NoRunner(t *testing.T) {
	s := NewServer(&mockStore{}, nil, nil, 80)

	result, err := s.handleRunQuality(context.Background(), callToolReq("jaci_run_quality", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleRunQuality_StageError(t *testing.T) {
	runner := &mockRunner{qualityErr: fmt.Errorf("engine unavailable")}
	s := NewServer(&mockStore{}, runner, nil, 80)

	result, err := s.handleRunQuality(context.Background(), callToolReq("jaci_run_quality", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "engine unavailable")
}

func TestHandleRunTests(t *testing.T) {
	st := &mockStore{}
	runner := &mockRunner{
		tests: &models.TestResult{
			Success:           true,
			UnitPassed:        true,
			IntegrationPassed: true,
			PerformancePassed: true,
			Coverage:          86.5,
			CoverageTarget:    80,
			Duration:          45 * time.Second,
		},
	}
	s := NewServer(st, runner, nil, 80)

	req := callToolReq("jaci_run_tests", map[string]any{
		"filter":             "unit",
		"coverage_threshold": 90.0,
	})
	result, err := s.handleRunTests(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "unit", runner.lastTestOpts.Filter)
	assert.Equal(t, 90.0, runner.lastTestOpts.CoverageThreshold)
	assert.True(t, runner.lastTestOpts.WithMocks)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.Equal(t, 86.5, out["coverage"])

	require.Len(t, st.createdRuns, 1)
	assert.Equal(t, models.StageTest, st.createdRuns[0].Stage)
	assert.Equal(t, 86.5, st.createdRuns[0].Coverage)
}

func TestHandleRunBuild(t *testing.T) {
	st := &mockStore{}
	runner := &mockRunner{
		build: &models.BuildResult{
			Success:           true,
			ImageBuilt:        true,
			PackagesGenerated: true,
			ManifestsCreated:  true,
			DocsGenerated:     true,
			Environment:       "staging",
			ArtifactCount:     8,
		},
	}
	s := NewServer(st, runner, nil, 80)

	req := callToolReq("jaci_run_build", map[string]any{"environment": "staging"})
	result, err := s.handleRunBuild(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.Equal(t, "staging", out["environment"])
	assert.Equal(t, true, out["image_built"])
}

func TestHandleListRuns(t *testing.T) {
	st := &mockStore{runs: []*models.PipelineRun{
		{ID: "r1", Stage: models.StageQuality, Status: models.RunStatusPass, Success: true, CreatedAt: time.Now()},
		{ID: "r2", Stage: models.StageTest, Status: models.RunStatusFail, Coverage: 72.0, CreatedAt: time.Now()},
	}}
	s := NewServer(st, nil, nil, 80)

	t.Run("all runs", func(t *testing.T) {
		result, err := s.handleListRuns(context.Background(), callToolReq("jaci_list_runs", nil))
		require.NoError(t, err)
		require.False(t, result.IsError)

		var out []map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
		assert.Len(t, out, 2)
	})

	t.Run("filter by stage", func(t *testing.T) {
		req := callToolReq("jaci_list_runs", map[string]any{"stage": "test"})
		result, err := s.handleListRuns(context.Background(), req)
		require.NoError(t, err)

		var out []map[string]any
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
		require.Len(t, out, 1)
		assert.Equal(t, "r2", out[0]["id"])
	})

	t.Run("store error", func(t *testing.T) {
		errStore := &mockStore{listRunsErr: fmt.Errorf("database locked")}
		errSrv := NewServer(errStore, nil, nil, 80)
		result, err := errSrv.handleListRuns(context.Background(), callToolReq("jaci_list_runs", nil))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestHandlePipelineHealth(t *testing.T) {
	st := &mockStore{runs: []*models.PipelineRun{
		{ID: "r1", Stage: models.StageTest, Success: true, Coverage: 90, CreatedAt: time.Now()},
		{ID: "r2", Stage: models.StageQuality, Success: true, CreatedAt: time.Now()},
	}}
	s := NewServer(st, nil, nil, 80)

	result, err := s.handlePipelineHealth(context.Background(), callToolReq("jaci_pipeline_health", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.Equal(t, float64(100), out["total"])
	assert.Equal(t, float64(2), out["run_count"])
}

func TestHandleAsk(t *testing.T) {
	t.Run("answers", func(t *testing.T) {
		s := NewServer(&mockStore{}, nil, &mockAsker{answer: "MCP-377 depends on MCP-376"}, 80)
		req := callToolReq("jaci_ask", map[string]any{"question": "suggest dependencies"})
		result, err := s.handleAsk(context.Background(), req)
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "MCP-377")
	})

	t.Run("missing question", func(t *testing.T) {
		s := NewServer(&mockStore{}, nil, &mockAsker{answer: "x"}, 80)
		result, err := s.handleAsk(context.Background(), callToolReq("jaci_ask", nil))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("no asker configured", func(t *testing.T) {
		s := NewServer(&mockStore{}, nil, nil, 80)
		req := callToolReq("jaci_ask", map[string]any{"question": "q"})
		result, err := s.handleAsk(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("query failure", func(t *testing.T) {
		s := NewServer(&mockStore{}, nil, &mockAsker{err: fmt.Errorf("rate limited")}, 80)
		req := callToolReq("jaci_ask", map[string]any{"question": "q"})
		result, err := s.handleAsk(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestMCPServer_RegistersTools(t *testing.T) {
	s := NewServer(&mockStore{}, &mockRunner{}, &mockAsker{}, 80)
	srv := s.MCPServer()
	assert.NotNil(t, srv)
}
