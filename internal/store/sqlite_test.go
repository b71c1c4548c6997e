package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nebulascloud/jaci/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

// --- Pipeline runs ---

func TestRunCreateGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &models.PipelineRun{
		Stage:       models.StageTest,
		Status:      models.RunStatusPass,
		Success:     true,
		Coverage:    85.5,
		Duration:    45 * time.Second,
		Summary:     "=== Test Execution Summary ===",
		Detail:      `{"coverage":85.5}`,
		SourcePath:  "/src/analyzer",
		Environment: "production",
	}

	err := s.CreateRun(ctx, run)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID, "CreateRun should assign a ULID")
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageTest, got.Stage)
	assert.Equal(t, models.RunStatusPass, got.Status)
	assert.True(t, got.Success)
	assert.InDelta(t, 85.5, got.Coverage, 0.001)
	assert.Equal(t, 45*time.Second, got.Duration)
	assert.Equal(t, "/src/analyzer", got.SourcePath)
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), "nope")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListRuns_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, stage := range []models.Stage{models.StageQuality, models.StageTest, models.StageTest, models.StageBuild} {
		status := models.RunStatusPass
		if i == 2 {
			status = models.RunStatusFail
		}
		run := &models.PipelineRun{
			Stage:     stage,
			Status:    status,
			Success:   status == models.RunStatusPass,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateRun(ctx, run))
	}

	t.Run("all", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunListFilter{})
		require.NoError(t, err)
		assert.Len(t, runs, 4)
		// Newest first
		assert.Equal(t, models.StageBuild, runs[0].Stage)
	})

	t.Run("by stage", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunListFilter{Stage: models.StageTest})
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})

	t.Run("by status", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunListFilter{Status: models.RunStatusFail})
		require.NoError(t, err)
		assert.Len(t, runs, 1)
		assert.Equal(t, models.StageTest, runs[0].Stage)
	})

	t.Run("limit", func(t *testing.T) {
		runs, err := s.ListRuns(ctx, RunListFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})
}

func TestPruneRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		run := &models.PipelineRun{
			Stage:     models.StageQuality,
			Status:    models.RunStatusPass,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateRun(ctx, run))
	}

	n, err := s.PruneRuns(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	runs, err := s.ListRuns(ctx, RunListFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

// --- Assistant exchanges ---

func TestExchangeCreateList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ex := &Exchange{
		Question:   "Show me issues in the MCP project",
		Response:   "Here are some issues...",
		ResponseID: "resp_abc123",
		Provider:   "openai",
	}
	require.NoError(t, s.CreateExchange(ctx, ex))
	assert.NotEmpty(t, ex.ID)

	ex2 := &Exchange{
		Question:  "Suggest dependencies",
		Response:  "MCP-376 blocks MCP-377",
		Provider:  "openai",
		CreatedAt: time.Now().UTC().Add(time.Second),
	}
	require.NoError(t, s.CreateExchange(ctx, ex2))

	exchanges, err := s.ListExchanges(ctx, 0)
	require.NoError(t, err)
	require.Len(t, exchanges, 2)
	assert.Equal(t, "Suggest dependencies", exchanges[0].Question, "newest first")

	exchanges, err = s.ListExchanges(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, exchanges, 1)
}

func TestClearExchanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateExchange(ctx, &Exchange{Question: "q", Response: "a"}))
	require.NoError(t, s.CreateExchange(ctx, &Exchange{Question: "q2", Response: "a2"}))

	n, err := s.ClearExchanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	exchanges, err := s.ListExchanges(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, exchanges)
}
