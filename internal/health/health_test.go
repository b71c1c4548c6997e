package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nebulascloud/jaci/internal/models"
)

func TestScore_HealthyPipeline(t *testing.T) {
	s := NewScorer(80)

	runs := []*models.PipelineRun{
		{Success: true, Coverage: 92.5, CreatedAt: time.Now().Add(-1 * time.Hour)},
		{Success: true, CreatedAt: time.Now().Add(-2 * time.Hour)},
		{Success: true, CreatedAt: time.Now().Add(-24 * time.Hour)},
	}

	h := s.Score(runs)

	assert.Equal(t, 40, h.SuccessRate, "all passing runs should get full points")
	assert.Equal(t, 30, h.CoverageAttainment, "coverage above target should get full points")
	assert.Equal(t, 30, h.ActivityRecency, "recent run should get full points")
	assert.Equal(t, 100, h.Total)
}

func TestScore_UnhealthyPipeline(t *testing.T) {
	s := NewScorer(80)

	old := time.Now().Add(-120 * 24 * time.Hour)
	runs := []*models.PipelineRun{
		{Success: false, Coverage: 40, CreatedAt: old},
		{Success: false, CreatedAt: old},
		{Success: true, CreatedAt: old},
	}

	h := s.Score(runs)

	assert.True(t, h.SuccessRate < 20, "mostly failing runs = low success points")
	assert.Equal(t, 15, h.CoverageAttainment, "half the target = half the points")
	assert.True(t, h.ActivityRecency < 10, "stale pipeline should get few recency points")
	assert.True(t, h.Total < 50, "unhealthy pipeline should score below 50")
}

func TestScore_NoRuns(t *testing.T) {
	h := NewScorer(80).Score(nil)
	assert.Equal(t, 0, h.Total)
	assert.Equal(t, 0, h.RunCount)
}

func TestScore_NoCoverageData(t *testing.T) {
	s := NewScorer(80)

	runs := []*models.PipelineRun{
		{Success: true, CreatedAt: time.Now()},
	}

	h := s.Score(runs)
	assert.Equal(t, 10, h.CoverageAttainment, "missing coverage data scores a neutral third")
}

func TestScoreRecency(t *testing.T) {
	tests := []struct {
		name     string
		daysAgo  int
		minScore int
	}{
		{"today", 0, 25},
		{"this week", 5, 15},
		{"this month", 20, 8},
		{"old", 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := time.Now().Add(-time.Duration(tt.daysAgo) * 24 * time.Hour)
			score := scoreRecency(ts, 30)
			assert.True(t, score >= tt.minScore, "daysAgo=%d should score >= %d, got %d", tt.daysAgo, tt.minScore, score)
		})
	}
}

func TestScoreRecency_Zero(t *testing.T) {
	assert.Equal(t, 0, scoreRecency(time.Time{}, 30))
}
