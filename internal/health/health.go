package health

import (
	"time"

	"github.com/nebulascloud/jaci/internal/models"
)

// HealthScore represents the computed health of a pipeline based on
// its recent run history.
type HealthScore struct {
	Total              int
	SuccessRate        int // 0-40
	CoverageAttainment int // 0-30
	ActivityRecency    int // 0-30
	RunCount           int
}

// Scorer computes health scores from pipeline run history.
type Scorer struct {
	CoverageTarget float64
}

// NewScorer returns a health Scorer with the given coverage target.
func NewScorer(coverageTarget float64) *Scorer {
	return &Scorer{CoverageTarget: coverageTarget}
}

// Score computes a health score (0-100) from recent runs, newest first.
func (s *Scorer) Score(runs []*models.PipelineRun) *HealthScore {
	h := &HealthScore{RunCount: len(runs)}
	if len(runs) == 0 {
		return h
	}

	// Success rate (40 pts) - fraction of runs that passed
	h.SuccessRate = scoreSuccess(runs, 40)

	// Coverage attainment (30 pts) - latest measured coverage vs target
	h.CoverageAttainment = s.scoreCoverage(runs, 30)

	// Activity recency (30 pts) - more recent runs = more points
	h.ActivityRecency = scoreRecency(runs[0].CreatedAt, 30)

	h.Total = h.SuccessRate + h.CoverageAttainment + h.ActivityRecency
	return h
}

// scoreSuccess converts the pass ratio of recent runs to points.
func scoreSuccess(runs []*models.PipelineRun, maxPoints int) int {
	passed := 0
	for _, r := range runs {
		if r.Success {
			passed++
		}
	}
	ratio := float64(passed) / float64(len(runs))
	return int(float64(maxPoints) * ratio)
}

// scoreCoverage scores the most recent run that carries a coverage
// measurement against the configured target.
func (s *Scorer) scoreCoverage(runs []*models.PipelineRun, maxPoints int) int {
	var coverage float64
	found := false
	for _, r := range runs {
		if r.Coverage > 0 {
			coverage = r.Coverage
			found = true
			break
		}
	}
	if !found {
		return maxPoints / 3 // no coverage data yet
	}
	if s.CoverageTarget <= 0 || coverage >= s.CoverageTarget {
		return maxPoints
	}
	return int(float64(maxPoints) * (coverage / s.CoverageTarget))
}

// scoreRecency converts time since the last run to points.
func scoreRecency(t time.Time, maxPoints int) int {
	if t.IsZero() {
		return 0
	}
	days := int(time.Since(t).Hours() / 24)
	switch {
	case days <= 1:
		return maxPoints
	case days <= 3:
		return int(float64(maxPoints) * 0.9)
	case days <= 7:
		return int(float64(maxPoints) * 0.75)
	case days <= 14:
		return int(float64(maxPoints) * 0.6)
	case days <= 30:
		return int(float64(maxPoints) * 0.4)
	case days <= 90:
		return int(float64(maxPoints) * 0.2)
	default:
		return int(float64(maxPoints) * 0.1)
	}
}
