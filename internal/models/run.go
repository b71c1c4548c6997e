package models

import "time"

// Stage identifies a pipeline stage.
type Stage string

const (
	StagePreflight Stage = "preflight"
	StageQuality   Stage = "quality"
	StageTest      Stage = "test"
	StageBuild     Stage = "build"
	StagePipeline  Stage = "pipeline" // full quality->test->build run
)

// RunStatus represents the recorded outcome of a stage execution.
type RunStatus string

const (
	RunStatusPass  RunStatus = "pass"
	RunStatusFail  RunStatus = "fail"
	RunStatusError RunStatus = "error"
)

// PipelineRun is one recorded stage execution.
type PipelineRun struct {
	ID          string
	Stage       Stage
	Status      RunStatus
	Success     bool
	Coverage    float64 // statement coverage percent, 0 when not applicable
	Duration    time.Duration
	Summary     string
	Detail      string // JSON-encoded result record
	SourcePath  string
	Environment string
	CreatedAt   time.Time
}
