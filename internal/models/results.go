package models

import (
	"fmt"
	"strings"
	"time"
)

// CheckStatus is the outcome of a single quality check.
type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckFail    CheckStatus = "fail"
	CheckError   CheckStatus = "error"
	CheckWarning CheckStatus = "warning"
)

// CheckResult records one quality tool invocation (gofmt, vet, staticcheck, gosec).
type CheckResult struct {
	Tool     string
	Status   CheckStatus
	Output   string
	Duration time.Duration
}

// QualityResult summarizes the code quality stage.
type QualityResult struct {
	Success  bool
	Checks   []CheckResult
	Duration time.Duration
}

// Summary returns a human-readable report of the quality stage.
func (r QualityResult) Summary() string {
	var b strings.Builder
	b.WriteString("=== Code Quality Summary ===\n")
	fmt.Fprintf(&b, "Status: %s\n", passFail(r.Success))
	for _, c := range r.Checks {
		fmt.Fprintf(&b, "%-12s %s\n", c.Tool+":", glyph(c.Status == CheckPass))
	}
	fmt.Fprintf(&b, "Duration: %.1fs\n", r.Duration.Seconds())
	return b.String()
}

// SuiteResult records one test suite execution.
type SuiteResult struct {
	Suite    string // "unit", "integration", "performance"
	Passed   bool
	Output   string
	Duration time.Duration
}

// TestResult summarizes the test stage.
type TestResult struct {
	Success           bool
	UnitPassed        bool
	IntegrationPassed bool
	PerformancePassed bool
	Coverage          float64
	CoverageTarget    float64
	Suites            []SuiteResult
	Duration          time.Duration
	ArtifactsExported bool
}

// Summary returns a human-readable report of the test stage.
func (r TestResult) Summary() string {
	var b strings.Builder
	b.WriteString("=== Test Execution Summary ===\n")
	fmt.Fprintf(&b, "Status: %s\n", passFail(r.Success))
	fmt.Fprintf(&b, "Unit Tests: %s\n", glyph(r.UnitPassed))
	fmt.Fprintf(&b, "Integration Tests: %s\n", glyph(r.IntegrationPassed))
	fmt.Fprintf(&b, "Performance Tests: %s\n", glyph(r.PerformancePassed))
	fmt.Fprintf(&b, "Coverage: %.1f%% (target: %.0f%%)\n", r.Coverage, r.CoverageTarget)
	fmt.Fprintf(&b, "Duration: %.1fs\n", r.Duration.Seconds())
	fmt.Fprintf(&b, "Artifacts Exported: %s\n", yesNo(r.ArtifactsExported))
	return b.String()
}

// BuildResult summarizes the build stage.
type BuildResult struct {
	Success           bool
	ImageBuilt        bool
	PackagesGenerated bool
	ManifestsCreated  bool
	DocsGenerated     bool
	Environment       string
	ImageRef          string // non-empty when published
	ArtifactCount     int
	Duration          time.Duration
}

// Summary returns a human-readable report of the build stage.
func (r BuildResult) Summary() string {
	var b strings.Builder
	b.WriteString("=== Build Execution Summary ===\n")
	fmt.Fprintf(&b, "Status: %s\n", passFail(r.Success))
	fmt.Fprintf(&b, "Environment: %s\n", r.Environment)
	fmt.Fprintf(&b, "Production Image: %s\n", glyph(r.ImageBuilt))
	fmt.Fprintf(&b, "Release Packages: %s\n", glyph(r.PackagesGenerated))
	fmt.Fprintf(&b, "Deployment Manifests: %s\n", glyph(r.ManifestsCreated))
	fmt.Fprintf(&b, "Documentation: %s\n", glyph(r.DocsGenerated))
	if r.ImageRef != "" {
		fmt.Fprintf(&b, "Published: %s\n", r.ImageRef)
	}
	fmt.Fprintf(&b, "Artifacts Generated: %d\n", r.ArtifactCount)
	fmt.Fprintf(&b, "Duration: %.1fs\n", r.Duration.Seconds())
	return b.String()
}

// PackageResult records release archive generation.
type PackageResult struct {
	ArchivesBuilt int
	Platforms     []string
	OutputDir     string
}

// ManifestResult records deployment manifest generation.
type ManifestResult struct {
	ComposeCreated    bool
	KubernetesCreated bool
	ManifestCount     int
	Registry          string
}

// DocsResult records documentation generation.
type DocsResult struct {
	APIDocsGenerated bool
	UserGuideCreated bool
	OutputDir        string
}

// MockServiceResult records the mock service binding test.
type MockServiceResult struct {
	ServicesCreated int
	Passed          bool
	JiraCalls       int
	OpenAICalls     int
}

func glyph(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func passFail(ok bool) string {
	if ok {
		return "✓ PASSED"
	}
	return "✗ FAILED"
}

func yesNo(ok bool) string {
	if ok {
		return "Yes"
	}
	return "No"
}
