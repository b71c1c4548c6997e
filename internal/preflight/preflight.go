package preflight

import (
	"os"
	"path/filepath"
	"strings"
)

// Check represents a single preflight check against the pipeline target.
type Check struct {
	Name     string
	Passed   bool
	Required bool // required checks block the pipeline when failing
	Detail   string
}

// Checker evaluates whether a source directory is ready for the pipeline.
type Checker struct{}

// NewChecker returns a new Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Run evaluates all preflight checks for a target at the given path.
func (c *Checker) Run(path string) []Check {
	var checks []Check

	checks = append(checks, checkFile(path, "go.mod", "Go module", true))
	checks = append(checks, checkEntrypoint(path))
	checks = append(checks, checkHasTests(path))
	checks = append(checks, checkFile(path, "README.md", "README", false))
	checks = append(checks, checkFile(path, "LICENSE", "LICENSE file", false))
	checks = append(checks, checkFile(path, ".golangci.yml", "golangci-lint config", false))

	return checks
}

// Ready reports whether all required checks passed.
func Ready(checks []Check) bool {
	for _, c := range checks {
		if c.Required && !c.Passed {
			return false
		}
	}
	return true
}

func checkFile(base, name, label string, required bool) Check {
	_, err := os.Stat(filepath.Join(base, name))
	if err == nil {
		return Check{Name: label, Passed: true, Required: required, Detail: name + " found"}
	}
	return Check{Name: label, Passed: false, Required: required, Detail: name + " missing"}
}

// checkEntrypoint looks for a buildable main package (main.go or cmd/).
func checkEntrypoint(path string) Check {
	if _, err := os.Stat(filepath.Join(path, "main.go")); err == nil {
		return Check{Name: "Entrypoint", Passed: true, Required: true, Detail: "main.go found"}
	}
	if info, err := os.Stat(filepath.Join(path, "cmd")); err == nil && info.IsDir() {
		return Check{Name: "Entrypoint", Passed: true, Required: true, Detail: "cmd/ found"}
	}
	return Check{Name: "Entrypoint", Passed: false, Required: true, Detail: "no main.go or cmd/ directory"}
}

func checkHasTests(path string) Check {
	// Check for any _test.go files recursively
	found := false
	filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && strings.HasSuffix(filepath.Base(p), "_test.go") {
			found = true
			return filepath.SkipAll
		}
		return nil
	})

	if found {
		return Check{Name: "Tests", Passed: true, Required: true, Detail: "_test.go files found"}
	}
	return Check{Name: "Tests", Passed: false, Required: true, Detail: "no _test.go files found"}
}
