package golang

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Analyzer provides Go project analysis by parsing go.mod.
type Analyzer interface {
	GoVersion(path string) (string, error)
	ModulePath(path string) (string, error)
}

// RealAnalyzer implements Analyzer by parsing go.mod files.
type RealAnalyzer struct{}

// NewAnalyzer returns a new RealAnalyzer.
func NewAnalyzer() *RealAnalyzer {
	return &RealAnalyzer{}
}

func (a *RealAnalyzer) GoVersion(path string) (string, error) {
	goMod := filepath.Join(path, "go.mod")
	return parseGoModField(goMod, "go ")
}

func (a *RealAnalyzer) ModulePath(path string) (string, error) {
	goMod := filepath.Join(path, "go.mod")
	return parseGoModField(goMod, "module ")
}

// parseGoModField reads go.mod and returns the value for a given prefix line.
func parseGoModField(goModPath, prefix string) (string, error) {
	f, err := os.Open(goModPath)
	if err != nil {
		return "", fmt.Errorf("open go.mod: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read go.mod: %w", err)
	}
	return "", fmt.Errorf("field %q not found in %s", strings.TrimSpace(prefix), goModPath)
}

// IsGoProject returns true if the path contains a go.mod file.
func IsGoProject(path string) bool {
	_, err := os.Stat(filepath.Join(path, "go.mod"))
	return err == nil
}

// DefaultToolchainImage is used when the target's go.mod cannot be read.
const DefaultToolchainImage = "golang:1.24-alpine"

// ToolchainImage returns the golang container image matching the target
// project's go directive, e.g. "go 1.25.0" -> "golang:1.25-alpine".
func ToolchainImage(path string) string {
	a := NewAnalyzer()
	ver, err := a.GoVersion(path)
	if err != nil {
		return DefaultToolchainImage
	}
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return DefaultToolchainImage
	}
	return fmt.Sprintf("golang:%s.%s-alpine", parts[0], parts[1])
}
